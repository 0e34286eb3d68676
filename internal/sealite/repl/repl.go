package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/peterh/liner"
	"github.com/sealite/sealite"
	"github.com/sealite/sealite/internal/log"
	"github.com/sealite/sealite/internal/sealite/keystore"
	"github.com/sealite/sealite/internal/util/sysutil"
)

// Config holds the dependencies of a Repl.
type Config struct {
	DB *sealite.DB
	// Keystore is nil when the keyring is disabled.
	Keystore *keystore.Keystore
	Out      io.Writer
	Logger   log.Logger
	// DeriveKey turns a password typed in the shell into a key. Defaults to
	// sealite.Passphrase.
	DeriveKey func(password string) (sealite.Key, error)
	// ReadPassword reads a password without echo. Defaults to the liner
	// password prompt of the running shell.
	ReadPassword func(prompt string) (string, error)
	HistoryPath  string
}

type Repl struct {
	Config
	ctx  context.Context
	stop context.CancelFunc
	line *liner.State
	tx   *sealite.Tx
	txId string
	// err is the last error printed by Execute.
	err error
}

func NewRepl(ctx context.Context, stop context.CancelFunc, conf Config) *Repl {
	r := &Repl{
		Config: conf,
		ctx:    ctx,
		stop:   stop,
	}

	if r.Out == nil {
		r.Out = os.Stdout
	}
	if !r.Logger.IsInitialized() {
		r.Logger = log.NewNopLogger()
	}
	if r.DeriveKey == nil {
		r.DeriveKey = sealite.Passphrase
	}
	if r.ReadPassword == nil {
		r.ReadPassword = r.linerPassword
	}
	if r.HistoryPath == "" {
		r.HistoryPath = filepath.Join(os.TempDir(), ".sealite_history")
	}

	return r
}

// Start runs the interactive prompt until the user quits or the context is
// cancelled.
func (r *Repl) Start() error {
	r.line = liner.NewLiner()
	defer func() {
		r.line.Close()
		r.line = nil
	}()
	r.line.SetCtrlCAborts(true)
	r.line.SetCompleter(cmdHelpCompleter)

	if file, err := os.Open(r.HistoryPath); err == nil {
		_, _ = r.line.ReadHistory(file)
		file.Close()
	}

	fmt.Fprintln(r.Out)
	fmt.Fprintf(r.Out, "Connected to %s\n", r.DB.Path())
	fmt.Fprintln(r.Out, `Enter ".help" for usage hints and ".quit" or "CTRL+C" to quit`)
	fmt.Fprintln(r.Out)

	for {
		select {
		case <-r.ctx.Done():
			return nil
		default:
			input := r.prompt()
			if input == "" {
				continue
			}

			if r.Execute(input) {
				r.Shutdown()
				return nil
			}
		}
	}
}

// Execute runs a single statement or dot command and reports whether the
// shell should quit.
func (r *Repl) Execute(input string) (quit bool) {
	r.err = nil
	input = strings.TrimSpace(input)
	command, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "":
		return false
	case "exit", ".exit", ".quit":
		return true
	case "clear", ".clear":
		sysutil.ClearTerminal(r.Out)
	case "help", ".help":
		cmdHelp(r)
	case ".tables":
		cmdTables(r)
	case ".schema":
		cmdSchema(r, arg)
	case ".indexes":
		cmdIndexes(r, arg)
	case ".columns":
		cmdColumns(r, arg)
	case ".count":
		cmdCount(r, arg)
	case ".functions":
		cmdFunctions(r)
	case ".stats":
		cmdStats(r, arg)
	case ".cipher":
		cmdCipher(r)
	case ".rekey":
		cmdRekey(r)
	case ".encrypt":
		cmdEncrypt(r, arg)
	case ".decrypt":
		cmdDecrypt(r, arg)
	case ".forget":
		cmdForget(r)
	default:
		if strings.HasPrefix(command, ".") {
			r.printError(errors.New("unknown command, type .help for usage hints"))
			return false
		}
		cmdQuery(r, input)
	}

	return false
}

// Err returns the error the last Execute printed, if any.
func (r *Repl) Err() error {
	return r.err
}

// Shutdown rolls back any open transaction and stops the REPL.
func (r *Repl) Shutdown() {
	if r.tx != nil {
		if err := r.tx.Rollback(); err != nil {
			r.Logger.WarnNs(log.NsShell, "failed to roll back open transaction", log.KV{
				"error": err.Error(),
			})
		}
		r.setTx(nil)
	}
	if r.stop != nil {
		r.stop()
	}
}

// querier returns the open transaction, or the database when there is none.
func (r *Repl) querier() sealite.Querier {
	if r.tx != nil {
		return r.tx
	}
	return r.DB
}

// setTx sets the current transaction of the REPL. Send nil to reset it.
func (r *Repl) setTx(tx *sealite.Tx) {
	r.tx = tx
	r.txId = ""
	if tx != nil {
		r.txId = uuid.NewString()
	}
}

// cleanError removes the unwanted text from the error message. So, the error
// is more readable.
func (r *Repl) cleanError(errStr string) string {
	errStr = strings.ReplaceAll(errStr, "failed to execute query:", "")
	errStr = strings.ReplaceAll(errStr, "failed to prepare statement:", "")
	return strings.TrimSpace(errStr)
}

// label returns the prompt, showing the tail of the transaction ID when one
// is open.
func (r *Repl) label() string {
	if r.txId == "" {
		return "sealite> "
	}

	txId := r.txId
	if len(txId) > 7 {
		txId = txId[len(txId)-7:]
	}
	return fmt.Sprintf("sealite(%s)> ", txId)
}

// prompt shows the prompt and reads the input from the user.
func (r *Repl) prompt() string {
	prompt, err := r.line.Prompt(r.label())
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Fprintln(r.Out, "CTRL+C pressed, exiting...")
			return ".quit"
		}
		return ""
	}

	r.line.AppendHistory(prompt)
	if file, err := os.Create(r.HistoryPath); err == nil {
		_, _ = r.line.WriteHistory(file)
		file.Close()
	}

	return strings.TrimSpace(prompt)
}

func (r *Repl) linerPassword(prompt string) (string, error) {
	if r.line == nil {
		return "", errors.New("password prompts need an interactive shell")
	}
	return r.line.PasswordPrompt(prompt)
}

// readNewPassword asks for a password twice and checks both match.
func (r *Repl) readNewPassword() (string, error) {
	password, err := r.ReadPassword("New password: ")
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", sealite.ErrEmptyPassword
	}

	confirm, err := r.ReadPassword("Confirm new password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", errors.New("passwords do not match")
	}

	return password, nil
}
