package repl

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sealite/sealite"
	"github.com/sealite/sealite/internal/log"
	"github.com/sealite/sealite/internal/sqlitedrv"
	"github.com/sealite/sealite/internal/styled"
)

var errOpenTransaction = errors.New("commit or roll back the open transaction first")

func cmdCipher(r *Repl) {
	settings := r.DB.Settings()

	orDefault := func(value string) string {
		if value == "" {
			return "default"
		}
		return value
	}
	intOrDefault := func(value int) string {
		if value == 0 {
			return "default"
		}
		return strconv.Itoa(value)
	}

	version := ""
	if sqlitedrv.EncryptionSupported {
		// Through the querier: an open transaction may hold the only connection.
		v, err := sealite.ExecuteValue[string](r.ctx, r.querier(), "PRAGMA cipher_version")
		if err != nil && !errors.Is(err, sealite.ErrNoRows) {
			r.printError(err)
			return
		}
		version = v
	}

	tw := styled.NewTableWriter()
	tw.AppendHeader(table.Row{"Setting", "Value"})
	tw.AppendRows([]table.Row{
		{"Engine", sqlitedrv.EngineName},
		{"Cipher version", orDefault(version)},
		{"Encryption available", sqlitedrv.EncryptionSupported},
		{"Encrypted", r.DB.Encrypted()},
		{"Cipher", orDefault(settings.Cipher.Value)},
		{"KDF iterations", intOrDefault(settings.KdfIter)},
		{"Page size", intOrDefault(settings.PageSize)},
		{"Legacy", intOrDefault(settings.Legacy)},
		{"HMAC algorithm", orDefault(settings.HMACAlgorithm.Value)},
		{"KDF algorithm", orDefault(settings.KDFAlgorithm.Value)},
	})

	fmt.Fprintln(r.Out, tw.Render())
}

func cmdRekey(r *Repl) {
	if r.tx != nil {
		r.printError(errOpenTransaction)
		return
	}

	password, err := r.readNewPassword()
	if err != nil {
		r.printError(err)
		return
	}

	key, err := r.DeriveKey(password)
	if err != nil {
		r.printError(err)
		return
	}

	if err := r.DB.RekeyWithKey(r.ctx, key); err != nil {
		r.printError(err)
		return
	}

	if r.Keystore != nil {
		if err := r.Keystore.Set(r.DB.Path(), password); err != nil {
			r.Logger.WarnNs(log.NsShell, "failed to update the keyring", log.KV{
				"error": err.Error(),
			})
			styled.WarningColor().Fprintln(r.Out, "The keyring still holds the old password, run .forget")
		}
	}

	r.printOK("Password changed")
}

func cmdEncrypt(r *Repl, dst string) {
	if dst == "" {
		r.printError(errors.New("destination path is required"))
		return
	}
	if r.tx != nil {
		r.printError(errOpenTransaction)
		return
	}

	password, err := r.readNewPassword()
	if err != nil {
		r.printError(err)
		return
	}

	key, err := r.DeriveKey(password)
	if err != nil {
		r.printError(err)
		return
	}

	if err := r.DB.EncryptTo(r.ctx, dst, key); err != nil {
		r.printError(err)
		return
	}

	r.printOK("Encrypted copy written to " + dst)
}

func cmdDecrypt(r *Repl, dst string) {
	if dst == "" {
		r.printError(errors.New("destination path is required"))
		return
	}
	if r.tx != nil {
		r.printError(errOpenTransaction)
		return
	}

	if err := r.DB.DecryptTo(r.ctx, dst); err != nil {
		r.printError(err)
		return
	}

	r.printOK("Plaintext copy written to " + dst)
}

func cmdForget(r *Repl) {
	if r.Keystore == nil {
		r.printError(errors.New("the keyring is disabled, start the shell with --keyring"))
		return
	}

	if err := r.Keystore.Delete(r.DB.Path()); err != nil {
		r.printError(err)
		return
	}

	r.printOK("Password removed from the keyring")
}
