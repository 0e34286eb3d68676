package sealitecheck

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sealite/sealite/internal/log"
	"github.com/sealite/sealite/internal/sqlitedrv"
	"github.com/sealite/sealite/internal/styled"
	"github.com/sealite/sealite/internal/version"
)

// Run checks that the linked engine encrypts, decrypts and rejects wrong
// keys for every cipher it supports. It fails when any check fails.
func Run(ctx context.Context) error {
	conf := mustParseConfig(os.Args)
	level, _ := conf.slogLevel()
	logger := log.NewLoggerWithLevel(os.Stderr, level)

	fmt.Println(version.CheckVersion())

	dir := conf.Dir
	if dir == "" {
		tmpDir, err := os.MkdirTemp("", "sealitecheck_*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmpDir)
		dir = tmpDir
	} else if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	fmt.Printf("Engine %s, encryption available: %t\n", sqlitedrv.EngineName, sqlitedrv.EncryptionSupported)
	fmt.Printf("Test databases in %s\n\n", dir)

	results := newChecker(dir, logger).run(ctx)
	failed := printResults(os.Stdout, results)
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

// printResults writes one line per check and a summary, and returns the
// number of failed checks.
func printResults(w io.Writer, results []checkResult) int {
	counts := map[status]int{}

	for _, res := range results {
		counts[res.Status]++
		duration := res.Duration.Round(time.Millisecond)

		switch res.Status {
		case statusPassed:
			styled.SuccessColor().Fprintf(w, "✓ %s", res.Name)
			styled.DimmedColor().Fprintf(w, " (%s)\n", duration)
		case statusSkipped:
			styled.WarningColor().Fprintf(w, "- %s skipped: %s\n", res.Name, skipReason(res.Err))
		default:
			styled.FailureColor().Fprintf(w, "✗ %s failed: %s\n", res.Name, res.Err)
		}
	}

	fmt.Fprintf(w, "\n%d passed, %d failed, %d skipped\n",
		counts[statusPassed], counts[statusFailed], counts[statusSkipped],
	)
	return counts[statusFailed]
}

// skipReason drops the "skipped: " prefix of a skip error.
func skipReason(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	prefix := errSkipped.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
