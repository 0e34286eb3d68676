package sealite

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sealite/sealite/internal/log"
	"github.com/sealite/sealite/internal/sealite/config"
	"github.com/sealite/sealite/internal/sealite/repl"
	"github.com/sealite/sealite/internal/version"
)

// Run runs the sealite shell.
func Run(ctx context.Context) error {
	conf := config.MustParse(os.Args)
	level, _ := conf.SlogLevel()
	logger := log.NewLoggerWithLevel(os.Stderr, level)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	interactive := conf.Command == ""
	if interactive {
		fmt.Println(version.ShellVersion())
	}

	u, err := newUnlocker(conf, logger)
	if err != nil {
		return err
	}

	db, err := u.open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", conf.Database, err)
	}
	defer db.Close()

	rp := repl.NewRepl(ctx, stop, repl.Config{
		DB:        db,
		Keystore:  u.keystore,
		Out:       os.Stdout,
		Logger:    logger,
		DeriveKey: u.deriveKey,
	})

	if !interactive {
		rp.Execute(conf.Command)
		rp.Shutdown()
		return rp.Err()
	}

	defer rp.Shutdown()
	go func() {
		if err := rp.Start(); err != nil {
			fmt.Println(err)
			stop()
		}
	}()

	<-ctx.Done()
	fmt.Printf("\nGoodbye!\n\n")
	return nil
}
