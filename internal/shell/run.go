package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nsqlite/litebind/internal/log"
	"github.com/nsqlite/litebind/internal/version"
	"github.com/nsqlite/litebind/sqlitec"
)

// Run runs the litebind shell configured from the command line.
func Run(ctx context.Context) error {
	conf := MustParse(os.Args)

	level, err := log.ParseLevel(conf.LogLevel)
	if err != nil {
		return err
	}
	logger := log.NewLogger(os.Stderr, level)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	conn, err := open(conf)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.ErrorNs(log.NsShell, "failed to close database", log.KV{"error": err.Error()})
		}
	}()
	logger.DebugNs(log.NsShell, "database opened", log.KV{
		"database": conf.Database,
		"readonly": conf.ReadOnly,
		"sqlite":   sqlitec.Version(),
	})

	sh, err := New(conn, os.Stdout, logger)
	if err != nil {
		return err
	}

	// CTRL+C while a statement runs interrupts it; otherwise it ends the
	// shell. At the prompt liner reports it as ErrPromptAborted instead.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		for range interrupts {
			if !sh.Interrupt() {
				stop()
			}
		}
	}()

	if !conf.interactive() {
		script := conf.Command
		if conf.File != "" {
			data, err := os.ReadFile(conf.File)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", conf.File, err)
			}
			script = string(data)
		}

		if err := sh.ExecuteScript(script); err != nil && !errors.Is(err, errQuit) {
			return err
		}
		return nil
	}

	fmt.Println(version.ShellVersion())
	fmt.Println()

	repl := NewRepl(sh)
	repl.greet(os.Stdout, conf.Database)

	err = serve(ctx, repl, sh.Interrupt, closeGrace)
	if errors.Is(err, errCloseSkipped) {
		logger.WarnNs(log.NsShell, "terminal left open, prompt still waiting for input")
		err = nil
	}

	fmt.Printf("\nGoodbye!\n\n")
	return err
}

// closeGrace is how long serve waits for the loop to return once ctx is
// done.
const closeGrace = 2 * time.Second

var errCloseSkipped = errors.New("loop did not return in time")

type loop interface {
	Start(ctx context.Context) error
	Close() error
}

// serve runs l until it returns or ctx is done. l is closed from the
// goroutine that runs it, so Close never overlaps a pending Start. When ctx
// is done the running statement is interrupted and serve waits up to grace
// for l to return.
func serve(ctx context.Context, l loop, interrupt func() bool, grace time.Duration) error {
	done := make(chan error, 1)
	go func() {
		err := l.Start(ctx)
		done <- errors.Join(err, l.Close())
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	interrupt()
	select {
	case err := <-done:
		return err
	case <-time.After(grace):
		return errCloseSkipped
	}
}

// open connects to the database described by conf.
func open(conf Config) (*sqlitec.Conn, error) {
	conn, err := sqlitec.OpenV2(conf.Database, conf.openFlags(), conf.VFS)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", conf.Database, err)
	}

	if err := conn.SetBusyTimeout(conf.BusyTimeout); err != nil {
		return nil, errors.Join(err, conn.Close())
	}
	if err := conn.EnableForeignKeys(true); err != nil {
		return nil, errors.Join(err, conn.Close())
	}

	return conn, nil
}
