// panicctx-demo computes the length and signature of a list of items, and
// panics on any item too short to have a signature. The panic context shows
// which step, and which item, was being processed at the time.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/oklog/run"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

func main() {
	var (
		ctx    = context.Background()
		stdout = os.Stdout
		stderr = os.Stderr
		args   = os.Args[1:]
	)
	err := exec(ctx, stdout, stderr, args)
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.As(err, &(run.SignalError{})):
		os.Exit(0)
	case err != nil:
		fmt.Fprintf(stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func exec(ctx context.Context, stdout, stderr io.Writer, args []string) (err error) {
	cfg := &demoConfig{
		stdout: stdout,
		stderr: stderr,
	}

	fs := ff.NewFlagSet("panicctx-demo")
	cfg.register(fs)

	rootCommand := &ff.Command{
		Name:      "panicctx-demo",
		ShortHelp: "process items, panicking on those without a signature",
		Flags:     fs,
		Exec:      cfg.Exec,
	}

	// Print help when appropriate.
	showHelp := true
	defer func() {
		errHelp := errors.Is(err, ff.ErrHelp) || errors.Is(err, ff.ErrNoExec)
		if showHelp || errHelp {
			fmt.Fprintf(stderr, "\n%s\n", ffhelp.Command(rootCommand))
		}
		if errHelp {
			err = nil
		}
	}()

	// Initial parsing.
	if err := rootCommand.Parse(args, ff.WithEnvVarPrefix("PANICCTX")); err != nil {
		return err
	}

	// Validation and set-up.
	{
		var infodst, debugdst io.Writer
		switch cfg.logLevel {
		case "n", "none":
			infodst, debugdst = io.Discard, io.Discard
		case "i", "info":
			infodst, debugdst = stderr, io.Discard
		case "d", "debug":
			infodst, debugdst = stderr, stderr
		default:
			return fmt.Errorf("invalid log level %q", cfg.logLevel)
		}
		cfg.info = log.New(infodst, "", 0)
		cfg.debug = log.New(debugdst, "[DEBUG] ", log.Lmsgprefix)
	}

	if cfg.workers <= 0 {
		return fmt.Errorf("workers (%d) must be at least 1", cfg.workers)
	}

	if len(cfg.items) <= 0 {
		cfg.items = defaultItems
	}

	// Run errors shouldn't show help by default.
	showHelp = false

	// Run the command.
	return rootCommand.Run(ctx)
}
