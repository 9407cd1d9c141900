package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"syscall"

	"github.com/oklog/run"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"
	"github.com/peterbourgon/panicctx"
	"golang.org/x/sync/errgroup"
)

var defaultItems = []string{"foo", "bar", "yo", "nope"}

type demoConfig struct {
	stdout io.Writer
	stderr io.Writer

	items    []string
	workers  int
	logLevel string

	info  *log.Logger
	debug *log.Logger

	outputMtx sync.Mutex
}

func (cfg *demoConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{ShortName: 'i', LongName: "item" /*    */, Value: ffval.NewUniqueList(&cfg.items) /*                                 */, Usage: "item to process (repeatable, default foo bar yo nope)" /* */, Placeholder: "ITEM"})
	fs.AddFlag(ff.FlagConfig{ShortName: 'w', LongName: "workers" /* */, Value: ffval.NewValueDefault(&cfg.workers, 1) /*                         */, Usage: "number of workers processing every item" /*              */, Placeholder: "N"})
	fs.AddFlag(ff.FlagConfig{ShortName: 'l', LongName: "log" /*     */, Value: ffval.NewEnum(&cfg.logLevel, "info", "i", "debug", "d", "none", "n") /* */, Usage: "log level: i/info, d/debug, n/none" /*                   */, Placeholder: "LEVEL"})
}

func (cfg *demoConfig) Exec(ctx context.Context, args []string) error {
	cfg.debug.Printf("items: %v", cfg.items)
	cfg.debug.Printf("workers: %d", cfg.workers)

	cfg.chainHook()

	var g run.Group

	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			return cfg.runWorkers(ctx)
		}, func(error) {
			cancel()
		})
	}

	{
		g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))
	}

	return g.Run()
}

// chainHook logs where the panic happened, after the context is dumped.
func (cfg *demoConfig) chainHook() {
	prev := panicctx.TakeHook()
	panicctx.SetHook(func(r *panicctx.Report) {
		prev(r)
		if c, ok := r.Origin(); ok {
			frame := c.Frame()
			cfg.info.Printf("store %s: panic in %s at %s:%d", r.Store.ID(), frame.Function, frame.File, frame.Line)
		}
	})
}

func (cfg *demoConfig) runWorkers(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.workers; w++ {
		g.Go(func() (err error) {
			panicctx.Run(ctx, func(ctx context.Context) {
				err = cfg.process(ctx, w)
			})
			return err
		})
	}
	return g.Wait()
}

func (cfg *demoConfig) process(ctx context.Context, worker int) error {
	defer panicctx.Debugf(ctx, "items: %d", len(cfg.items)).Release()

	if cfg.workers > 1 {
		defer panicctx.Scopedf(ctx, "worker: %d", worker).Release()
	}

	step := panicctx.Updatable(ctx, "step: ")
	defer step.Release()

	step.Update("calculate lengths")
	for _, item := range cfg.items {
		if err := ctx.Err(); err != nil {
			return err
		}
		h := panicctx.Scopedf(ctx, "item: %s", item)
		cfg.debug.Printf("worker %d: %s: length %d", worker, item, getLen(item))
		h.Release()
	}

	step.Update("calculate signatures")
	for _, item := range cfg.items {
		if err := ctx.Err(); err != nil {
			return err
		}
		h := panicctx.Scopedf(ctx, "item: %s", item)
		cfg.printf("%s\t%s\n", item, calcSig(item))
		h.Release()
	}

	return nil
}

func (cfg *demoConfig) printf(format string, args ...any) {
	cfg.outputMtx.Lock()
	defer cfg.outputMtx.Unlock()

	fmt.Fprintf(cfg.stdout, format, args...)
}

func getLen(item string) int {
	return len(item)
}

// calcSig panics if the item is shorter than 3 bytes.
func calcSig(item string) string {
	return item[3:]
}
