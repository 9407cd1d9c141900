package panicctx

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestEnsureInstalledOnce(t *testing.T) {
	var buf bytes.Buffer
	r := newHookRegistry(&buf)

	var g errgroup.Group
	for i := 0; i < 64; i++ {
		g.Go(func() error {
			r.ensureInstalled()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	r.ensureInstalled()

	s := newStore()
	s.create("a", true)
	r.terminate(s, "boom")

	AssertEqual(t, "Panic context:\na\n", buf.String())
	AssertEqual(t, false, s.reporting()) // not called from a panic
}

func TestHookDelegation(t *testing.T) {
	var buf bytes.Buffer
	r := newHookRegistry(&buf)
	r.set(func(rep *Report) {
		fmt.Fprintf(&buf, "panic: %v\n", rep.Value)
	})
	r.ensureInstalled()

	s := newStore()
	s.create("a", true)
	s.create("b", true)
	r.terminate(s, "boom")

	AssertEqual(t, "Panic context:\na\nb\npanic: boom\n", buf.String())
}

func TestHookTake(t *testing.T) {
	var buf bytes.Buffer
	r := newHookRegistry(&buf)
	r.ensureInstalled()

	taken := r.take()
	r.terminate(newStore(), "boom")
	AssertEqual(t, "", buf.String())

	var calls int
	r.set(func(rep *Report) {
		calls++
		taken(rep)
	})
	r.ensureInstalled() // no-op

	r.terminate(newStore(), "boom")
	AssertEqual(t, 1, calls)
	AssertEqual(t, "Panic context:\n", buf.String())

	r.set(nil)
	r.terminate(newStore(), "boom")
	AssertEqual(t, 1, calls)
}

func TestSetHookChain(t *testing.T) {
	var report *Report
	output := captureOutput(t, func() {
		NewContext(context.Background()) // install

		prev := TakeHook()
		defer SetHook(prev)

		SetHook(func(r *Report) {
			prev(r)
			diagnostics.Write([]byte("after\n"))
			report = r
		})

		catch(func() {
			Run(context.Background(), func(ctx context.Context) {
				defer Scoped(ctx, "x").Release()
				panic("boom")
			})
		})
	})

	AssertEqual(t, "Panic context:\nx\nafter\n", output)
	AssertEqual(t, true, report != nil)
	AssertEqual(t, "boom", fmt.Sprint(report.Value))
	AssertEqual(t, 26, len(report.Store.ID()))

	origin, ok := report.Origin()
	AssertEqual(t, true, ok)
	if function := origin.Frame().Function; !strings.Contains(function, "TestSetHookChain") {
		t.Errorf("origin: want TestSetHookChain, have %s", function)
	}
}

func TestReportOriginRuntimeError(t *testing.T) {
	var report *Report
	captureOutput(t, func() {
		NewContext(context.Background()) // install

		prev := TakeHook()
		defer SetHook(prev)

		SetHook(func(r *Report) {
			prev(r)
			report = r
		})

		catch(func() {
			Run(context.Background(), func(ctx context.Context) {
				defer Scoped(ctx, "x").Release()
				calcSig("yo")
			})
		})
	})

	AssertEqual(t, true, report != nil)
	origin, ok := report.Origin()
	AssertEqual(t, true, ok)
	AssertEqual(t, "github.com/peterbourgon/panicctx.calcSig", origin.Frame().Function)
}

//go:noinline
func calcSig(item string) string {
	return item[3:]
}

func TestGoroutineIsolation(t *testing.T) {
	const workers = 16

	output := captureOutput(t, func() {
		var g errgroup.Group
		for i := 0; i < workers; i++ {
			g.Go(func() error {
				catch(func() {
					Run(context.Background(), func(ctx context.Context) {
						defer Scopedf(ctx, "worker=%d", i).Release()
						defer Scopedf(ctx, "worker=%d", i).Release()
						panic(i)
					})
				})
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatal(err)
		}
	})

	blocks := strings.Split(output, dumpHeader)
	AssertEqual(t, "", blocks[0])
	AssertEqual(t, workers, len(blocks[1:]))

	var seen []string
	for _, block := range blocks[1:] {
		lines := strings.Split(strings.TrimSuffix(block, "\n"), "\n")
		AssertEqual(t, 2, len(lines))
		ExpectEqual(t, lines[0], lines[1])
		seen = append(seen, lines[0])
	}
	sort.Strings(seen)

	var want []string
	for i := 0; i < workers; i++ {
		want = append(want, fmt.Sprintf("worker=%d", i))
	}
	sort.Strings(want)

	AssertDiff(t, want, seen)
}

func TestDumpSwallowsWriteErrors(t *testing.T) {
	s := newStore()
	s.create("a", true)

	dump(errorWriter{}, s)
	dump(panicWriter{}, s)
	dump(errorWriter{}, nil)
}

type errorWriter struct{}

func (errorWriter) Write([]byte) (int, error) { return 0, fmt.Errorf("write failed") }

type panicWriter struct{}

func (panicWriter) Write([]byte) (int, error) { panic("write panicked") }
