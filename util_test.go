package panicctx

import (
	"bytes"
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func AssertEqual[X comparable](t *testing.T, want, have X) {
	t.Helper()
	if want != have {
		t.Fatalf("want %v, have %v", want, have)
	}
}

func ExpectEqual[X comparable](t *testing.T, want, have X) {
	t.Helper()
	if want != have {
		t.Errorf("want %v, have %v", want, have)
	}
}

func AssertDiff[T any](t *testing.T, want, have T) {
	t.Helper()
	if !cmp.Equal(want, have) {
		t.Fatal(cmp.Diff(want, have))
	}
}

// Only one test at a time may redirect the diagnostic stream.
var outputMtx sync.Mutex

// captureOutput redirects the diagnostic stream while fn runs, and returns
// everything written to it.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	outputMtx.Lock()
	defer outputMtx.Unlock()

	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	fn()

	return buf.String()
}

// captureTermination runs fn in a fresh goroutine context, expecting it to
// panic, and returns the dumped context and the panic value.
func captureTermination(t *testing.T, fn func(context.Context)) (output string, value any) {
	t.Helper()

	output = captureOutput(t, func() {
		value = catch(func() {
			Run(context.Background(), fn)
		})
	})
	if value == nil {
		t.Fatalf("function didn't panic")
	}

	return output, value
}

func catch(fn func()) (value any) {
	defer func() {
		value = recover()
	}()
	fn()
	return nil
}
