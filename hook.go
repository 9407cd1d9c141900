package panicctx

import (
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-stack/stack"
)

// Hook is invoked once per panicking goroutine, by the first handle release or
// [Recover] to observe the panic. After the hook returns, the panic continues
// with its original value, so the Go runtime still prints its usual report.
//
// Hooks compose by capturing the previous hook with [TakeHook], and calling
// it from the new hook installed with [SetHook].
type Hook func(*Report)

// Report describes a panic observed by package panicctx.
type Report struct {
	// Value is the value passed to panic.
	Value any

	// Store is the store of the panicking goroutine. Its entries are those
	// which were live when the panic was observed.
	Store *Store

	// Stack is the call stack at the point the panic was observed.
	Stack stack.CallStack
}

// Origin returns the call which panicked, if it can be identified in the
// report's stack, skipping runtime frames like the bounds check that raised
// a runtime error.
func (r *Report) Origin() (stack.Call, bool) {
	var inPanic bool
	for _, c := range r.Stack {
		function := c.Frame().Function
		switch {
		case function == "runtime.gopanic":
			inPanic = true
		case inPanic && isRuntimeFunction(function):
			continue
		case inPanic:
			return c, true
		}
	}
	return stack.Call{}, false
}

func isRuntimeFunction(function string) bool {
	return strings.HasPrefix(function, "runtime.")
}

// SetHook replaces the current hook. A nil hook restores the default, which
// does nothing.
//
// Once any store or handle has been created, the current hook includes the
// dump of context entries. Replacing it without calling the previous hook
// disables that dump for the rest of the process.
func SetHook(h Hook) {
	hooks.set(h)
}

// TakeHook returns the current hook, and restores the default.
func TakeHook() Hook {
	return hooks.take()
}

var hooks = newHookRegistry(diagnostics)

// hookRegistry is the process-wide hook chain. The dump is installed at most
// once for the life of the registry, and there is no way to reset that.
type hookRegistry struct {
	out       io.Writer
	installed atomic.Bool

	mtx  sync.Mutex
	hook Hook
}

func newHookRegistry(out io.Writer) *hookRegistry {
	return &hookRegistry{
		out:  out,
		hook: defaultHook,
	}
}

func defaultHook(*Report) {}

func (r *hookRegistry) ensureInstalled() {
	if r.installed.Load() {
		return
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	if r.installed.Load() {
		return
	}

	var (
		out  = r.out
		prev = r.hook
	)
	r.hook = func(rep *Report) {
		dump(out, rep.Store)
		prev(rep)
	}

	r.installed.Store(true)
}

func (r *hookRegistry) set(h Hook) {
	if h == nil {
		h = defaultHook
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.hook = h
}

func (r *hookRegistry) take() Hook {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	h := r.hook
	r.hook = defaultHook
	return h
}

func (r *hookRegistry) current() Hook {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return r.hook
}

// terminate records the panic as reported by the store, so no other handle in
// the goroutine reports it again while it unwinds, and invokes the current
// hook. The caller is expected to continue the panic afterwards.
func (r *hookRegistry) terminate(s *Store, v any) {
	s.markReported()

	r.current()(&Report{
		Value: v,
		Store: s,
		Stack: stack.Trace().TrimRuntime(),
	})
}
