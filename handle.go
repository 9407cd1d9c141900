package panicctx

import (
	"context"
	"fmt"

	"github.com/peterbourgon/panicctx/internal/pcdebug"
)

// Handle owns a single fixed-message entry in a store. The entry is visible to
// the dump until the handle is released.
//
// Release should be deferred directly, i.e. `defer h.Release()`, rather than
// called from within another deferred function. A directly deferred Release is
// how a panic is first observed, while the store still holds every entry that
// was live when the panic began.
type Handle struct {
	store    *Store
	id       uint64
	released bool
}

// Scoped pushes message to the store in the context, and returns a handle which
// removes it on release.
//
//	for _, item := range items {
//	    h := panicctx.Scoped(ctx, "item: "+item)
//	    process(item)
//	    h.Release()
//	}
func Scoped(ctx context.Context, message string) *Handle {
	hooks.ensureInstalled()
	s := FromContext(ctx)
	return &Handle{
		store: s,
		id:    s.create(message, true),
	}
}

// Scopedf is equivalent to Scoped(ctx, fmt.Sprintf(format, args...)).
func Scopedf(ctx context.Context, format string, args ...any) *Handle {
	return Scoped(ctx, fmt.Sprintf(format, args...))
}

// Release removes the entry from the store. Subsequent calls are no-ops, as
// are calls on a nil handle.
//
// When a directly deferred Release is the first in its goroutine to observe a
// panic, it invokes the current hook before removing the entry. The panic then
// continues with its original value.
func (h *Handle) Release() {
	if h == nil || h.released {
		return
	}

	h.released = true

	var v any
	if !h.store.reporting() {
		v = recover()
	}
	release(h.store, h.id, v)
}

// UpdatableHandle owns a single entry in a store, whose text is a fixed prefix
// followed by a value that may be updated any number of times. The entry keeps
// its original position in the store regardless of updates.
//
// No entry exists until the first update. Like [Handle], the entry is removed
// on release, and Release should be deferred directly.
type UpdatableHandle struct {
	store    *Store
	id       uint64
	prefix   string
	released bool
}

// Updatable reserves a position in the store in the context, and returns a
// handle whose updates set the text at that position to prefix + value.
//
//	step := panicctx.Updatable(ctx, "step: ")
//	defer step.Release()
//	step.Update("calculate lengths")
//	...
//	step.Update("calculate signatures")
func Updatable(ctx context.Context, prefix string) *UpdatableHandle {
	hooks.ensureInstalled()
	s := FromContext(ctx)
	return &UpdatableHandle{
		store:  s,
		id:     s.create("", false),
		prefix: prefix,
	}
}

// Update sets the text of the entry to the prefix followed by value. Updates
// after release are ignored.
func (h *UpdatableHandle) Update(value string) {
	if h == nil || h.released {
		return
	}
	h.store.set(h.id, h.prefix+value)
}

// Updatef is equivalent to Update(fmt.Sprintf(format, args...)).
func (h *UpdatableHandle) Updatef(format string, args ...any) {
	if h == nil || h.released {
		return
	}
	h.Update(fmt.Sprintf(format, args...))
}

// Release removes the entry from the store, with the same semantics as
// [Handle.Release].
func (h *UpdatableHandle) Release() {
	if h == nil || h.released {
		return
	}

	h.released = true

	var v any
	if !h.store.reporting() {
		v = recover()
	}
	release(h.store, h.id, v)
}

// release removes the entry id from s. A non-nil v is a panic just recovered by
// the calling Release, which is reported while the entry is still live, and
// then continued with the same value. recover must be called by Release
// itself, because it only works when called directly by a deferred function.
func release(s *Store, id uint64, v any) {
	pcdebug.Entries.Release.Add(1)

	if v != nil {
		hooks.terminate(s, v)
		s.remove(id)
		panic(v)
	}

	s.remove(id)
}

// Within pushes message to the store in the context, calls fn, and releases the
// entry when fn returns. It's the closure-scoped form of Scoped, useful in loop
// bodies where a deferred Release would otherwise wait for the enclosing
// function to return.
func Within(ctx context.Context, message string, fn func()) {
	defer Scoped(ctx, message).Release()
	fn()
}

// Debugf is like Scopedf, but only records the entry in binaries built with
// the panicctx_debug tag. Otherwise it returns a nil handle, whose Release is a
// no-op, and the message is never formatted.
func Debugf(ctx context.Context, format string, args ...any) *Handle {
	if !debugEnabled {
		return nil
	}
	return Scopedf(ctx, format, args...)
}
