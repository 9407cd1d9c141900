package panicctx

import (
	"context"
)

// Recover reports a panic in the goroutine that owns the store in the
// context, if no handle has reported it already. It must be deferred directly,
// typically as the first statement of a goroutine.
//
//	go func() {
//	    ctx, _ := panicctx.NewContext(ctx)
//	    defer panicctx.Recover(ctx)
//	    ...
//	}()
//
// Recover doesn't stop the panic. After the hook is invoked, the panic
// continues with its original value.
func Recover(ctx context.Context) {
	s, ok := MaybeFromContext(ctx)
	if ok && s.reporting() {
		return // already reported
	}

	v := recover()
	if v == nil {
		return
	}

	if !ok {
		s = FromContext(ctx)
	}

	hooks.terminate(s, v)
	panic(v)
}

// Run calls fn with a context containing a new store, and reports any panic
// that escapes fn via [Recover]. Entries in the store of the parent context
// aren't visible to fn's reports.
func Run(ctx context.Context, fn func(context.Context)) {
	ctx, _ = NewContext(ctx)
	defer Recover(ctx)
	fn(ctx)
}

// Go is equivalent to `go Run(ctx, fn)`.
func Go(ctx context.Context, fn func(context.Context)) {
	go Run(ctx, fn)
}
