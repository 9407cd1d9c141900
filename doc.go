// Package panicctx records what a goroutine is doing, cheaply and silently, and
// prints that record only if the goroutine panics.
//
// When a program panics, the runtime prints a stack trace. If the panic occurs
// inside a loop, the trace doesn't say which iteration was the cause. Logging
// every iteration answers the question, but it's slow and noisy, when only the
// last few messages matter.
//
// Instead, push context entries to a [Store] carried in the context. Entries
// are plain strings, aren't written anywhere, and are removed when their
// [Handle] is released. If the goroutine panics, the entries that are live at
// that moment are written to standard error, oldest first, followed by the
// usual panic report.
//
//	func main() {
//	    panicctx.Run(context.Background(), func(ctx context.Context) {
//	        step := panicctx.Updatable(ctx, "step: ")
//	        defer step.Release()
//
//	        step.Update("calculate lengths")
//	        for _, item := range items {
//	            h := panicctx.Scopedf(ctx, "item: %s", item)
//	            getLen(item)
//	            h.Release()
//	        }
//
//	        step.Update("calculate signatures")
//	        for _, item := range items {
//	            h := panicctx.Scopedf(ctx, "item: %s", item)
//	            calcSig(item)
//	            h.Release()
//	        }
//	    })
//	}
//
// When calcSig panics, standard error receives
//
//	Panic context:
//	step: calculate signatures
//	item: yo
//	panic: runtime error: slice bounds out of range [3:2] [recovered]
//	...
//
// A store belongs to a single goroutine, and isn't safe for concurrent use.
// Each goroutine should get its own store, via [Run], [Go], or [NewContext].
//
// Panics are observed by deferred calls, so at least one of them must be in
// place: a directly deferred [Handle.Release], or [Recover]. The first one
// to observe a panic invokes the process-wide [Hook], which dumps the entries
// and then calls whatever hook was installed before it. The panic then
// continues unchanged.
package panicctx
