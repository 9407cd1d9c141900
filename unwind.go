package panicctx

import (
	"runtime"
)

// panicFrame identifies an in-progress panic by the position of its
// runtime.gopanic frame, counted from the bottom of the goroutine's stack, and
// the program counter of the call that panicked. The frame stays on the stack
// for as long as the panic, or a panic raised by one of its deferred calls, is
// unwinding. Once the panic is recovered, the frame is gone.
type panicFrame struct {
	depth int
	pc    uintptr
}

// panicFrames returns every runtime.gopanic frame on the calling goroutine's
// stack, innermost first. It walks the whole stack, so it's only called on
// paths where a panic has already been reported.
func panicFrames() []panicFrame {
	pcs := make([]uintptr, 64)
	for {
		n := runtime.Callers(1, pcs)
		if n < len(pcs) {
			pcs = pcs[:n]
			break
		}
		pcs = make([]uintptr, 2*len(pcs))
	}

	var frames []runtime.Frame
	callers := runtime.CallersFrames(pcs)
	for {
		f, more := callers.Next()
		frames = append(frames, f)
		if !more {
			break
		}
	}

	var res []panicFrame
	for i, f := range frames {
		if f.Function != "runtime.gopanic" {
			continue
		}
		var pc uintptr
		if i+1 < len(frames) {
			pc = frames[i+1].PC
		}
		res = append(res, panicFrame{depth: len(frames) - i, pc: pc})
	}
	return res
}
