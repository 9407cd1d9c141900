package panicctx

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/peterbourgon/panicctx/internal/pcdebug"
)

const dumpHeader = "Panic context:\n"

// dump writes the header, and then every live entry in s on its own line, to
// w. The output is built up front and written with a single call, so it isn't
// interleaved with other writers to the same destination. Write errors, and
// panics from misbehaving writers, are discarded.
func dump(w io.Writer, s *Store) {
	defer func() { _ = recover() }()

	var buf bytes.Buffer
	buf.WriteString(dumpHeader)
	if s != nil {
		for text := range s.All() {
			buf.WriteString(text)
			buf.WriteByte('\n')
		}
	}

	pcdebug.DumpCount.Add(1)

	_, _ = w.Write(buf.Bytes())
}

// SetOutput sets the destination for dumped context. The default is os.Stderr.
// A nil writer discards dumped context.
func SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	diagnostics.set(w)
}

var diagnostics = &syncWriter{w: os.Stderr}

// syncWriter serializes writes to the underlying writer, which may be
// replaced at any time.
type syncWriter struct {
	mtx sync.Mutex
	w   io.Writer
}

func (sw *syncWriter) Write(p []byte) (int, error) {
	sw.mtx.Lock()
	defer sw.mtx.Unlock()

	return sw.w.Write(p)
}

func (sw *syncWriter) set(w io.Writer) {
	sw.mtx.Lock()
	defer sw.mtx.Unlock()

	sw.w = w
}
