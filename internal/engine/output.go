package engine

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
)

// systemName labels lines emitted by the engine itself.
const systemName = "system"

// multiplexer serializes the output of all instances onto one writer,
// prefixing each line with a timestamp and the instance name padded to a
// common width:
//
//	14:02:11 web.1    | listening on 5000
//	14:02:11 worker.1 | ready
type multiplexer struct {
	mu    sync.Mutex
	out   io.Writer
	now   func() time.Time
	width int
}

func newMultiplexer(out io.Writer, now func() time.Time, plan []instance) *multiplexer {
	width := len(systemName)
	for _, inst := range plan {
		if n := len(inst.name()); n > width {
			width = n
		}
	}
	return &multiplexer{out: out, now: now, width: width}
}

func (m *multiplexer) line(name string, text []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, _ = fmt.Fprintf(m.out, "%s %-*s | %s\n", m.now().Format("15:04:05"), m.width, name, text)
}

// system writes an engine message.
func (m *multiplexer) system(format string, args ...any) {
	m.line(systemName, []byte(fmt.Sprintf(format, args...)))
}

func (m *multiplexer) writer(name string) *prefixWriter {
	return &prefixWriter{mux: m, name: name}
}

// prefixWriter buffers partial lines from one instance and forwards
// complete lines to the multiplexer.
type prefixWriter struct {
	mux  *multiplexer
	name string

	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *prefixWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimRight(w.buf.Next(i+1), "\r\n")
		w.mux.line(w.name, line)
	}
	return len(p), nil
}

// Flush emits any trailing output that did not end in a newline.
func (w *prefixWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.mux.line(w.name, w.buf.Bytes())
		w.buf.Reset()
	}
}
