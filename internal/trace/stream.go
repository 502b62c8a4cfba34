package trace

import (
	"io"
	"sync"
)

// chromeFrame writes the array framing of the Chrome trace_event format
// around individually formatted events.
type chromeFrame struct {
	w     io.Writer
	count int
}

func (c *chromeFrame) open() error {
	_, err := io.WriteString(c.w, "{\"traceEvents\":[\n")
	return err
}

func (c *chromeFrame) event(data []byte) error {
	if c.count > 0 {
		if _, err := io.WriteString(c.w, ",\n"); err != nil {
			return err
		}
	}
	c.count++
	_, err := c.w.Write(data)
	return err
}

func (c *chromeFrame) close() error {
	_, err := io.WriteString(c.w, "\n]}\n")
	return err
}

// StreamTracer writes each admitted event as soon as it arrives. Write
// errors are dropped; tracing never fails a compilation.
type StreamTracer struct {
	mu     sync.Mutex
	w      io.Writer
	level  Level
	format Format
	chrome *chromeFrame
}

// NewStreamTracer writes to w in format; FormatChrome output is a complete
// JSON document once Close is called.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	t := &StreamTracer{w: w, level: level, format: format}
	if format == FormatChrome {
		t.chrome = &chromeFrame{w: w}
		_ = t.chrome.open()
	}
	return t
}

func (t *StreamTracer) Emit(ev *Event) {
	if !admits(t.level, ev) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	ev.Seq = nextSeq()
	data := FormatEvent(ev, t.format)
	if t.chrome != nil {
		_ = t.chrome.event(data)
		return
	}
	_, _ = t.w.Write(data)
}

func (t *StreamTracer) Flush() error {
	if f, ok := t.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close finishes the Chrome document and closes w when it is a Closer.
func (t *StreamTracer) Close() error {
	t.mu.Lock()
	if t.chrome != nil {
		_ = t.chrome.close()
		t.chrome = nil
	}
	t.mu.Unlock()
	if err := t.Flush(); err != nil {
		return err
	}
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *StreamTracer) Level() Level  { return t.level }
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
