package capture

import (
	"bytes"
	"sync"

	"github.com/Iron-Ham/conductor/internal/errors"
)

// DefaultNewline is the line terminator producers are assumed to write.
const DefaultNewline = "\n"

// Sink is an in-memory text destination that accumulates writes until they
// are drained.
//
// Unlike a bounded ring buffer, Sink never discards data: everything written
// between two Drain calls is returned by the second one. Memory is bounded by
// how often the buffer is drained, which is the monitor's polling interval.
//
// Sink implements io.Writer and io.StringWriter.
type Sink struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	newline string
	closed  bool
}

// NewSink creates an empty sink whose producer terminates lines with newline.
// An empty newline selects DefaultNewline.
func NewSink(newline string) *Sink {
	if newline == "" {
		newline = DefaultNewline
	}
	return &Sink{newline: newline}
}

// Write appends p to the buffer, implementing io.Writer.
//
// Write never blocks on a drain for longer than the drain's copy and accepts
// arbitrary bytes. Writes from a single goroutine are appended in call order.
// After Close, Write returns errors.ErrSinkClosed.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, errors.ErrSinkClosed
	}
	return s.buf.Write(p)
}

// WriteString appends str to the buffer, implementing io.StringWriter.
func (s *Sink) WriteString(str string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, errors.ErrSinkClosed
	}
	return s.buf.WriteString(str)
}

// HasPending reports whether any text is waiting to be drained.
func (s *Sink) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len() > 0
}

// Len returns the number of buffered bytes.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}

// Drain removes and returns all buffered text in one step.
// Draining an empty sink returns "" and changes nothing.
func (s *Sink) Drain() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buf.Len() == 0 {
		return ""
	}
	text := s.buf.String()
	s.buf.Reset()
	return text
}

// Newline returns the line terminator the sink's producer uses.
func (s *Sink) Newline() string {
	return s.newline
}

// Close discards any buffered text and rejects further writes.
// Close is idempotent.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.buf = bytes.Buffer{}
	return nil
}
