package capture

import (
	"io"
	"os"
	"sync"
)

// Destination is a replaceable text output destination. It stands in for a
// process-wide stdout handle so that redirection is an explicit operation on
// a value owned by the caller rather than a mutation of global state.
type Destination interface {
	// Out returns the writer that currently receives output.
	Out() io.Writer

	// SetOut replaces the writer that receives output.
	SetOut(w io.Writer)
}

// Console is a [Destination] that is also an io.Writer. Producers write to
// the Console; whoever owns it decides where those writes land.
type Console struct {
	mu  sync.RWMutex
	out io.Writer
}

// NewConsole creates a Console writing to out. A nil out discards output.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = io.Discard
	}
	return &Console{out: out}
}

// Stdout creates a Console that initially writes to os.Stdout.
func Stdout() *Console {
	return NewConsole(os.Stdout)
}

// Out returns the current output writer.
func (c *Console) Out() io.Writer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.out
}

// SetOut replaces the output writer. It waits for in-flight writes to the
// previous writer to finish. A nil w discards output.
func (c *Console) SetOut(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = w
}

// Write writes p to the current output writer.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.out.Write(p)
}

// WriteString writes s to the current output writer.
func (c *Console) WriteString(s string) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return io.WriteString(c.out, s)
}
