package conductor

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Iron-Ham/conductor/internal/capture"
	"github.com/Iron-Ham/conductor/internal/classify"
	cerrors "github.com/Iron-Ham/conductor/internal/errors"
	"github.com/Iron-Ham/conductor/internal/event"
)

// safeBuffer is a bytes.Buffer safe for concurrent use.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type collector struct {
	mu     sync.Mutex
	events []event.Event
}

func (c *collector) handle(e event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func (c *collector) at(i int) event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events[i]
}

func manualOptions() Options {
	opts := DefaultOptions()
	opts.AutoPoll = false
	return opts
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if !opts.AutoPoll || !opts.Redirect || opts.NotifyUnrecognized {
		t.Errorf("unexpected switches: %+v", opts)
	}
	if opts.PollInterval != 10*time.Millisecond {
		t.Errorf("PollInterval = %v, want 10ms", opts.PollInterval)
	}
	if opts.ShutdownTimeout != time.Second {
		t.Errorf("ShutdownTimeout = %v, want 1s", opts.ShutdownTimeout)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("DefaultOptions().Validate() = %v", err)
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		cause  error
	}{
		{"zero poll interval", func(o *Options) { o.PollInterval = 0 }, cerrors.ErrInvalidInterval},
		{"negative poll interval", func(o *Options) { o.PollInterval = -time.Millisecond }, cerrors.ErrInvalidInterval},
		{"zero shutdown timeout", func(o *Options) { o.ShutdownTimeout = 0 }, cerrors.ErrInvalidTimeout},
		{"bad newline", func(o *Options) { o.Newline = "\r" }, cerrors.ErrInvalidNewline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if !errors.Is(err, tt.cause) {
				t.Errorf("Validate() = %v, want cause %v", err, tt.cause)
			}
			if !errors.Is(err, cerrors.ErrInvalidInput) {
				t.Error("Validate() error should be a validation error")
			}
		})
	}
}

func TestNew_ConfigErrorLeavesDestinationAlone(t *testing.T) {
	var original bytes.Buffer
	console := capture.NewConsole(&original)

	opts := DefaultOptions()
	opts.PollInterval = 0

	c, err := New(console, opts)
	if err == nil {
		c.Close()
		t.Fatal("New() should reject a zero poll interval")
	}
	if console.Out() != &original {
		t.Error("destination must be untouched after a configuration error")
	}
}

func TestNew_NilDestination(t *testing.T) {
	_, err := New(nil, DefaultOptions())
	if !errors.Is(err, cerrors.ErrNilDestination) {
		t.Errorf("New(nil) = %v, want ErrNilDestination", err)
	}
}

// Scenario A: one manual poll publishes exactly one BellOn event.
func TestChecker_PollPublishesRecognized(t *testing.T) {
	var original bytes.Buffer
	console := capture.NewConsole(&original)

	c, err := New(console, manualOptions())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer c.Close()

	col := &collector{}
	c.Subscribe(event.Observe(col.handle))

	_, _ = console.WriteString("発車ベル: ON\n")
	if err := c.Poll(); err != nil {
		t.Fatalf("Poll() error: %v", err)
	}

	if col.len() != 1 {
		t.Fatalf("expected 1 event, got %d", col.len())
	}
	e := col.at(0)
	if e.Category != classify.BellOn {
		t.Errorf("Category = %v, want BellOn", e.Category)
	}
	if e.Raw != "発車ベル: ON\n" {
		t.Errorf("Raw = %q", e.Raw)
	}
}

// Scenario B: unrecognized text is published only when enabled.
func TestChecker_UnrecognizedNotification(t *testing.T) {
	console := capture.NewConsole(io.Discard)
	c, err := New(console, manualOptions())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer c.Close()

	col := &collector{}
	c.Subscribe(event.Observe(col.handle))

	_, _ = console.WriteString("unknown text\n")
	_ = c.Poll()
	if col.len() != 0 {
		t.Fatalf("expected no events with notification off, got %d", col.len())
	}

	c.SetNotifyUnrecognized(true)
	_, _ = console.WriteString("unknown text\n")
	_ = c.Poll()
	if col.len() != 1 {
		t.Fatalf("expected 1 event with notification on, got %d", col.len())
	}
	if col.at(0).Category != classify.Unrecognized {
		t.Errorf("Category = %v, want Unrecognized", col.at(0).Category)
	}
}

// Scenario C: redirect forwards verbatim after subscribers have run.
func TestChecker_RedirectAfterPublish(t *testing.T) {
	original := &safeBuffer{}
	console := capture.NewConsole(original)

	c, err := New(console, manualOptions())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer c.Close()

	var seenAtPublish string
	c.Subscribe(event.Observe(func(event.Event) {
		seenAtPublish = original.String()
	}))

	_, _ = console.WriteString("発車ベル: ON\n")
	_ = c.Poll()

	if seenAtPublish != "" {
		t.Errorf("text reached the original destination before publish: %q", seenAtPublish)
	}
	if original.String() != "発車ベル: ON\n" {
		t.Errorf("forwarded %q, want verbatim text", original.String())
	}

	c.SetRedirect(false)
	_, _ = console.WriteString("側灯滅\n")
	_ = c.Poll()
	if original.String() != "発車ベル: ON\n" {
		t.Errorf("redirect off should not forward, got %q", original.String())
	}
}

// Scenario D: after Close, output goes only to the original destination.
func TestChecker_CloseRestores(t *testing.T) {
	original := &safeBuffer{}
	console := capture.NewConsole(original)

	c, err := New(console, DefaultOptions())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	col := &collector{}
	c.Subscribe(event.Observe(col.handle))

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if c.State() != StateStopped {
		t.Errorf("State() = %v, want stopped", c.State())
	}
	if console.Out() != original {
		t.Fatal("Close should restore the original destination")
	}

	_, _ = console.WriteString("発車ベル: ON\n")
	time.Sleep(30 * time.Millisecond)

	if col.len() != 0 {
		t.Errorf("events published after Close: %d", col.len())
	}
	if original.String() != "発車ベル: ON\n" {
		t.Errorf("original destination got %q", original.String())
	}
	if !errors.Is(c.Poll(), cerrors.ErrClosed) {
		t.Error("Poll after Close should return ErrClosed")
	}
}

func TestChecker_CloseIdempotent(t *testing.T) {
	console := capture.NewConsole(io.Discard)
	c, err := New(console, DefaultOptions())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := c.Close(); err != nil {
			t.Errorf("Close() #%d = %v", i, err)
		}
	}
}

func TestChecker_AutoPoll(t *testing.T) {
	original := &safeBuffer{}
	console := capture.NewConsole(original)

	opts := DefaultOptions()
	opts.PollInterval = time.Millisecond
	c, err := New(console, opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer c.Close()

	col := &collector{}
	c.Subscribe(event.Observe(col.handle))

	phrases := []string{"車掌スイッチ: 開\n", "車掌スイッチ: 閉\n"}
	for i, p := range phrases {
		_, _ = console.WriteString(p)
		waitFor(t, func() bool { return col.len() == i+1 })
	}

	if col.at(0).Category != classify.DoorOpen || col.at(1).Category != classify.DoorClose {
		t.Errorf("events out of order: %v, %v", col.at(0).Category, col.at(1).Category)
	}
	waitFor(t, func() bool { return original.String() == "車掌スイッチ: 開\n車掌スイッチ: 閉\n" })
}

func TestChecker_SubscriberFault(t *testing.T) {
	original := &safeBuffer{}
	console := capture.NewConsole(original)

	opts := DefaultOptions()
	opts.PollInterval = time.Millisecond
	c, err := New(console, opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer c.Close()

	boom := errors.New("boom")
	c.SubscribeCategory(classify.SideLightOff, func(event.Event) error { return boom })

	_, _ = console.WriteString("側灯滅\n")
	waitFor(t, func() bool { return c.State() == StateFaulted })

	if !errors.Is(c.Err(), boom) {
		t.Errorf("Err() = %v, want it to wrap boom", c.Err())
	}
	var merr *cerrors.MonitorError
	if !errors.As(c.Err(), &merr) {
		t.Errorf("Err() type = %T, want *MonitorError", c.Err())
	}
	if original.String() != "" {
		t.Errorf("faulted batch forwarded: %q", original.String())
	}
}

func TestChecker_CloseTimeoutStillRestores(t *testing.T) {
	original := &safeBuffer{}
	console := capture.NewConsole(original)

	opts := DefaultOptions()
	opts.PollInterval = time.Millisecond
	opts.ShutdownTimeout = 20 * time.Millisecond
	c, err := New(console, opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	c.Subscribe(event.Observe(func(event.Event) {
		close(entered)
		<-release
	}))

	_, _ = console.WriteString("発車ベル: ON\n")
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never ran")
	}

	start := time.Now()
	_ = c.Close()
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Close took %v despite a 20ms timeout", elapsed)
	}
	if console.Out() != original {
		t.Error("Close should restore the destination after a timeout")
	}
	close(release)
}

func TestChecker_CloseWaitsForManualPoll(t *testing.T) {
	original := &safeBuffer{}
	console := capture.NewConsole(original)

	opts := manualOptions()
	opts.ShutdownTimeout = 2 * time.Second
	c, err := New(console, opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	c.Subscribe(event.Observe(func(event.Event) {
		close(entered)
		<-release
	}))

	var closed atomic.Bool
	var late atomic.Int32
	c.Subscribe(event.Observe(func(event.Event) {
		if closed.Load() {
			late.Add(1)
		}
	}))

	_, _ = console.WriteString("発車ベル: ON\n")
	pollErr := make(chan error, 1)
	go func() { pollErr <- c.Poll() }()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never ran")
	}

	closeDone := make(chan struct{})
	go func() {
		_ = c.Close()
		closed.Store(true)
		close(closeDone)
	}()

	select {
	case <-closeDone:
		t.Fatal("Close returned while a poll was still publishing")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-closeDone

	if err := <-pollErr; err != nil {
		t.Errorf("Poll() error: %v", err)
	}
	if n := late.Load(); n != 0 {
		t.Errorf("handler invocations after Close returned: %d", n)
	}
	if console.Out() != original {
		t.Error("Close should restore the destination")
	}
	if !errors.Is(c.Poll(), cerrors.ErrClosed) {
		t.Error("Poll after Close should return ErrClosed")
	}
}

func TestChecker_SetPollInterval(t *testing.T) {
	c, err := New(capture.NewConsole(io.Discard), manualOptions())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer func() { _ = c.Close() }()

	if err := c.SetPollInterval(50 * time.Millisecond); err != nil {
		t.Fatalf("SetPollInterval() error: %v", err)
	}
	if got := c.PollInterval(); got != 50*time.Millisecond {
		t.Errorf("PollInterval() = %v, want 50ms", got)
	}

	err = c.SetPollInterval(0)
	if !errors.Is(err, cerrors.ErrInvalidInterval) {
		t.Errorf("SetPollInterval(0) error = %v, want ErrInvalidInterval", err)
	}
	if got := c.PollInterval(); got != 50*time.Millisecond {
		t.Errorf("rejected interval changed PollInterval() to %v", got)
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateRunning:  "running",
		StateFaulted:  "faulted",
		StateStopping: "stopping",
		StateStopped:  "stopped",
		State(42):     "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
