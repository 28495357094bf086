package conductor

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/Iron-Ham/conductor/internal/capture"
	"github.com/Iron-Ham/conductor/internal/classify"
	"github.com/Iron-Ham/conductor/internal/errors"
	"github.com/Iron-Ham/conductor/internal/event"
	"github.com/Iron-Ham/conductor/internal/logging"
	"github.com/Iron-Ham/conductor/internal/monitor"
)

// State represents the lifecycle state of a Checker.
type State int

const (
	// StateRunning indicates output is being captured.
	StateRunning State = iota

	// StateFaulted indicates the monitor loop ended on a subscriber error.
	// Output is still captured until Close.
	StateFaulted

	// StateStopping indicates Close is in progress.
	StateStopping

	// StateStopped indicates the original destination has been restored.
	StateStopped
)

// String returns a human-readable string for the state.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateFaulted:
		return "faulted"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Checker owns one capture session: it swaps a Destination's output for a
// capture sink, runs the monitor and restores the original output on Close.
type Checker struct {
	dest     capture.Destination
	original io.Writer
	sink     *capture.Sink
	notifier *event.Notifier
	monitor  *monitor.Monitor

	autoPoll        bool
	shutdownTimeout time.Duration
	logger          *logging.Logger

	mu        sync.RWMutex
	state     State
	polls     sync.WaitGroup
	closeOnce sync.Once
}

// New validates opts, installs a capture sink on dest and, if AutoPoll is
// set, starts the monitor loop. The caller must Close the checker to restore
// dest's original output.
func New(dest capture.Destination, opts Options) (*Checker, error) {
	if dest == nil {
		return nil, errors.NewValidationError("is required").
			WithField("destination").
			WithCause(errors.ErrNilDestination)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = classify.NewClassifier(nil)
	}

	c := &Checker{
		dest:            dest,
		original:        dest.Out(),
		sink:            capture.NewSink(opts.Newline),
		notifier:        event.NewNotifier(),
		autoPoll:        opts.AutoPoll,
		shutdownTimeout: opts.ShutdownTimeout,
		logger:          logger.WithComponent("checker"),
		state:           StateRunning,
	}
	c.monitor = monitor.New(c.sink, classifier, c.notifier, c.original, opts.monitorConfig(),
		monitor.WithLogger(logger),
		monitor.WithObserver(opts.Observer),
	)

	dest.SetOut(c.sink)

	if c.autoPoll {
		go c.run()
	}

	c.logger.Info("capture installed",
		"auto_poll", opts.AutoPoll,
		"redirect", opts.Redirect,
		"notify_unrecognized", opts.NotifyUnrecognized,
		"poll_interval", opts.PollInterval.String(),
	)
	return c, nil
}

func (c *Checker) run() {
	if err := c.monitor.Run(); err != nil {
		c.mu.Lock()
		if c.state == StateRunning {
			c.state = StateFaulted
		}
		c.mu.Unlock()
	}
}

// Subscribe registers a handler for every published event.
func (c *Checker) Subscribe(h event.Handler) string {
	return c.notifier.Subscribe(h)
}

// SubscribeCategory registers a handler for one category.
func (c *Checker) SubscribeCategory(category classify.Category, h event.Handler) string {
	return c.notifier.SubscribeCategory(category, h)
}

// Unsubscribe removes a subscription by ID.
func (c *Checker) Unsubscribe(id string) bool {
	return c.notifier.Unsubscribe(id)
}

// SetRedirect turns forwarding to the original destination on or off.
func (c *Checker) SetRedirect(on bool) {
	c.monitor.SetRedirect(on)
}

// SetNotifyUnrecognized controls whether unmatched output is published.
func (c *Checker) SetNotifyUnrecognized(on bool) {
	c.monitor.SetNotifyUnrecognized(on)
}

// Poll runs one monitor cycle on the calling goroutine. It is intended for
// checkers created with AutoPoll off. It returns ErrClosed once Close has
// started, or the subscriber error that ended the cycle.
func (c *Checker) Poll() error {
	c.mu.RLock()
	if c.state == StateStopping || c.state == StateStopped {
		c.mu.RUnlock()
		return errors.ErrClosed
	}
	// Registered under the read lock so Close either sees this poll or
	// rejects it.
	c.polls.Add(1)
	c.mu.RUnlock()
	defer c.polls.Done()

	_, err := c.monitor.Cycle()
	return err
}

// SetPollInterval changes the background loop's sleep between cycles. It
// takes effect after the current sleep.
func (c *Checker) SetPollInterval(d time.Duration) error {
	if d <= 0 {
		return errors.NewValidationError("must be positive").
			WithField("poll_interval").
			WithValue(d).
			WithCause(errors.ErrInvalidInterval)
	}
	c.monitor.SetPollInterval(d)
	return nil
}

// PollInterval returns the background loop's current sleep between cycles.
func (c *Checker) PollInterval() time.Duration {
	return c.monitor.PollInterval()
}

// State returns the current lifecycle state.
func (c *Checker) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Err returns the *errors.MonitorError that ended the background loop, or nil.
func (c *Checker) Err() error {
	return c.monitor.Err()
}

// Close stops the monitor and waits up to the shutdown timeout for the loop
// and any in-flight Poll to finish. It then restores the original
// destination and releases the sink. Restoration happens even if the wait
// times out. Close is idempotent and always returns nil.
func (c *Checker) Close() error {
	c.closeOnce.Do(func() {
		c.setState(StateStopping)
		c.monitor.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
		defer cancel()

		if c.monitor.Running() {
			c.await(ctx, c.monitor.Done(), "waiting for monitor to stop")
		}
		polled := make(chan struct{})
		go func() {
			c.polls.Wait()
			close(polled)
		}()
		c.await(ctx, polled, "waiting for manual poll to finish")

		c.dest.SetOut(c.original)
		if pending := c.sink.Len(); pending > 0 {
			c.logger.Debug("discarding undrained output", "bytes", pending)
		}
		_ = c.sink.Close()

		c.setState(StateStopped)
		c.logger.Info("capture removed", "cycles", c.monitor.Cycles())
	})
	return nil
}

func (c *Checker) await(ctx context.Context, done <-chan struct{}, op string) {
	select {
	case <-done:
	case <-ctx.Done():
		c.logger.Warn("shutdown wait expired, restoring output anyway",
			"error", errors.NewTimeoutError(op, c.shutdownTimeout))
	}
}

func (c *Checker) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}
