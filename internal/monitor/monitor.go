package monitor

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/conductor/internal/capture"
	"github.com/Iron-Ham/conductor/internal/classify"
	"github.com/Iron-Ham/conductor/internal/errors"
	"github.com/Iron-Ham/conductor/internal/event"
	"github.com/Iron-Ham/conductor/internal/logging"
)

// Publisher delivers an event to subscribers and returns once they have all
// run. *event.Notifier implements it.
type Publisher interface {
	Publish(event.Event) error
}

// Monitor drains a capture sink, classifies each batch, publishes it and
// optionally forwards the raw text to the original destination.
type Monitor struct {
	sink       *capture.Sink
	classifier classify.Classifier
	publisher  Publisher
	forward    io.Writer

	pollInterval       atomic.Int64
	redirect           atomic.Bool
	notifyUnrecognized atomic.Bool

	logger   *logging.Logger
	observer Observer

	// cycleMu serializes cycles so batches are published in drain order
	// even when manual polling overlaps the loop.
	cycleMu sync.Mutex
	cycles  atomic.Uint64

	running       atomic.Bool
	stopRequested atomic.Bool
	stopOnce      sync.Once
	stopCh        chan struct{}
	doneCh        chan struct{}

	errMu sync.Mutex
	err   error
}

// New creates a monitor. forward receives drained text when redirect is on;
// a nil forward discards it. A non-positive PollInterval falls back to
// DefaultPollInterval; callers that need to reject it validate first.
func New(sink *capture.Sink, classifier classify.Classifier, publisher Publisher, forward io.Writer, cfg Config, opts ...Option) *Monitor {
	if forward == nil {
		forward = io.Discard
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	m := &Monitor{
		sink:       sink,
		classifier: classifier,
		publisher:  publisher,
		forward:    forward,
		logger:     logging.NopLogger(),
		observer:   nopObserver{},
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	m.pollInterval.Store(int64(cfg.PollInterval))
	m.redirect.Store(cfg.Redirect)
	m.notifyUnrecognized.Store(cfg.NotifyUnrecognized)

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetPollInterval changes the sleep between cycles. It takes effect after
// the current sleep. Non-positive values are ignored.
func (m *Monitor) SetPollInterval(d time.Duration) {
	if d > 0 {
		m.pollInterval.Store(int64(d))
	}
}

// PollInterval returns the sleep between cycles.
func (m *Monitor) PollInterval() time.Duration {
	return time.Duration(m.pollInterval.Load())
}

// SetRedirect turns forwarding on or off. Takes effect from the next cycle.
func (m *Monitor) SetRedirect(on bool) { m.redirect.Store(on) }

// Redirect reports whether forwarding is on.
func (m *Monitor) Redirect() bool { return m.redirect.Load() }

// SetNotifyUnrecognized controls whether unmatched batches are published.
func (m *Monitor) SetNotifyUnrecognized(on bool) { m.notifyUnrecognized.Store(on) }

// NotifyUnrecognized reports whether unmatched batches are published.
func (m *Monitor) NotifyUnrecognized() bool { return m.notifyUnrecognized.Load() }

// Cycles returns the number of non-empty batches processed so far.
func (m *Monitor) Cycles() uint64 { return m.cycles.Load() }

// Cycle runs one iteration: drain, classify, publish, forward. It reports
// whether a batch was processed. A subscriber error is returned before the
// batch is forwarded; the batch has already been drained and is not retried.
//
// Handlers must not call Cycle on the same monitor.
func (m *Monitor) Cycle() (bool, error) {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	if !m.sink.HasPending() {
		return false, nil
	}

	raw := m.sink.Drain()
	if raw == "" {
		return false, nil
	}
	n := m.cycles.Add(1)

	key := classify.Normalize(raw, m.sink.Newline())
	category := m.classifier.Classify(key)
	m.observer.ObserveDrain(category, len(raw))
	m.logger.Debug("drained", "cycle", n, "bytes", len(raw), "category", category.String())

	if category.IsRecognized() || m.notifyUnrecognized.Load() {
		if err := m.publisher.Publish(event.New(category, raw)); err != nil {
			return true, err
		}
		m.observer.ObservePublish(category)
	}

	if m.redirect.Load() {
		written, err := io.WriteString(m.forward, raw)
		if err != nil {
			m.logger.Warn("forwarding drained output failed", "cycle", n, "error", err)
		}
		m.observer.ObserveForward(written)
	}

	return true, nil
}

// Run loops until Stop is called or a subscriber fails. It returns nil after
// a requested stop, or the *errors.MonitorError that ended the loop.
func (m *Monitor) Run() error {
	if !m.running.CompareAndSwap(false, true) {
		return errors.ErrAlreadyRunning
	}
	defer close(m.doneCh)

	m.logger.Info("monitor started", "poll_interval", m.PollInterval().String())

	timer := time.NewTimer(m.PollInterval())
	defer timer.Stop()

	for {
		if m.stopRequested.Load() {
			m.logger.Info("monitor stopped", "cycles", m.cycles.Load())
			return nil
		}

		if _, err := m.Cycle(); err != nil {
			merr := errors.NewMonitorError(m.cycles.Load(), err)
			m.setErr(merr)
			m.observer.ObserveFault(err)
			m.logger.Error("subscriber failed, monitor loop ending", "error", err)
			return merr
		}

		timer.Reset(m.PollInterval())
		select {
		case <-m.stopCh:
		case <-timer.C:
		}
	}
}

// Start runs the loop in a new goroutine.
func (m *Monitor) Start() {
	go func() { _ = m.Run() }()
}

// Stop asks the loop to exit at the start of its next cycle and wakes it if
// it is sleeping. It does not wait; use Done for that. Stop is idempotent.
func (m *Monitor) Stop() {
	m.stopRequested.Store(true)
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Done is closed when Run returns. It never closes if Run was not called.
func (m *Monitor) Done() <-chan struct{} {
	return m.doneCh
}

// Running reports whether Run has been called.
func (m *Monitor) Running() bool {
	return m.running.Load()
}

// Err returns the fault that ended the loop, or nil.
func (m *Monitor) Err() error {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.err
}

func (m *Monitor) setErr(err error) {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	m.err = err
}
