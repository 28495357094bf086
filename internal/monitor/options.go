package monitor

import (
	"time"

	"github.com/Iron-Ham/conductor/internal/classify"
	"github.com/Iron-Ham/conductor/internal/logging"
)

// DefaultPollInterval is how long the loop sleeps between cycles.
const DefaultPollInterval = 10 * time.Millisecond

// Config holds the monitor's behavior switches.
type Config struct {
	// PollInterval is the sleep between cycles. Must be positive.
	PollInterval time.Duration
	// Redirect forwards every drained batch to the original destination.
	Redirect bool
	// NotifyUnrecognized publishes batches that match no phrase.
	NotifyUnrecognized bool
}

// DefaultConfig returns the standard settings: redirect on, unrecognized
// batches not published, 10ms poll interval.
func DefaultConfig() Config {
	return Config{
		PollInterval:       DefaultPollInterval,
		Redirect:           true,
		NotifyUnrecognized: false,
	}
}

// Observer receives per-cycle measurements. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	// ObserveDrain is called once per non-empty drain.
	ObserveDrain(category classify.Category, bytes int)
	// ObservePublish is called after an event was delivered to every subscriber.
	ObservePublish(category classify.Category)
	// ObserveForward is called after a batch was forwarded.
	ObserveForward(bytes int)
	// ObserveFault is called when a subscriber fault ends the loop.
	ObserveFault(err error)
}

type nopObserver struct{}

func (nopObserver) ObserveDrain(classify.Category, int) {}
func (nopObserver) ObservePublish(classify.Category)    {}
func (nopObserver) ObserveForward(int)                  {}
func (nopObserver) ObserveFault(error)                  {}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger used for cycle diagnostics.
func WithLogger(logger *logging.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger.WithComponent("monitor")
		}
	}
}

// WithObserver attaches an Observer, typically a metrics recorder.
func WithObserver(o Observer) Option {
	return func(m *Monitor) {
		if o != nil {
			m.observer = o
		}
	}
}
