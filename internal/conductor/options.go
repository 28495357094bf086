package conductor

import (
	"time"

	"github.com/Iron-Ham/conductor/internal/capture"
	"github.com/Iron-Ham/conductor/internal/classify"
	"github.com/Iron-Ham/conductor/internal/errors"
	"github.com/Iron-Ham/conductor/internal/logging"
	"github.com/Iron-Ham/conductor/internal/monitor"
)

// DefaultShutdownTimeout bounds how long Close waits for the monitor loop.
const DefaultShutdownTimeout = 1000 * time.Millisecond

// Options configures a Checker.
type Options struct {
	// AutoPoll starts the background monitor loop. When false, call Poll.
	AutoPoll bool
	// Redirect forwards captured output to the original destination.
	Redirect bool
	// NotifyUnrecognized publishes batches that match no phrase.
	NotifyUnrecognized bool
	// PollInterval is the monitor's sleep between cycles. Must be positive.
	PollInterval time.Duration
	// ShutdownTimeout bounds the wait for the loop in Close. Must be positive.
	ShutdownTimeout time.Duration
	// Newline is the producer's line terminator, "\n" or "\r\n".
	// Empty means "\n".
	Newline string

	// Classifier overrides the default phrase table classifier.
	Classifier classify.Classifier
	// Logger receives lifecycle and cycle diagnostics. Nil discards them.
	Logger *logging.Logger
	// Observer receives per-cycle measurements, e.g. metrics.
	Observer monitor.Observer
}

// DefaultOptions returns auto-polling, redirecting options that ignore
// unrecognized output, with a 10ms poll interval and a 1s shutdown wait.
func DefaultOptions() Options {
	return Options{
		AutoPoll:           true,
		Redirect:           true,
		NotifyUnrecognized: false,
		PollInterval:       monitor.DefaultPollInterval,
		ShutdownTimeout:    DefaultShutdownTimeout,
		Newline:            capture.DefaultNewline,
	}
}

// Validate reports the first invalid option as an *errors.ValidationError.
func (o Options) Validate() error {
	if o.PollInterval <= 0 {
		return errors.NewValidationError("must be positive").
			WithField("poll_interval").
			WithValue(o.PollInterval).
			WithCause(errors.ErrInvalidInterval)
	}
	if o.ShutdownTimeout <= 0 {
		return errors.NewValidationError("must be positive").
			WithField("shutdown_timeout").
			WithValue(o.ShutdownTimeout).
			WithCause(errors.ErrInvalidTimeout)
	}
	switch o.Newline {
	case "", "\n", "\r\n":
	default:
		return errors.NewValidationError(`must be "\n" or "\r\n"`).
			WithField("newline").
			WithValue(o.Newline).
			WithCause(errors.ErrInvalidNewline)
	}
	return nil
}

func (o Options) monitorConfig() monitor.Config {
	return monitor.Config{
		PollInterval:       o.PollInterval,
		Redirect:           o.Redirect,
		NotifyUnrecognized: o.NotifyUnrecognized,
	}
}
