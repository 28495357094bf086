// Package errors defines the error values conductor returns.
//
// Sentinels identify conditions callers branch on (a closed checker, a
// closed sink, invalid settings). Typed errors carry context:
//
//   - SubscriberError: a handler failed while an event was being published
//   - MonitorError: the fault that ended a background monitor loop
//   - ValidationError: an invalid option or configuration value
//   - TimeoutError: a bounded wait expired
//
// A phrase that matches nothing is not an error anywhere in conductor; it is
// classified as Unrecognized.
//
//	err := errors.NewValidationError("must be positive").
//	    WithField("monitor.poll_interval_ms").
//	    WithValue(0).
//	    WithCause(errors.ErrInvalidInterval)
//
//	errors.Is(err, errors.ErrInvalidInput)    // true
//	errors.Is(err, errors.ErrInvalidInterval) // true
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-exported so callers need only this package.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Lifecycle and capture.
var (
	// ErrClosed is returned by operations on a checker after Close.
	ErrClosed = New("checker closed")
	// ErrSinkClosed is returned by writes to a released capture sink.
	ErrSinkClosed = New("capture sink closed")
	// ErrAlreadyRunning is returned when a monitor loop is started twice.
	ErrAlreadyRunning = New("monitor already running")
	// ErrNilDestination is the cause when a checker is built without a destination.
	ErrNilDestination = New("output destination is nil")
)

// Configuration.
var (
	// ErrInvalidInterval is the cause for a non-positive polling interval.
	ErrInvalidInterval = New("polling interval must be positive")
	// ErrInvalidTimeout is the cause for a non-positive shutdown timeout.
	ErrInvalidTimeout = New("shutdown timeout must be positive")
	// ErrInvalidNewline is the cause for an unsupported line terminator.
	ErrInvalidNewline = New("unsupported line terminator")
	// ErrUnknownCategory is returned for a category name that does not exist.
	ErrUnknownCategory = New("unknown event category")
)

// Matched by the typed errors below.
var (
	// ErrTimeout matches every *TimeoutError.
	ErrTimeout = New("operation timed out")
	// ErrInvalidInput matches every *ValidationError.
	ErrInvalidInput = New("invalid input")
)

// describe renders "kind [k=v, ...]" skipping empty values.
func describe(kind string, kv ...string) string {
	var parts []string
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			parts = append(parts, kv[i]+"="+kv[i+1])
		}
	}
	if len(parts) == 0 {
		return kind
	}
	return fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
}

// withCause appends ": cause" when cause is set.
func withCause(msg string, cause error) string {
	if cause == nil {
		return msg
	}
	return msg + ": " + cause.Error()
}

// SubscriberError reports a handler that failed during Publish. Handlers
// registered after it did not receive the event.
type SubscriberError struct {
	SubscriptionID string
	EventType      string
	Err            error
}

// NewSubscriberError wraps the handler's error.
func NewSubscriberError(subscriptionID, eventType string, cause error) *SubscriberError {
	return &SubscriberError{SubscriptionID: subscriptionID, EventType: eventType, Err: cause}
}

func (e *SubscriberError) Error() string {
	prefix := describe("subscriber error", "subscription", e.SubscriptionID, "event", e.EventType)
	return withCause(prefix+": handler failed", e.Err)
}

func (e *SubscriberError) Unwrap() error { return e.Err }

// MonitorError reports the fault that ended a monitor loop after Cycle
// non-empty batches.
type MonitorError struct {
	Cycle uint64
	Err   error
}

// NewMonitorError records the cycle count at the time of the fault.
func NewMonitorError(cycle uint64, cause error) *MonitorError {
	return &MonitorError{Cycle: cycle, Err: cause}
}

func (e *MonitorError) Error() string {
	return withCause(fmt.Sprintf("monitor error [cycle=%d]: monitor loop stopped", e.Cycle), e.Err)
}

func (e *MonitorError) Unwrap() error { return e.Err }

// ValidationError reports an invalid option or configuration value. It
// matches ErrInvalidInput and, through Unwrap, its cause.
type ValidationError struct {
	Field   string
	Value   any
	Message string
	Err     error
}

// NewValidationError starts a validation error; chain the With* methods to
// add context.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// WithField names the invalid field.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue records the rejected value.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause sets the sentinel or error the failure unwraps to.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.Err = cause
	return e
}

func (e *ValidationError) Error() string {
	value := ""
	if e.Value != nil {
		value = fmt.Sprint(e.Value)
	}
	prefix := describe("validation error", "field", e.Field, "value", value)
	return withCause(prefix+": "+e.Message, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is matches ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// TimeoutError reports that waiting for Operation gave up after Duration.
type TimeoutError struct {
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{Operation: operation, Duration: duration}
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
}

// Is matches ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
