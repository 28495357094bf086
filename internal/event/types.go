package event

import (
	"time"

	"github.com/Iron-Ham/conductor/internal/classify"
)

// TypePrefix prefixes every event type string.
const TypePrefix = "conductor."

// Event is one classified drain of simulator output.
type Event struct {
	// Category is the classification of the whole drained batch.
	Category classify.Category `json:"category"`
	// Raw is the drained text exactly as the simulator wrote it,
	// terminators included.
	Raw string `json:"raw"`
	// Time is when the batch was drained.
	Time time.Time `json:"time"`
}

// New creates an event stamped with the current time.
func New(category classify.Category, raw string) Event {
	return Event{
		Category: category,
		Raw:      raw,
		Time:     time.Now(),
	}
}

// EventType returns "conductor.<category>", e.g. "conductor.bell_on".
func (e Event) EventType() string {
	return TypePrefix + e.Category.String()
}

// Timestamp returns when the event occurred.
func (e Event) Timestamp() time.Time { return e.Time }
