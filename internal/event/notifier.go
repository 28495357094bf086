package event

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Iron-Ham/conductor/internal/classify"
	"github.com/Iron-Ham/conductor/internal/errors"
)

// Handler handles an event. A non-nil error stops delivery of that event to
// the remaining handlers.
type Handler func(Event) error

// Observe adapts a callback that cannot fail into a Handler.
func Observe(fn func(Event)) Handler {
	return func(e Event) error {
		fn(e)
		return nil
	}
}

// subscription represents a registered event handler.
type subscription struct {
	id       string
	handler  Handler
	category classify.Category
	filtered bool
}

func (s subscription) wants(e Event) bool {
	return !s.filtered || s.category == e.Category
}

// Notifier is a synchronous, ordered event dispatcher. Handlers run on the
// publishing goroutine in the order they were registered.
type Notifier struct {
	mu            sync.RWMutex
	subscriptions []subscription
	nextID        atomic.Uint64
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers a handler for every event.
// Returns a subscription ID that can be used to unsubscribe.
func (n *Notifier) Subscribe(handler Handler) string {
	return n.add(subscription{handler: handler})
}

// SubscribeCategory registers a handler that only receives events of one
// category. It keeps its place in registration order relative to every
// other subscription.
func (n *Notifier) SubscribeCategory(category classify.Category, handler Handler) string {
	return n.add(subscription{handler: handler, category: category, filtered: true})
}

func (n *Notifier) add(sub subscription) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	sub.id = n.generateID()
	n.subscriptions = append(n.subscriptions, sub)
	return sub.id
}

// Unsubscribe removes a subscription by ID.
// Returns true if the subscription was found and removed.
func (n *Notifier) Unsubscribe(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, sub := range n.subscriptions {
		if sub.id == id {
			// Copy so snapshots held by in-flight publishes stay intact.
			next := make([]subscription, 0, len(n.subscriptions)-1)
			next = append(next, n.subscriptions[:i]...)
			n.subscriptions = append(next, n.subscriptions[i+1:]...)
			return true
		}
	}
	return false
}

// Publish delivers e to the subscribers registered at the moment of the
// call, in registration order, and returns once they have all run.
// Subscriptions added or removed by a handler take effect from the next
// Publish. The first handler error ends delivery and is returned as a
// *errors.SubscriberError. Panics propagate to the caller.
func (n *Notifier) Publish(e Event) error {
	n.mu.RLock()
	subs := n.subscriptions
	n.mu.RUnlock()

	for _, sub := range subs {
		if !sub.wants(e) {
			continue
		}
		if err := sub.handler(e); err != nil {
			return errors.NewSubscriberError(sub.id, e.EventType(), err)
		}
	}
	return nil
}

// generateID creates a unique subscription ID.
func (n *Notifier) generateID() string {
	return fmt.Sprintf("sub-%d", n.nextID.Add(1))
}

// Clear removes all subscriptions.
func (n *Notifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subscriptions = nil
}

// SubscriptionCount returns the number of active subscriptions.
func (n *Notifier) SubscriptionCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subscriptions)
}
