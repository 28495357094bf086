// Package event delivers classified simulator output to subscribers.
//
// # Main Types
//
//   - [Event]: category, raw drained text and drain time
//   - [Notifier]: synchronous, ordered dispatcher
//   - [Handler]: func(Event) error
//
// # Delivery
//
// Publish runs every handler on the calling goroutine, in registration order,
// against a snapshot of the subscriber list taken when Publish starts. It
// returns only after the last handler has returned, so a monitor cycle does
// not forward output until every subscriber has seen the event.
//
// A handler that returns an error stops delivery of that event; Publish
// returns the error wrapped in an errors.SubscriberError. Panics are not
// recovered.
//
// # Basic Usage
//
//	n := event.NewNotifier()
//	n.Subscribe(event.Observe(func(e event.Event) {
//	    fmt.Fprintln(os.Stderr, e.EventType())
//	}))
//	n.SubscribeCategory(classify.BellOn, func(e event.Event) error {
//	    return ringBell()
//	})
//
//	err := n.Publish(event.New(classify.BellOn, "発車ベル: ON\n"))
package event
