// Package conductor ties capture, classification and notification together
// into a Checker with an explicit lifecycle.
//
// A Checker is created over a capture.Destination. New records the
// destination's current output, installs a capture sink in its place and
// starts the monitor loop. Close stops the loop, waits up to
// Options.ShutdownTimeout and restores the original output on every path.
//
//	console := capture.Stdout()
//	checker, err := conductor.New(console, conductor.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer checker.Close()
//
//	checker.SubscribeCategory(classify.DoorClose, event.Observe(func(e event.Event) {
//	    log.Info("doors closing")
//	}))
package conductor
