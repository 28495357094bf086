// Package capture provides the output interception layer for conductor.
//
// A simulator writes its status lines to a [Console], an explicitly owned and
// swappable output destination. Installing a [Sink] as the console's output
// diverts those writes into memory so a monitor can drain and classify them,
// while the previous destination is kept so drained text can still be
// forwarded to it.
//
// # Main Types
//
//   - [Destination]: Interface for a replaceable output destination (Out, SetOut)
//   - [Console]: Mutex-guarded [Destination] that is itself an io.Writer
//   - [Sink]: Append-only in-memory buffer with atomic Drain
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. [Sink] guards its
// buffer with a single mutex shared by Write and Drain, so every written byte
// is returned by exactly one Drain call and a Drain never observes a partial
// Write. [Console] holds a read lock for the duration of each Write, so once
// SetOut returns every later Write reaches the new destination.
//
// # Basic Usage
//
//	console := capture.NewConsole(os.Stdout)
//	sink := capture.NewSink(capture.DefaultNewline)
//
//	original := console.Out()
//	console.SetOut(sink)
//	defer console.SetOut(original)
//
//	fmt.Fprint(console, "発車ベル: ON\n")
//	if sink.HasPending() {
//	    text := sink.Drain() // "発車ベル: ON\n"
//	    _, _ = io.WriteString(original, text)
//	}
package capture
