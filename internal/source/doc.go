// Package source feeds simulator output into a writer, normally a
// capture.Console whose output a conductor.Checker has redirected.
//
// [Exec] runs the simulator as a child process, optionally under a
// pseudo-terminal. [Tail] follows a console log file the simulator appends to.
package source
