// Package render prints conductor events and phrase tables for humans and
// machines.
//
// [Printer] is an event handler that writes one line per event, either as
// styled text or as JSON. Styling is done with lipgloss through a renderer
// bound to the output writer, so colors are decided per destination rather
// than from the process's stdout. [Filter] restricts which categories are
// printed using glob patterns such as "door_*" or "{bell_on,bell_off}".
package render
