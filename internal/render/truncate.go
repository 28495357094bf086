package render

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const ellipsis = "..."

// Truncate shortens s to maxWidth terminal columns, ending it with "..." when
// anything was cut. Wide characters count as two columns and ANSI escape
// sequences count as none.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= len(ellipsis) {
		return ellipsis
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	// ansi.Truncate counts the tail toward maxWidth.
	return ansi.Truncate(s, maxWidth, ellipsis)
}
