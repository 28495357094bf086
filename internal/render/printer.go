package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/Iron-Ham/conductor/internal/classify"
	"github.com/Iron-Ham/conductor/internal/event"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

const (
	timeLayout   = "15:04:05.000"
	categoryCols = 22
)

// Colors for category groups.
var (
	bellColor   = lipgloss.Color("#FBBF24") // Yellow
	doorColor   = lipgloss.Color("#10B981") // Green
	stopColor   = lipgloss.Color("#60A5FA") // Blue
	lightColor  = lipgloss.Color("#A78BFA") // Purple
	mutedColor  = lipgloss.Color("#9CA3AF") // Gray
	headerColor = lipgloss.Color("#F9FAFB")
)

// PrinterOptions configures a Printer.
type PrinterOptions struct {
	// Format is FormatText or FormatJSON. Empty means text.
	Format string
	// Color enables ANSI styling in text format.
	Color bool
	// Filter limits which categories are printed. Nil prints all.
	Filter *Filter
	// MaxWidth truncates the raw text column in text format to this many
	// terminal columns. Zero disables truncation.
	MaxWidth int
}

// Printer writes events to a writer. Its Handle method is an event.Handler.
type Printer struct {
	mu       sync.Mutex
	w        io.Writer
	format   string
	filter   *Filter
	maxWidth int

	timeStyle lipgloss.Style
	rawStyle  lipgloss.Style
	catStyles map[classify.Category]lipgloss.Style
	fallback  lipgloss.Style
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer, opts PrinterOptions) *Printer {
	r := newRenderer(w, opts.Color)
	format := opts.Format
	if format == "" {
		format = FormatText
	}

	p := &Printer{
		w:         w,
		format:    format,
		filter:    opts.Filter,
		maxWidth:  opts.MaxWidth,
		timeStyle: r.NewStyle().Foreground(mutedColor),
		rawStyle:  r.NewStyle(),
		fallback:  r.NewStyle().Foreground(mutedColor).Width(categoryCols),
		catStyles: make(map[classify.Category]lipgloss.Style),
	}

	base := r.NewStyle().Bold(true).Width(categoryCols)
	for _, c := range classify.Categories() {
		switch {
		case c == classify.BellOn || c == classify.BellOff:
			p.catStyles[c] = base.Foreground(bellColor)
		case c == classify.StopPositionOK:
			p.catStyles[c] = base.Foreground(stopColor)
		case strings.HasPrefix(c.String(), "door_"):
			p.catStyles[c] = base.Foreground(doorColor)
		case strings.HasPrefix(c.String(), "side_light_"):
			p.catStyles[c] = base.Foreground(lightColor)
		}
	}
	return p
}

func newRenderer(w io.Writer, color bool) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}

// jsonEvent is the JSON line form of an event.
type jsonEvent struct {
	Type string `json:"type"`
	event.Event
}

// Handle prints e unless the filter excludes it. A write failure is returned
// to the notifier.
func (p *Printer) Handle(e event.Event) error {
	if !p.filter.Match(e.Category) {
		return nil
	}

	var line string
	switch p.format {
	case FormatJSON:
		b, err := json.Marshal(jsonEvent{Type: e.EventType(), Event: e})
		if err != nil {
			return fmt.Errorf("encoding event: %w", err)
		}
		line = string(b)
	default:
		line = p.formatText(e)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprintln(p.w, line); err != nil {
		return fmt.Errorf("printing event: %w", err)
	}
	return nil
}

func (p *Printer) formatText(e event.Event) string {
	style, ok := p.catStyles[e.Category]
	if !ok {
		style = p.fallback
	}
	raw := strings.TrimRight(e.Raw, "\r\n")
	raw = strings.NewReplacer("\r\n", " ⏎ ", "\n", " ⏎ ").Replace(raw)
	if p.maxWidth > 0 {
		raw = Truncate(raw, p.maxWidth)
	}

	return fmt.Sprintf("%s %s %s",
		p.timeStyle.Render(e.Time.Format(timeLayout)),
		style.Render(e.Category.String()),
		p.rawStyle.Render(raw),
	)
}

// WriteTable prints a phrase table as two aligned columns.
func WriteTable(w io.Writer, t *classify.Table, color bool) error {
	r := newRenderer(w, color)
	header := r.NewStyle().Bold(true).Underline(true).Foreground(headerColor)
	catCol := r.NewStyle().Width(categoryCols)

	if _, err := fmt.Fprintf(w, "%s%s\n",
		header.Inherit(catCol).Render("CATEGORY"),
		header.Render("PHRASE")); err != nil {
		return err
	}
	for _, e := range t.Entries() {
		if _, err := fmt.Fprintf(w, "%s%s\n", catCol.Render(e.Category.String()), e.Phrase); err != nil {
			return err
		}
	}
	return nil
}
