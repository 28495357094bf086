package render

import (
	"fmt"

	"github.com/gobwas/glob"

	"github.com/Iron-Ham/conductor/internal/classify"
)

// Filter selects categories by a glob over their snake_case names.
// A nil Filter matches everything.
type Filter struct {
	pattern string
	g       glob.Glob
}

// NewFilter compiles pattern. An empty pattern returns a nil Filter.
func NewFilter(pattern string) (*Filter, error) {
	if pattern == "" {
		return nil, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling category filter %q: %w", pattern, err)
	}
	return &Filter{pattern: pattern, g: g}, nil
}

// Match reports whether c passes the filter.
func (f *Filter) Match(c classify.Category) bool {
	if f == nil {
		return true
	}
	return f.g.Match(c.String())
}

// String returns the source pattern.
func (f *Filter) String() string {
	if f == nil {
		return "*"
	}
	return f.pattern
}
