package classify

import (
	"strings"
	"sync/atomic"
)

// Classifier maps a normalized unit of text to a Category.
// Implementations must be safe for concurrent use.
type Classifier interface {
	// Classify returns the category for line, or Unrecognized.
	Classify(line string) Category
}

// TableClassifier classifies by exact, case-sensitive lookup in a Table.
// The table can be swapped at runtime without blocking Classify.
type TableClassifier struct {
	table atomic.Pointer[Table]
}

// NewClassifier creates a classifier over t. A nil t uses DefaultTable.
func NewClassifier(t *Table) *TableClassifier {
	c := &TableClassifier{}
	c.SetTable(t)
	return c
}

// Classify returns the category registered for line, or Unrecognized.
// No trimming, case folding, or partial matching is applied.
func (c *TableClassifier) Classify(line string) Category {
	if cat, ok := c.table.Load().Lookup(line); ok {
		return cat
	}
	return Unrecognized
}

// Table returns the table currently in use.
func (c *TableClassifier) Table() *Table {
	return c.table.Load()
}

// SetTable replaces the table. A nil t restores DefaultTable.
func (c *TableClassifier) SetTable(t *Table) {
	if t == nil {
		t = DefaultTable()
	}
	c.table.Store(t)
}

// Normalize turns drained text into a comparison key by removing every
// occurrence of the producer's line terminator.
func Normalize(text, newline string) string {
	if newline == "" {
		return text
	}
	return strings.ReplaceAll(text, newline, "")
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(line string) Category

// Classify calls f(line).
func (f ClassifierFunc) Classify(line string) Category {
	return f(line)
}
