package classify

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one phrase of a Table.
type Entry struct {
	Phrase   string
	Category Category
}

// Table maps exact phrases to categories. A Table is immutable once built;
// Merge and the loaders return new tables, so a Table can be shared between
// goroutines without locking.
type Table struct {
	phrases map[string]Category
}

// NewTable builds a table from entries. Later entries override earlier ones
// with the same phrase.
func NewTable(entries ...Entry) *Table {
	t := &Table{phrases: make(map[string]Category, len(entries))}
	for _, e := range entries {
		t.phrases[e.Phrase] = e.Category
	}
	return t
}

// defaultEntries are the phrases the simulator is known to print.
var defaultEntries = []Entry{
	{Phrase: "発車ベル: ON", Category: BellOn},
	// Not yet observed in real output.
	{Phrase: "発車ベル: OFF", Category: BellOff},
	{Phrase: "車掌: 停止位置よし", Category: StopPositionOK},
	{Phrase: "車掌スイッチ: 閉", Category: DoorClose},
	{Phrase: "車掌スイッチ: 開", Category: DoorOpen},
	{Phrase: "側灯滅", Category: SideLightOff},
}

// DefaultTable returns the built-in phrase table.
func DefaultTable() *Table {
	return NewTable(defaultEntries...)
}

// Lookup returns the category for an exact phrase.
func (t *Table) Lookup(phrase string) (Category, bool) {
	if t == nil {
		return Unrecognized, false
	}
	c, ok := t.phrases[phrase]
	return c, ok
}

// Len returns the number of phrases in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.phrases)
}

// Entries returns the table's phrases ordered by category, then phrase.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	entries := make([]Entry, 0, len(t.phrases))
	for p, c := range t.phrases {
		entries = append(entries, Entry{Phrase: p, Category: c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Category != entries[j].Category {
			return entries[i].Category < entries[j].Category
		}
		return entries[i].Phrase < entries[j].Phrase
	})
	return entries
}

// Merge returns a new table containing t's phrases overlaid with other's.
func (t *Table) Merge(other *Table) *Table {
	merged := NewTable(t.Entries()...)
	for p, c := range other.phrasesOrEmpty() {
		merged.phrases[p] = c
	}
	return merged
}

func (t *Table) phrasesOrEmpty() map[string]Category {
	if t == nil {
		return nil
	}
	return t.phrases
}

// PhraseFile is the on-disk YAML form of a phrase table.
//
//	version: "1"
//	replace_defaults: false
//	phrases:
//	  - phrase: "発車ベル: ON"
//	    category: bell_on
type PhraseFile struct {
	Version string `yaml:"version"`
	// ReplaceDefaults drops the built-in phrases instead of extending them.
	ReplaceDefaults bool           `yaml:"replace_defaults,omitempty"`
	Phrases         []PhraseRecord `yaml:"phrases"`
}

// PhraseRecord is a single phrase entry in a PhraseFile.
type PhraseRecord struct {
	Phrase   string `yaml:"phrase"`
	Category string `yaml:"category"`
}

// LoadTable reads a phrase file and returns the resulting table.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading phrase file: %w", err)
	}

	t, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("phrase file %s: %w", path, err)
	}
	return t, nil
}

// ParseTable decodes and validates YAML phrase data. Unless the file sets
// replace_defaults, its phrases are merged over DefaultTable.
func ParseTable(data []byte) (*Table, error) {
	var file PhraseFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing phrase file: %w", err)
	}

	entries, err := file.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid phrase file: %w", err)
	}

	loaded := NewTable(entries...)
	if file.ReplaceDefaults {
		return loaded, nil
	}
	return DefaultTable().Merge(loaded), nil
}

// Validate checks the file and converts its records to entries.
func (f *PhraseFile) Validate() ([]Entry, error) {
	if f.Version != "1" {
		return nil, fmt.Errorf("unsupported version: %q (supported: 1)", f.Version)
	}

	seen := make(map[string]Category, len(f.Phrases))
	entries := make([]Entry, 0, len(f.Phrases))
	for i, rec := range f.Phrases {
		if rec.Phrase == "" {
			return nil, fmt.Errorf("phrases[%d]: phrase is required", i)
		}
		if strings.ContainsAny(rec.Phrase, "\r\n") {
			return nil, fmt.Errorf("phrases[%d]: phrase must not contain line terminators", i)
		}
		c, err := ParseCategory(rec.Category)
		if err != nil {
			return nil, fmt.Errorf("phrases[%d]: %w", i, err)
		}
		if c == Unrecognized {
			return nil, fmt.Errorf("phrases[%d]: category %q cannot be assigned to a phrase", i, rec.Category)
		}
		if prev, dup := seen[rec.Phrase]; dup && prev != c {
			return nil, fmt.Errorf("phrases[%d]: %q already maps to %s", i, rec.Phrase, prev)
		}
		seen[rec.Phrase] = c
		entries = append(entries, Entry{Phrase: rec.Phrase, Category: c})
	}
	return entries, nil
}
