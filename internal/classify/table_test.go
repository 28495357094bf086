package classify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultTable(t *testing.T) {
	tests := []struct {
		phrase string
		want   Category
	}{
		{"発車ベル: ON", BellOn},
		{"発車ベル: OFF", BellOff},
		{"車掌: 停止位置よし", StopPositionOK},
		{"車掌スイッチ: 閉", DoorClose},
		{"車掌スイッチ: 開", DoorOpen},
		{"側灯滅", SideLightOff},
	}

	table := DefaultTable()
	if table.Len() != len(tests) {
		t.Errorf("Len() = %d, want %d", table.Len(), len(tests))
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			got, ok := table.Lookup(tt.phrase)
			if !ok {
				t.Fatalf("Lookup(%q) missing", tt.phrase)
			}
			if got != tt.want {
				t.Errorf("Lookup(%q) = %v, want %v", tt.phrase, got, tt.want)
			}
		})
	}
}

func TestTable_Entries(t *testing.T) {
	table := NewTable(
		Entry{Phrase: "b", Category: DoorOpen},
		Entry{Phrase: "a", Category: DoorOpen},
		Entry{Phrase: "z", Category: BellOn},
	)

	entries := table.Entries()
	want := []Entry{
		{Phrase: "z", Category: BellOn},
		{Phrase: "a", Category: DoorOpen},
		{Phrase: "b", Category: DoorOpen},
	}
	if len(entries) != len(want) {
		t.Fatalf("Entries() len = %d, want %d", len(entries), len(want))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("Entries()[%d] = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestTable_Nil(t *testing.T) {
	var table *Table
	if _, ok := table.Lookup("x"); ok {
		t.Error("nil table Lookup should miss")
	}
	if table.Len() != 0 {
		t.Error("nil table Len should be 0")
	}
	if table.Entries() != nil {
		t.Error("nil table Entries should be nil")
	}
	merged := table.Merge(NewTable(Entry{Phrase: "x", Category: BellOn}))
	if merged.Len() != 1 {
		t.Errorf("Merge onto nil: Len() = %d, want 1", merged.Len())
	}
}

func TestTable_MergeDoesNotMutate(t *testing.T) {
	base := DefaultTable()
	overlay := NewTable(
		Entry{Phrase: "側灯滅", Category: SideLightOffRight},
		Entry{Phrase: "側灯点", Category: SideLightOn},
	)

	merged := base.Merge(overlay)

	if got, _ := merged.Lookup("側灯滅"); got != SideLightOffRight {
		t.Errorf("merged Lookup = %v, want SideLightOffRight", got)
	}
	if got, _ := base.Lookup("側灯滅"); got != SideLightOff {
		t.Errorf("base was mutated: Lookup = %v", got)
	}
	if merged.Len() != base.Len()+1 {
		t.Errorf("merged Len() = %d, want %d", merged.Len(), base.Len()+1)
	}
}

func TestParseTable(t *testing.T) {
	t.Run("extends defaults", func(t *testing.T) {
		table, err := ParseTable([]byte(`
version: "1"
phrases:
  - phrase: "側灯点"
    category: side_light_on
`))
		if err != nil {
			t.Fatalf("ParseTable() error: %v", err)
		}
		if got, _ := table.Lookup("側灯点"); got != SideLightOn {
			t.Errorf("Lookup(側灯点) = %v", got)
		}
		if _, ok := table.Lookup("発車ベル: ON"); !ok {
			t.Error("defaults should be kept")
		}
	})

	t.Run("replaces defaults", func(t *testing.T) {
		table, err := ParseTable([]byte(`
version: "1"
replace_defaults: true
phrases:
  - phrase: "DOOR R CLOSE"
    category: door_close_right
`))
		if err != nil {
			t.Fatalf("ParseTable() error: %v", err)
		}
		if table.Len() != 1 {
			t.Errorf("Len() = %d, want 1", table.Len())
		}
		if _, ok := table.Lookup("発車ベル: ON"); ok {
			t.Error("defaults should be dropped")
		}
	})

	errorCases := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"bad yaml", "version: [", "parsing phrase file"},
		{"wrong version", "version: \"2\"\nphrases: []\n", "unsupported version"},
		{"empty phrase", "version: \"1\"\nphrases:\n  - phrase: \"\"\n    category: bell_on\n", "phrase is required"},
		{"terminator in phrase", "version: \"1\"\nphrases:\n  - phrase: \"a\\nb\"\n    category: bell_on\n", "line terminators"},
		{"unknown category", "version: \"1\"\nphrases:\n  - phrase: x\n    category: horn\n", "unknown event category"},
		{"unrecognized category", "version: \"1\"\nphrases:\n  - phrase: x\n    category: unrecognized\n", "cannot be assigned"},
		{"conflicting duplicate", "version: \"1\"\nphrases:\n  - phrase: x\n    category: bell_on\n  - phrase: x\n    category: bell_off\n", "already maps to"},
	}

	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable([]byte(tt.data))
			if err == nil {
				t.Fatal("ParseTable() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "phrases.yaml")

	if _, err := LoadTable(path); err == nil {
		t.Error("LoadTable() on missing file should fail")
	}

	data := "version: \"1\"\nphrases:\n  - phrase: \"発車ベル: ON\"\n    category: bell_on\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable() error: %v", err)
	}
	if table.Len() != DefaultTable().Len() {
		t.Errorf("same-category duplicate of a default should not grow the table: Len() = %d", table.Len())
	}
}
