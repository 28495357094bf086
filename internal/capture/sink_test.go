package capture

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	cerrors "github.com/Iron-Ham/conductor/internal/errors"
)

func TestNewSink(t *testing.T) {
	tests := []struct {
		name    string
		newline string
		want    string
	}{
		{name: "default", newline: "", want: "\n"},
		{name: "crlf", newline: "\r\n", want: "\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSink(tt.newline)
			if s.Newline() != tt.want {
				t.Errorf("Newline() = %q, want %q", s.Newline(), tt.want)
			}
			if s.HasPending() {
				t.Error("new sink should have nothing pending")
			}
		})
	}
}

func TestSink_WriteAndDrain(t *testing.T) {
	tests := []struct {
		name     string
		writes   []string
		expected string
	}{
		{name: "single write", writes: []string{"発車ベル: ON\n"}, expected: "発車ベル: ON\n"},
		{name: "multiple writes kept in order", writes: []string{"ab", "cd", "ef"}, expected: "abcdef"},
		{name: "two lines accumulate", writes: []string{"側灯滅\n", "車掌スイッチ: 閉\n"}, expected: "側灯滅\n車掌スイッチ: 閉\n"},
		{name: "empty write", writes: []string{""}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSink("")
			for _, w := range tt.writes {
				n, err := s.Write([]byte(w))
				if err != nil {
					t.Fatalf("Write returned error: %v", err)
				}
				if n != len(w) {
					t.Errorf("Write returned %d, expected %d", n, len(w))
				}
			}
			if got := s.Drain(); got != tt.expected {
				t.Errorf("Drain() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestSink_DrainIsIdempotent(t *testing.T) {
	s := NewSink("")
	_, _ = s.WriteString("hello\n")

	if got := s.Drain(); got != "hello\n" {
		t.Fatalf("first Drain() = %q", got)
	}
	if s.HasPending() {
		t.Error("HasPending() = true after drain")
	}
	if got := s.Drain(); got != "" {
		t.Errorf("second Drain() = %q, want empty", got)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestSink_HasPending(t *testing.T) {
	s := NewSink("")
	if s.HasPending() {
		t.Error("empty sink reports pending data")
	}
	_, _ = s.Write([]byte("x"))
	if !s.HasPending() {
		t.Error("HasPending() = false after write")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestSink_DrainReturnsCopy(t *testing.T) {
	s := NewSink("")
	_, _ = s.WriteString("first")
	got := s.Drain()
	_, _ = s.WriteString("XXXXX")

	if got != "first" {
		t.Errorf("drained text changed after later write: %q", got)
	}
}

func TestSink_Close(t *testing.T) {
	s := NewSink("")
	_, _ = s.WriteString("pending")

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if s.HasPending() {
		t.Error("Close should release buffered text")
	}

	n, err := s.Write([]byte("late"))
	if !errors.Is(err, cerrors.ErrSinkClosed) {
		t.Errorf("Write after Close error = %v, want ErrSinkClosed", err)
	}
	if n != 0 {
		t.Errorf("Write after Close returned %d, want 0", n)
	}
	if _, err := s.WriteString("late"); !errors.Is(err, cerrors.ErrSinkClosed) {
		t.Errorf("WriteString after Close error = %v, want ErrSinkClosed", err)
	}

	// Second close is a no-op.
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestSink_ConcurrentWritesAndDrainsLoseNothing(t *testing.T) {
	s := NewSink("")
	const writers = 8
	const writesPerWriter = 500

	var produced sync.WaitGroup
	produced.Add(writers)
	for w := 0; w < writers; w++ {
		go func(id int) {
			defer produced.Done()
			for i := 0; i < writesPerWriter; i++ {
				_, _ = fmt.Fprintf(s, "<%d:%d>", id, i)
			}
		}(w)
	}

	var drained strings.Builder
	done := make(chan struct{})
	go func() {
		produced.Wait()
		close(done)
	}()

	for {
		drained.WriteString(s.Drain())
		select {
		case <-done:
			drained.WriteString(s.Drain())
			verifyTokens(t, drained.String(), writers, writesPerWriter)
			return
		default:
		}
	}
}

// verifyTokens checks that every "<id:i>" token appears exactly once and that
// each writer's tokens appear in increasing order.
func verifyTokens(t *testing.T, text string, writers, perWriter int) {
	t.Helper()

	next := make([]int, writers)
	for _, tok := range strings.Split(strings.TrimSuffix(strings.TrimPrefix(text, "<"), ">"), "><") {
		var id, i int
		if _, err := fmt.Sscanf(tok, "%d:%d", &id, &i); err != nil {
			t.Fatalf("corrupted token %q: %v", tok, err)
		}
		if i != next[id] {
			t.Fatalf("writer %d: got token %d, want %d", id, i, next[id])
		}
		next[id]++
	}
	for id, n := range next {
		if n != perWriter {
			t.Errorf("writer %d: drained %d tokens, want %d", id, n, perWriter)
		}
	}
}

func TestSink_SingleProducerInterleavedDrains(t *testing.T) {
	s := NewSink("")
	var want, got bytes.Buffer

	for i := 0; i < 100; i++ {
		chunk := fmt.Sprintf("line %d\n", i)
		want.WriteString(chunk)
		_, _ = s.WriteString(chunk)
		if i%7 == 0 {
			got.WriteString(s.Drain())
		}
	}
	got.WriteString(s.Drain())

	if got.String() != want.String() {
		t.Errorf("concatenated drains differ from concatenated writes")
	}
}

func BenchmarkSink_Write(b *testing.B) {
	s := NewSink("")
	data := []byte("発車ベル: ON\n")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Write(data)
		if i%64 == 0 {
			_ = s.Drain()
		}
	}
}
