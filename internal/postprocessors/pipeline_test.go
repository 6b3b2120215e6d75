package postprocessors

import (
	"strings"
	"testing"
)

// mockSplitter records the text it receives and splits on "|".
type mockSplitter struct {
	received string
}

func (m *mockSplitter) Name() string { return "mock" }

func (m *mockSplitter) Split(text string) []string {
	m.received = text
	if text == "" {
		return nil
	}
	return strings.Split(text, "|")
}

type upperFilter struct{}

func (upperFilter) Name() string             { return "upper" }
func (upperFilter) Apply(text string) string { return strings.ToUpper(text) }

func TestNewPipeline(t *testing.T) {
	p := NewPipeline(&mockSplitter{})
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if p.Len() != 0 {
		t.Errorf("expected 0 filters, got %d", p.Len())
	}
	if p.Name() != "mock" {
		t.Errorf("expected splitter name, got %q", p.Name())
	}
}

func TestPipeline_Add(t *testing.T) {
	p := NewPipeline(&mockSplitter{})
	p.Add(upperFilter{})

	if p.Len() != 1 {
		t.Errorf("expected 1 filter, got %d", p.Len())
	}
}

func TestPipeline_Split_AppliesFiltersInOrder(t *testing.T) {
	s := &mockSplitter{}
	p := NewPipeline(s, TrimSpace{}, upperFilter{})

	chunks := p.Split("  a|b  ")
	if s.received != "A|B" {
		t.Errorf("unexpected splitter input %q", s.received)
	}
	if len(chunks) != 2 || chunks[0] != "A" || chunks[1] != "B" {
		t.Errorf("unexpected chunks %v", chunks)
	}
}

func TestPipeline_Split_EmptyAfterTrim(t *testing.T) {
	p := NewPipeline(&mockSplitter{}, TrimSpace{})
	if chunks := p.Split(" \n\t "); len(chunks) != 0 {
		t.Errorf("expected no chunks, got %v", chunks)
	}
}

func TestLineEndings(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a\r\nb", "a\nb"},
		{"a\rb", "a\nb"},
		{"a\nb", "a\nb"},
		{"\r\n\r\n", "\n\n"},
	}
	for _, tt := range tests {
		if got := (LineEndings{}).Apply(tt.in); got != tt.want {
			t.Errorf("Apply(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
