package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

type stubExtractor struct {
	types    []string
	priority int
	text     string
}

func (s *stubExtractor) SupportedMIMETypes() []string { return s.types }
func (s *stubExtractor) Priority() int                { return s.priority }
func (s *stubExtractor) Extract(_ context.Context, _ *domain.RawDocument) (*domain.ExtractResult, error) {
	return &domain.ExtractResult{Text: s.text}, nil
}

func TestRegistry_PicksHighestPriority(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{types: []string{"text/markdown"}, priority: 5, text: "fallback"})
	r.Register(&stubExtractor{types: []string{"text/markdown"}, priority: 50, text: "specific"})
	r.Register(&stubExtractor{types: []string{"text/markdown"}, priority: 10, text: "middle"})

	result, err := r.Extract(context.Background(), &domain.RawDocument{MIMEType: "text/markdown"})

	require.NoError(t, err)
	assert.Equal(t, "specific", result.Text)
}

func TestRegistry_DetectsTypeFromURI(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{types: []string{"text/plain"}, priority: 5, text: "plain"})

	result, err := r.Extract(context.Background(), &domain.RawDocument{URI: "/tmp/NOTES.TXT"})

	require.NoError(t, err)
	assert.Equal(t, "plain", result.Text)
}

func TestRegistry_StripsMIMEParameters(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{types: []string{"text/html"}, priority: 50, text: "html"})

	result, err := r.Extract(context.Background(), &domain.RawDocument{MIMEType: "Text/HTML; charset=utf-8"})

	require.NoError(t, err)
	assert.Equal(t, "html", result.Text)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewDefaultRegistry()

	_, err := r.Extract(context.Background(), &domain.RawDocument{URI: "slides.pptx"})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), ".pptx")
	assert.False(t, r.Supports("slides.pptx"))
	assert.True(t, r.Supports("report.pdf"))
}

func TestRegistry_NilDocument(t *testing.T) {
	_, err := NewRegistry().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDefaultRegistry_EndToEnd(t *testing.T) {
	r := NewDefaultRegistry()

	md, err := r.Extract(context.Background(), &domain.RawDocument{
		URI:     "guide.md",
		Content: []byte("# Guide\n\nUse **bold** text."),
	})
	require.NoError(t, err)
	assert.Equal(t, "Guide", md.Title)
	assert.Contains(t, md.Text, "Use bold text.")

	txt, err := r.Extract(context.Background(), &domain.RawDocument{
		URI:     "notes.txt",
		Content: []byte("plain notes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "plain notes", txt.Text)

	assert.Contains(t, r.SupportedMIMETypes(), "application/pdf")
	assert.Contains(t, r.SupportedMIMETypes(), "text/html")
}

func TestDetectMIMEType(t *testing.T) {
	tests := map[string]string{
		"a.txt":        "text/plain",
		"b.MD":         "text/markdown",
		"c.html":       "text/html",
		"d.pdf":        "application/pdf",
		"e.docx":       "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"main.go":      "text/x-go",
		"archive.zip":  "",
		"no-extension": "",
	}
	for path, want := range tests {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, want, DetectMIMEType(path))
		})
	}
}
