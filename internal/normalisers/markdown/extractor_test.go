package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

const sample = "# Deployment Guide\n\n" +
	"Run the **installer** with `--yes` and see [the docs](https://example.com/docs).\n\n" +
	"## Steps\n\n" +
	"- download\n" +
	"- install\n\n" +
	"```sh\nmake install\n```\n\n" +
	"![diagram](diagram.png)\n\n" +
	"| Key | Value |\n|-----|-------|\n| port | 8080 |\n"

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{"text/markdown", "text/x-markdown"}, New().SupportedMIMETypes())
	assert.Equal(t, 50, New().Priority())
}

func TestExtract_StripsFormatting(t *testing.T) {
	raw := &domain.RawDocument{URI: "/docs/deploy.md", Content: []byte(sample)}

	result, err := New().Extract(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "Deployment Guide", result.Title)
	assert.Contains(t, result.Text, "Run the installer with --yes and see the docs.")
	assert.Contains(t, result.Text, "download\ninstall")
	assert.Contains(t, result.Text, "make install")
	assert.Contains(t, result.Text, "port\t8080")
	assert.NotContains(t, result.Text, "**")
	assert.NotContains(t, result.Text, "`")
	assert.NotContains(t, result.Text, "https://example.com")
	assert.NotContains(t, result.Text, "diagram")
	assert.NotContains(t, result.Text, "# ")
}

func TestExtract_BlocksSeparatedByBlankLine(t *testing.T) {
	raw := &domain.RawDocument{Content: []byte("First paragraph\ncontinues here.\n\nSecond paragraph.")}

	result, err := New().Extract(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "First paragraph continues here.\n\nSecond paragraph.", result.Text)
}

func TestExtract_TitleFallsBackToFileName(t *testing.T) {
	raw := &domain.RawDocument{URI: "/notes/meeting_notes.md", Content: []byte("## Agenda\n\nItems.")}

	result, err := New().Extract(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "meeting notes", result.Title)
}

func TestExtract_NilDocument(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
