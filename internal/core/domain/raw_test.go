package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRawDocument_Fields tests RawDocument structure fields
func TestRawDocument_Fields(t *testing.T) {
	raw := RawDocument{
		URI:      "/docs/report.pdf",
		Label:    "Q3 report",
		MIMEType: "application/pdf",
		Content:  []byte("%PDF"),
	}

	assert.Equal(t, "/docs/report.pdf", raw.URI)
	assert.Equal(t, "Q3 report", raw.Label)
	assert.Equal(t, "application/pdf", raw.MIMEType)
	assert.Equal(t, []byte("%PDF"), raw.Content)
}

// TestRawDocument_NilContent tests RawDocument with nil content
func TestRawDocument_NilContent(t *testing.T) {
	raw := RawDocument{URI: "/empty.txt", MIMEType: "text/plain"}
	assert.Nil(t, raw.Content)
}
