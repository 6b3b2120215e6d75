package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()

	assert.Contains(t, mimeTypes, "text/html")
	assert.Contains(t, mimeTypes, "application/xhtml+xml")
	assert.Equal(t, 50, New().Priority())
}

func TestExtract_Success(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head><title>Billing FAQ</title><style>body { color: red; }</style></head>
<body>
  <nav><a href="/">Home</a></nav>
  <h1>Billing</h1>
  <p>Invoices are sent   on the <b>first</b> day of each month.</p>
  <script>console.log("tracking")</script>
  <ul><li>Card</li><li>Bank transfer</li></ul>
  <p>Questions?<br>Email us.</p>
  <!-- internal note -->
  <footer>Copyright</footer>
</body>
</html>`

	result, err := New().Extract(context.Background(), &domain.RawDocument{
		URI:     "faq.html",
		Content: []byte(page),
	})

	require.NoError(t, err)
	assert.Equal(t, "Billing FAQ", result.Title)
	assert.Equal(t,
		"Billing\nInvoices are sent on the first day of each month.\nCard\nBank transfer\nQuestions?\nEmail us.",
		result.Text)
}

func TestExtract_TitleFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		uri      string
		expected string
	}{
		{
			name:     "og title",
			content:  `<html><head><meta property="og:title" content="Open Graph"></head><body>x</body></html>`,
			expected: "Open Graph",
		},
		{
			name:     "first heading",
			content:  `<html><body><h1>Heading</h1><p>x</p></body></html>`,
			expected: "Heading",
		},
		{
			name:     "file name",
			content:  `<p>x</p>`,
			uri:      "/site/pricing-page.html",
			expected: "pricing page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := New().Extract(context.Background(), &domain.RawDocument{
				URI:     tt.uri,
				Content: []byte(tt.content),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.Title)
		})
	}
}

func TestExtract_Table(t *testing.T) {
	page := `<table><tr><th>Plan</th><th>Price</th></tr><tr><td>Pro</td><td>$10</td></tr></table>`

	result, err := New().Extract(context.Background(), &domain.RawDocument{Content: []byte(page)})

	require.NoError(t, err)
	assert.Equal(t, "Plan\tPrice\nPro\t$10", result.Text)
}

func TestExtract_NilDocument(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
