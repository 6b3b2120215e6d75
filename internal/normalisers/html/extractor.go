// Package html extracts readable text from HTML documents.
// Scripts, styles and page chrome (nav, footer, aside) are dropped; block
// elements become line breaks so paragraphs survive for the chunker.
package html

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/normalisers/doctitle"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// droppedSelector matches elements whose content is never document text.
const droppedSelector = "head, script, style, noscript, svg, template, iframe, nav, footer, aside"

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true, "header": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
	"table": true, "tr": true, "blockquote": true, "pre": true, "hr": true,
	"figure": true, "figcaption": true, "form": true, "fieldset": true,
}

// Extractor handles HTML documents.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract converts HTML to plain text.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.ExtractResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %w", domain.ErrInvalidInput, err)
	}

	title := extractTitle(doc)
	if title == "" {
		title = doctitle.FromURI(raw.URI)
	}

	doc.Find(droppedSelector).Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var sb strings.Builder
	writeText(root, &sb)

	return &domain.ExtractResult{
		Text:  normaliseLines(sb.String()),
		Title: title,
	}, nil
}

// extractTitle prefers <title>, then og:title, then the first <h1>.
func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if og, ok := doc.Find("meta[property='og:title']").Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// writeText appends the text below sel, breaking lines at block elements.
func writeText(sel *goquery.Selection, sb *strings.Builder) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		switch {
		case name == "#text":
			t := s.Text()
			if t == "" {
				return
			}
			if isSpace(t[0]) {
				sb.WriteByte(' ')
			}
			sb.WriteString(strings.Join(strings.Fields(t), " "))
			if isSpace(t[len(t)-1]) {
				sb.WriteByte(' ')
			}
		case name == "br":
			sb.WriteByte('\n')
		case name == "td" || name == "th":
			writeText(s, sb)
			sb.WriteByte('\t')
		case blockElements[name]:
			sb.WriteByte('\n')
			writeText(s, sb)
			sb.WriteByte('\n')
		case strings.HasPrefix(name, "#"):
			// comments and doctype
		default:
			writeText(s, sb)
		}
	})
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}

// normaliseLines collapses spaces, trims every line and drops empty ones.
// Tabs separate table cells and are kept.
func normaliseLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		cells := strings.Split(line, "\t")
		for i, cell := range cells {
			cells[i] = strings.Join(strings.Fields(cell), " ")
		}
		line = strings.TrimSpace(strings.Join(cells, "\t"))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
