// Package markdown extracts plain text from Markdown documents by walking the
// goldmark AST. Headings, paragraphs and list items become separate lines so
// the chunker can split on their boundaries.
package markdown

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/normalisers/doctitle"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor handles Markdown documents.
type Extractor struct {
	md goldmark.Markdown
}

// New creates a new Markdown extractor.
func New() *Extractor {
	return &Extractor{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		),
	}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract converts Markdown to plain text.
// The title is the first level-one heading, or the file name.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.ExtractResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	source := raw.Content
	doc := e.md.Parser().Parse(text.NewReader(source))

	r := &textRenderer{source: source}
	if err := ast.Walk(doc, r.walk); err != nil {
		return nil, err
	}

	title := r.title
	if title == "" {
		title = doctitle.FromURI(raw.URI)
	}

	return &domain.ExtractResult{
		Text:  r.String(),
		Title: title,
	}, nil
}

// textRenderer accumulates block-separated plain text.
type textRenderer struct {
	source []byte
	out    strings.Builder
	title  string
}

func (r *textRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering && node.Level == 1 && r.title == "" {
			r.title = strings.TrimSpace(inlineText(node, r.source))
		}
		if !entering {
			r.endBlock()
		}
	case *ast.Paragraph:
		if !entering {
			r.endBlock()
		}
	case *ast.TextBlock, *ast.ListItem:
		if !entering {
			r.endLine()
		}
	case *ast.List:
		if !entering {
			r.endBlock()
		}
	case *ast.Text:
		if entering {
			r.out.Write(node.Segment.Value(r.source))
			if node.SoftLineBreak() {
				r.out.WriteByte(' ')
			}
			if node.HardLineBreak() {
				r.out.WriteByte('\n')
			}
		}
	case *ast.String:
		if entering {
			r.out.Write(node.Value)
		}
	case *ast.CodeSpan:
		if entering {
			r.out.WriteString(inlineText(node, r.source))
			return ast.WalkSkipChildren, nil
		}
	case *ast.FencedCodeBlock:
		if entering {
			r.writeLines(node.Lines())
			return ast.WalkSkipChildren, nil
		}
	case *ast.CodeBlock:
		if entering {
			r.writeLines(node.Lines())
			return ast.WalkSkipChildren, nil
		}
	case *ast.AutoLink:
		if entering {
			r.out.Write(node.Label(r.source))
		}
	case *ast.Image, *ast.HTMLBlock, *ast.RawHTML:
		return ast.WalkSkipChildren, nil
	case *extast.TableCell:
		if !entering {
			r.out.WriteByte('\t')
		}
	case *extast.TableHeader, *extast.TableRow:
		if !entering {
			r.endLine()
		}
	case *extast.Table:
		if !entering {
			r.endBlock()
		}
	}
	return ast.WalkContinue, nil
}

func (r *textRenderer) writeLines(lines *text.Segments) {
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		r.out.Write(line.Value(r.source))
	}
	r.endBlock()
}

// endLine terminates the current line unless it is already terminated.
func (r *textRenderer) endLine() {
	s := r.out.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		r.out.WriteByte('\n')
	}
}

// endBlock leaves one blank line after a block.
func (r *textRenderer) endBlock() {
	r.endLine()
	s := r.out.String()
	if s != "" && !strings.HasSuffix(s, "\n\n") {
		r.out.WriteByte('\n')
	}
}

// String returns the collected text with trailing whitespace trimmed from each line.
func (r *textRenderer) String() string {
	lines := strings.Split(r.out.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// inlineText concatenates the text segments below n.
func inlineText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
