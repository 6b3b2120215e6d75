// Package postprocessors prepares document text for indexing.
package postprocessors

import (
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Filter rewrites text before it is split.
type Filter interface {
	// Name returns the filter name for logging.
	Name() string

	// Apply returns the rewritten text.
	Apply(text string) string
}

// Pipeline runs filters in order and then hands the text to a splitter.
// It implements the driven.Splitter interface.
type Pipeline struct {
	filters  []Filter
	splitter driven.Splitter
}

var _ driven.Splitter = (*Pipeline)(nil)

// NewPipeline creates a new pipeline ending in splitter.
// Filters are executed in the order provided.
func NewPipeline(splitter driven.Splitter, filters ...Filter) *Pipeline {
	return &Pipeline{
		filters:  filters,
		splitter: splitter,
	}
}

// Name returns the name of the final splitter.
func (p *Pipeline) Name() string {
	return p.splitter.Name()
}

// Split filters the text and splits the result.
func (p *Pipeline) Split(text string) []string {
	for _, f := range p.filters {
		text = f.Apply(text)
	}
	return p.splitter.Split(text)
}

// Add appends a filter to the pipeline.
func (p *Pipeline) Add(f Filter) {
	p.filters = append(p.filters, f)
}

// Len returns the number of filters in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.filters)
}

// LineEndings converts CRLF and CR line endings to LF.
type LineEndings struct{}

// Name returns the filter name.
func (LineEndings) Name() string { return "line_endings" }

// Apply normalises line endings.
func (LineEndings) Apply(text string) string {
	if !strings.Contains(text, "\r") {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// TrimSpace removes leading and trailing whitespace.
type TrimSpace struct{}

// Name returns the filter name.
func (TrimSpace) Name() string { return "trim" }

// Apply trims the text.
func (TrimSpace) Apply(text string) string {
	return strings.TrimSpace(text)
}
