// Package chunker provides a boundary-aware text splitter with fixed overlap.
package chunker

import (
	"fmt"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// separators are tried in order; earlier entries are preferred boundaries.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune("! "),
	[]rune("? "),
	[]rune(" "),
}

// Segment is a chunk with its rune offsets in the source text.
type Segment struct {
	Text  string
	Start int
	End   int
}

// Processor splits text into overlapping chunks of at most chunkSize characters.
// Sizes are counted in runes so multi-byte characters are never split.
// Consecutive chunks share exactly overlap runes, so the first chunk followed
// by every later chunk with its first overlap runes removed reproduces the input.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a new chunker processor with the given options.
// Returns domain.ErrConfiguration unless 0 <= overlap < chunkSize.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrConfiguration, p.chunkSize)
	}
	if p.overlap < 0 || p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d",
			domain.ErrConfiguration, p.chunkSize, p.overlap)
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured maximum chunk length.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Split returns the chunk texts in order. Empty text yields no chunks.
func (p *Processor) Split(text string) []string {
	segments := p.Segments(text)
	if len(segments) == 0 {
		return nil
	}
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = s.Text
	}
	return out
}

// Segments splits text and reports the rune offsets of every chunk.
// Invalid UTF-8 bytes come back as U+FFFD; callers needing exact text validate first.
func (p *Processor) Segments(text string) []Segment {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	estimated := n/(p.chunkSize-p.overlap) + 1
	segments := make([]Segment, 0, estimated)

	start := 0
	for {
		if n-start <= p.chunkSize {
			segments = append(segments, Segment{Text: string(runes[start:]), Start: start, End: n})
			return segments
		}

		end := p.boundary(runes, start)
		segments = append(segments, Segment{Text: string(runes[start:end]), Start: start, End: end})
		start = end - p.overlap
	}
}

// boundary picks the end of the chunk starting at start.
// The chunk always ends past start+overlap so the next chunk makes progress.
func (p *Processor) boundary(runes []rune, start int) int {
	limit := start + p.chunkSize
	minEnd := start + max(p.overlap+1, p.chunkSize/2)

	for _, sep := range separators {
		for end := limit; end >= minEnd; end-- {
			if end-len(sep) < start {
				break
			}
			if hasSuffixAt(runes, end, sep) {
				return end
			}
		}
	}
	return limit
}

// hasSuffixAt reports whether runes[:end] ends with sep.
func hasSuffixAt(runes []rune, end int, sep []rune) bool {
	if end < len(sep) {
		return false
	}
	for i, r := range sep {
		if runes[end-len(sep)+i] != r {
			return false
		}
	}
	return true
}
