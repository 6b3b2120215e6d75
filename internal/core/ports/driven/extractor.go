package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// TextExtractor turns raw document bytes into plain text.
// Each extractor handles specific MIME types (e.g., PDF, Markdown).
type TextExtractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific extractors should return 50-89.
	// Fallback extractors should return 1-9.
	Priority() int

	// Extract returns the document text.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractResult, error)
}

// ExtractorRegistry selects the appropriate extractor for a document.
type ExtractorRegistry interface {
	// Extract uses the highest-priority extractor for the MIME type.
	// Returns domain.ErrUnsupportedFormat when none matches.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractResult, error)

	// Register adds an extractor to the registry.
	Register(extractor TextExtractor)

	// SupportedMIMETypes returns all MIME types that can be extracted.
	SupportedMIMETypes() []string
}

// Splitter divides text into overlapping bounded segments.
type Splitter interface {
	// Name returns the splitter name for logging and configuration.
	Name() string

	// Split returns the segments in order. Empty text yields none.
	Split(text string) []string
}
