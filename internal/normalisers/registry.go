package normalisers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/normalisers/docx"
	"github.com/custodia-labs/ragcore/internal/normalisers/html"
	"github.com/custodia-labs/ragcore/internal/normalisers/markdown"
	"github.com/custodia-labs/ragcore/internal/normalisers/pdf"
	"github.com/custodia-labs/ragcore/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry selects text extractors by MIME type.
type Registry struct {
	mu     sync.RWMutex
	byMIME map[string][]driven.TextExtractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byMIME: make(map[string][]driven.TextExtractor)}
}

// NewDefaultRegistry creates a registry with all built-in extractors.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	r.Register(pdf.New())
	return r
}

// Register adds an extractor for each of its MIME types.
// Extractors for the same type are kept in descending priority order.
func (r *Registry) Register(extractor driven.TextExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, mime := range extractor.SupportedMIMETypes() {
		list := append(r.byMIME[mime], extractor)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byMIME[mime] = list
	}
}

// Extract runs the highest-priority extractor for the document's MIME type.
// An empty MIME type is detected from the URI.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	mime := normaliseMIME(raw.MIMEType)
	if mime == "" {
		mime = DetectMIMEType(raw.URI)
	}

	extractor := r.lookup(mime)
	if extractor == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, displayType(mime, raw.URI))
	}
	return extractor.Extract(ctx, raw)
}

// SupportedMIMETypes returns all registered MIME types in sorted order.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.byMIME))
	for mime := range r.byMIME {
		types = append(types, mime)
	}
	sort.Strings(types)
	return types
}

// Supports reports whether a file name maps to a registered extractor.
func (r *Registry) Supports(path string) bool {
	return r.lookup(DetectMIMEType(path)) != nil
}

func (r *Registry) lookup(mime string) driven.TextExtractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if list := r.byMIME[mime]; len(list) > 0 {
		return list[0]
	}
	return nil
}

// normaliseMIME strips parameters such as "; charset=utf-8".
func normaliseMIME(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}

func displayType(mime, uri string) string {
	if mime != "" {
		return mime
	}
	if ext := filepath.Ext(uri); ext != "" {
		return ext + " files"
	}
	return "unknown type"
}

var extensionTypes = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".log":      "text/plain",
	".rst":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".mdx":      "text/markdown",
	".html":     "text/html",
	".htm":      "text/html",
	".xhtml":    "application/xhtml+xml",
	".pdf":      "application/pdf",
	".docx":     docx.MIMEType,
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".java":     "text/x-java",
	".c":        "text/x-c",
	".h":        "text/x-c",
	".cpp":      "text/x-c++",
	".hpp":      "text/x-c++",
	".rb":       "text/x-ruby",
	".sh":       "text/x-shellscript",
	".sql":      "text/x-sql",
	".csv":      "text/csv",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".js":       "text/javascript",
	".ts":       "text/typescript",
	".css":      "text/css",
	".json":     "application/json",
	".xml":      "application/xml",
}

// DetectMIMEType maps a file name to a MIME type by extension.
// Returns an empty string for unknown extensions.
func DetectMIMEType(path string) string {
	return extensionTypes[strings.ToLower(filepath.Ext(path))]
}
