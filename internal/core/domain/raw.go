package domain

// RawDocument represents opaque bytes submitted for ingestion.
// It is the input to text extraction.
type RawDocument struct {
	// URI is the original location (file path, URL, etc).
	URI string

	// Label overrides the source label used in citations.
	// When empty, the extracted title or the URI base name is used.
	Label string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// ExtractResult is the plain text produced by a text extractor.
type ExtractResult struct {
	// Text is the extracted plain text.
	Text string

	// Title is a document title if the format carries one.
	Title string
}
