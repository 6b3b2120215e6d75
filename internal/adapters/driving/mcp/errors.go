// Package mcp exposes ragcore to AI assistants over the Model Context Protocol.
// Assistants can ask questions, add text, delete documents and read index statistics.
package mcp

import "errors"

// ErrMissingRAGService is returned when the RAG service is not provided.
var ErrMissingRAGService = errors.New("mcp: rag service is required")
