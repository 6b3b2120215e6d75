package mcp

import (
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// RAG ingests documents and answers questions.
	RAG driving.RAGService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.RAG == nil {
		return ErrMissingRAGService
	}
	return nil
}
