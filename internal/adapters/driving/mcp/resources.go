package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

const (
	statsURI       = "ragcore://stats"
	documentsURI   = "ragcore://documents"
	documentPrefix = documentsURI + "/"

	jsonMIME = "application/json"
)

// readFunc produces the value served as a JSON resource.
type readFunc func(ctx context.Context, uri string) (any, error)

func (s *Server) registerResources() {
	static := []struct {
		uri, name, desc string
		read            readFunc
	}{
		{statsURI, "stats", "Document and chunk counts for the index", s.readStats},
		{documentsURI, "documents", "Live documents in ingestion order with chunk counts", s.readDocuments},
	}
	for _, r := range static {
		s.server.AddResource(&mcp.Resource{
			URI: r.uri, Name: r.name, Description: r.desc, MIMEType: jsonMIME,
		}, serveJSON(r.read))
	}

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentPrefix + "{id}",
		Name:        "document",
		Description: "One live document by ID",
		MIMEType:    jsonMIME,
	}, serveJSON(s.readDocument))
}

func (s *Server) readStats(ctx context.Context, _ string) (any, error) {
	return s.ports.RAG.Stats(ctx), nil
}

func (s *Server) readDocuments(ctx context.Context, _ string) (any, error) {
	return s.ports.RAG.Documents(ctx)
}

func (s *Server) readDocument(ctx context.Context, uri string) (any, error) {
	id := strings.TrimPrefix(uri, documentPrefix)
	if id == "" || id == uri || strings.Contains(id, "/") {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	docs, err := s.ports.RAG.Documents(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, mcp.ResourceNotFoundError(uri)
}

// serveJSON adapts read into a resource handler returning indented JSON.
func serveJSON(read readFunc) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := req.Params.URI
		v, err := read(ctx, uri)
		if err != nil {
			return nil, err
		}
		if docs, ok := v.([]domain.DocumentSummary); ok && docs == nil {
			v = []domain.DocumentSummary{}
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", uri, err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: jsonMIME, Text: string(data)}},
		}, nil
	}
}
