package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Question string                `json:"question" jsonschema:"the question to answer from the indexed documents"`
	History  []domain.HistoryEntry `json:"history,omitempty" jsonschema:"earlier conversation turns, oldest first"`
	TopK     int                   `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve, at most 50 (default from settings)"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Label string `json:"label" jsonschema:"source label shown in citations"`
	Text  string `json:"text" jsonschema:"the document text"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	DocumentID string `json:"document_id"`
}

// DeleteInput is the input schema for the delete tool.
type DeleteInput struct {
	DocumentID string `json:"document_id" jsonschema:"id returned by ingest"`
}

// DeleteOutput is the output schema for the delete tool.
type DeleteOutput struct {
	Deleted bool `json:"deleted"`
}

// StatsInput is the empty input schema for the stats tool.
type StatsInput struct{}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Answer a question from the indexed documents, with cited sources and a confidence score",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Add a text document to the index and return its id",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete",
		Description: "Remove a document from the index so it is never cited again",
	}, s.handleDelete)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stats",
		Description: "Report document and chunk counts for the index",
	}, s.handleStats)
}

func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, domain.Answer, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, domain.Answer{}, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	if input.TopK < 0 || input.TopK > domain.MaxTopK {
		return nil, domain.Answer{}, fmt.Errorf("%w: top_k must be between 1 and %d", domain.ErrInvalidInput, domain.MaxTopK)
	}
	answer := s.ports.RAG.QueryWithK(ctx, input.Question, input.History, input.TopK)
	return nil, answer, nil
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	id, err := s.ports.RAG.Ingest(ctx, input.Label, input.Text)
	if err != nil {
		return nil, IngestOutput{}, err
	}
	return nil, IngestOutput{DocumentID: id}, nil
}

func (s *Server) handleDelete(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	if err := s.ports.RAG.Delete(ctx, input.DocumentID); err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("deleting %s: %w", input.DocumentID, err)
	}
	return nil, DeleteOutput{Deleted: true}, nil
}

func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, domain.Stats, error) {
	return nil, s.ports.RAG.Stats(ctx), nil
}
