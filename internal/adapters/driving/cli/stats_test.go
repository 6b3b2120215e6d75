package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

func TestStatsCmd_Table(t *testing.T) {
	rag, cleanup := setupTestServices(t)
	defer cleanup()
	rag.stats = domain.Stats{
		DocumentCount:            2,
		DeletedDocumentCount:     1,
		ChunkCount:               7,
		LogicalChunkCount:        5,
		AverageChunksPerDocument: 2.5,
		Dimension:                256,
	}

	out, err := executeCommand("stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Index Statistics")
	assert.Contains(t, out, "Documents:           2")
	assert.Contains(t, out, "Deleted documents:   1")
	assert.Contains(t, out, "Chunks (live):       5")
	assert.Contains(t, out, "Chunks (stored):     7")
	assert.Contains(t, out, "Chunks per document: 2.50")
	assert.Contains(t, out, "Dimension:           256")
}

func TestStatsCmd_JSON(t *testing.T) {
	rag, cleanup := setupTestServices(t)
	defer cleanup()
	rag.stats = domain.Stats{DocumentCount: 3, LogicalChunkCount: 9, AverageChunksPerDocument: 3}

	out, err := executeCommand("stats", "--json")

	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.InDelta(t, 3, got["total_documents"], 0)
	assert.InDelta(t, 9, got["logical_chunks"], 0)
}

func TestDocumentsCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	out, err := executeCommand("documents")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents indexed.")
}

func TestDocumentsCmd_Lists(t *testing.T) {
	rag, cleanup := setupTestServices(t)
	defer cleanup()
	rag.docs = []domain.DocumentSummary{
		{ID: "doc-1", SourceLabel: "guide.md", ChunkCount: 4, CreatedAt: time.Now()},
	}

	out, err := executeCommand("docs")

	require.NoError(t, err)
	assert.Contains(t, out, "doc-1")
	assert.Contains(t, out, "guide.md")
	assert.Contains(t, out, "4 chunks")
}

func TestDocumentsCmd_JSON(t *testing.T) {
	rag, cleanup := setupTestServices(t)
	defer cleanup()
	rag.docs = []domain.DocumentSummary{{ID: "doc-1", SourceLabel: "guide.md", ChunkCount: 4}}

	out, err := executeCommand("ls", "--json")

	require.NoError(t, err)
	var got []domain.DocumentSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "guide.md", got[0].SourceLabel)
}
