// Package driven lists what the core needs from the outside world.
//
// Needed for any query or ingest:
//
//   - EmbeddingService turns text into vectors.
//   - ChunkStore holds chunks and answers nearest-neighbour searches.
//   - Splitter cuts document text into overlapping chunks.
//   - ConfigStore holds settings under dotted keys.
//
// May be nil:
//
//   - LLMService. Answers then list the retrieved sources with no text.
//   - SnapshotStore. The index then lasts only as long as the process.
//   - ExtractorRegistry. Only plain text can be ingested.
//   - PromptStore. Built-in prompts are used.
//
// Adapters implement these interfaces; this package imports nothing but domain.
package driven
