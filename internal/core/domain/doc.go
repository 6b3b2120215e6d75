// Package domain holds the types every other ragcore package shares:
// chunks and the document records that order them, the retrieval context
// built for a question, answers with their citations, index snapshots,
// settings and the error kinds callers test with errors.Is.
//
// It imports only the standard library.
package domain
