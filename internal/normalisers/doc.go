// Package normalisers turns raw document bytes into plain text for ingestion.
//
// Each sub-package implements driven.TextExtractor for one family of MIME
// types. The Registry in this package picks the highest-priority extractor
// for a document, and DetectMIMEType maps file names to MIME types.
package normalisers
