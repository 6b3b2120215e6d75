// Package doctitle derives display titles for extracted documents.
package doctitle

import (
	"path/filepath"
	"strings"
)

var separators = strings.NewReplacer("_", " ", "-", " ")

// FromURI turns "/docs/release_notes-v2.md" into "release notes v2".
// An empty URI has no title.
func FromURI(uri string) string {
	if uri == "" {
		return ""
	}
	name := filepath.Base(uri)
	return separators.Replace(strings.TrimSuffix(name, filepath.Ext(name)))
}

// FirstLine returns the first non-blank line of text that is at most maxLen
// bytes long and free of NUL bytes, or "" when there is none.
func FirstLine(text string, maxLen int) string {
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(line)
		if line != "" && len(line) <= maxLen && !strings.ContainsRune(line, 0) {
			return line
		}
	}
	return ""
}
