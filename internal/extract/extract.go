// Package extract converts uploaded course documents into plain text.
//
// Each extractor is a pure function from a file on disk to a string: the
// same bytes always produce the same text. Dispatch happens by file
// extension; formats without a real extractor resolve to a no-op that
// yields empty text rather than an error, so unsupported uploads still
// complete instead of failing.
package extract

import (
	"path/filepath"
	"strings"
)

// Extractor converts one document file into plain text.
type Extractor interface {
	Extract(path string) (string, error)
}

// ForFilename selects the extractor for a file by its lower-cased
// extension. Unknown extensions resolve to the no-op extractor.
func ForFilename(name string) Extractor {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return PDF{}
	case ".pptx":
		return PPTX{}
	default:
		return Noop{}
	}
}

// Noop is the extractor for unsupported formats. It produces empty text,
// which lets the record reach "completed" with no content.
type Noop struct{}

func (Noop) Extract(path string) (string, error) {
	return "", nil
}

// collapseWhitespace replaces every run of whitespace with a single space
// and trims the result.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
