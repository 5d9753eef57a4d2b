// Package normalisers converts raw corpus files into clean text ready
// for chunking. Each sub-package handles one file format; selection is
// by file extension, with plain text as the fallback.
package normalisers

import (
	"path/filepath"
	"strings"

	"github.com/custodia-labs/lexsearch/internal/normalisers/html"
	"github.com/custodia-labs/lexsearch/internal/normalisers/markdown"
	"github.com/custodia-labs/lexsearch/internal/normalisers/plaintext"
)

// Normaliser turns raw file content into normalised corpus text.
type Normaliser interface {
	Normalise(raw []byte) string
}

// Interface checks for all format normalisers.
var (
	_ Normaliser = (*plaintext.Normaliser)(nil)
	_ Normaliser = (*markdown.Normaliser)(nil)
	_ Normaliser = (*html.Normaliser)(nil)
)

// ForPath returns the normaliser for a file path, chosen by extension.
func ForPath(path string) Normaliser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return markdown.New()
	case ".html", ".htm":
		return html.New()
	default:
		return plaintext.New()
	}
}
