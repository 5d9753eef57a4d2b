// Package plaintext normalises plain text corpus files.
package plaintext

import (
	"bytes"
	"regexp"
	"strings"
)

// Normaliser handles plain text documents. It is also the fallback for
// unrecognised file types.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

var multiNewlines = regexp.MustCompile(`\n{3,}`)

// Normalise converts raw bytes to clean text: the byte order mark is
// stripped, line endings become \n, trailing whitespace is removed per
// line and runs of blank lines collapse to one.
func (n *Normaliser) Normalise(raw []byte) string {
	content := string(bytes.TrimPrefix(raw, []byte("\ufeff")))

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = strings.Join(lines, "\n")

	content = multiNewlines.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
