// Package markdown normalises Markdown corpus files.
package markdown

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/lexsearch/internal/normalisers/plaintext"
)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Normalise converts Markdown to plain corpus text with formatting
// stripped, then applies the plain text cleanup.
func (n *Normaliser) Normalise(raw []byte) string {
	content := stripMarkdown(string(raw))
	return plaintext.New().Normalise([]byte(content))
}

// Pre-compiled expressions for markdown stripping.
var (
	codeBlock    = regexp.MustCompile("(?s)```[^`]*```")
	inlineCode   = regexp.MustCompile("`[^`]+`")
	images       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	blockquote   = regexp.MustCompile(`(?m)^>[ \t]*`)
	hr           = regexp.MustCompile(`(?m)^[-*_]{3,}[ \t]*$`)
	listMarkers  = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numberedList = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`)
)

// stripMarkdown removes common markdown formatting. This is a
// simplified implementation that handles common cases.
func stripMarkdown(content string) string {
	content = codeBlock.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "")
	content = images.ReplaceAllString(content, "")

	// Convert links [text](url) to just text
	content = links.ReplaceAllString(content, "$1")

	content = headings.ReplaceAllString(content, "")

	// Bold/italic markers
	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")
	content = strings.ReplaceAll(content, "*", "")
	content = strings.ReplaceAll(content, "_", " ")

	content = blockquote.ReplaceAllString(content, "")
	content = hr.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")

	return strings.TrimSpace(content)
}
