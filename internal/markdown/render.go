// Package markdown renders model-produced Markdown for the comparison
// modal. A real parser is used on purpose: the comparison text comes from
// an LLM and regex substitution breaks on anything but the exact shapes it
// was written against.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough),
	goldmark.WithRendererOptions(
		// Model output treats single newlines as line breaks.
		html.WithHardWraps(),
	),
)

// ToHTML converts a Markdown document to HTML. Headings, emphasis, inline
// code, blockquotes, line breaks and tables are all the comparison view
// needs; raw HTML in the source stays escaped.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}
