package render

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Format selects how the model's reply is printed.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatText, FormatHTML:
		return Format(s), true
	}
	return "", false
}

// Reply renders the reply in the requested format.
func Reply(f Format, reply string) string {
	if f == FormatHTML {
		return MarkdownToHTML(reply)
	}
	return reply
}

// MarkdownToHTML converts a markdown reply to an HTML fragment.
func MarkdownToHTML(md string) string {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	opts := html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank}
	renderer := html.NewRenderer(opts)

	return string(markdown.Render(doc, renderer))
}
