package book

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ChapterText is one finished chapter headed for the manuscript.
type ChapterText struct {
	Number int
	Title  string
	Text   string
}

// AssembleManuscript joins chapters into a single markdown document.
func AssembleManuscript(title string, chapters []ChapterText) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", strings.TrimSpace(title))
	for _, ch := range chapters {
		heading := strings.TrimSpace(ch.Title)
		if heading == "" {
			heading = fmt.Sprintf("Chapter %d", ch.Number)
		} else {
			heading = fmt.Sprintf("Chapter %d — %s", ch.Number, heading)
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", heading, strings.TrimSpace(ch.Text))
	}
	return b.String()
}

// RenderHTML converts the assembled markdown manuscript to a standalone
// HTML preview.
func RenderHTML(markdown string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM, extension.Typographer))
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render manuscript html: %w", err)
	}
	var out strings.Builder
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	out.WriteString("<style>body{max-width:42em;margin:2em auto;font-family:Georgia,serif;line-height:1.6;}</style>\n")
	out.WriteString("</head>\n<body>\n")
	out.Write(buf.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.String(), nil
}
