// Package preview renders heading/list markup to HTML for display.
package preview

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Heading is one entry of the document outline.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Result is a rendered preview.
type Result struct {
	HTML    string    `json:"html"`
	Outline []Heading `json:"outline"`
}

// Renderer wraps a configured goldmark instance. It is safe for
// concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// New returns a Renderer. Single newlines become <br> so each emitted
// line stays on its own row, and raw HTML in the input is escaped.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// Render converts markup to HTML and collects its heading outline.
func (r *Renderer) Render(markup string) (Result, error) {
	src := []byte(markup)
	doc := r.md.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return Result{}, fmt.Errorf("render markup: %w", err)
	}

	outline := []Heading{}
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		outline = append(outline, Heading{Level: h.Level, Text: inlineText(h, src)})
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("walk markup: %w", err)
	}

	return Result{HTML: buf.String(), Outline: outline}, nil
}

// inlineText gets the plain text of an inline container.
func inlineText(n ast.Node, src []byte) string {
	var buf strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
			continue
		}
		buf.WriteString(inlineText(c, src))
	}
	return strings.TrimSpace(buf.String())
}
