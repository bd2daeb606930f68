package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/leduardoaraujo/jsonexplorer/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Heading tags become markup headings and
// list items / paragraphs become dash lines, which then go through the
// markup grammar. Bold runs are kept as **...** so "<strong>k</strong>: v"
// reads back as a key/value pair.
type HTMLParser struct{}

// contentSelector picks the elements that carry document structure.
const contentSelector = "h1, h2, h3, h4, h5, h6, li, p, td, blockquote"

// skipAncestors are containers whose content is page chrome, not data.
const skipAncestors = "script, style, nav, footer, header"

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Value, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	scope := doc.Find("body")
	if scope.Length() == 0 {
		scope = doc.Selection
	}

	var w markupWriter
	scope.Find(contentSelector).Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered(skipAncestors).Length() > 0 {
			return
		}
		tag := goquery.NodeName(s)
		if level := headingLevel(tag); level > 0 {
			w.heading(level, s.Text())
			return
		}
		// Paragraphs inside list items or cells are already covered by
		// their container.
		if tag == "p" && s.ParentsFiltered("li, td, blockquote").Length() > 0 {
			return
		}
		w.item(inlineText(s))
	})

	return ParseMarkup(w.String()), nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

// inlineText collects the text of s, skipping nested lists (they are
// emitted as their own items) and restoring bold markers.
func inlineText(s *goquery.Selection) string {
	var buf strings.Builder
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "ul", "ol":
			return
		case "strong", "b":
			buf.WriteString("**" + strings.TrimSpace(c.Text()) + "**")
		case "#text":
			buf.WriteString(c.Text())
		default:
			buf.WriteString(inlineText(c))
		}
	})
	return strings.TrimSpace(buf.String())
}
