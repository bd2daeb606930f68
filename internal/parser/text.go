package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/leduardoaraujo/jsonexplorer/internal/doctree"
)

// TextParser handles plain text files. Heading and dash lines are read as
// markup; any other non-blank line becomes a plain list entry so prose is
// kept instead of skipped.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Value, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var w markupWriter
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#"), strings.HasPrefix(line, "-"):
			w.lines = append(w.lines, line)
		default:
			w.item(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return ParseMarkup(w.String()), nil
}
