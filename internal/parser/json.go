package parser

import (
	"io"

	"github.com/leduardoaraujo/jsonexplorer/internal/doctree"
)

// JSONParser decodes JSON documents, keeping object key order.
type JSONParser struct{}

func (p *JSONParser) Parse(r io.Reader, filename string) (*doctree.Value, error) {
	return doctree.DecodeJSON(r)
}
