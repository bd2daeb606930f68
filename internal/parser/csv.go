package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/leduardoaraujo/jsonexplorer/internal/doctree"
)

// CSVParser handles CSV files. The first row is the header; every other
// row becomes a mapping from header to coerced cell value.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Value, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	rows := doctree.Sequence()
	if len(records) == 0 {
		return rows, nil
	}

	headers := csvHeaders(records[0])
	for _, record := range records[1:] {
		row := doctree.Mapping()
		for j, cell := range record {
			key := columnName(j)
			if j < len(headers) {
				key = headers[j]
			}
			row.Set(key, Coerce(strings.TrimSpace(cell)))
		}
		rows.Append(row)
	}
	return rows, nil
}

// csvHeaders names blank columns and makes duplicates unique.
func csvHeaders(record []string) []string {
	seen := make(map[string]int, len(record))
	headers := make([]string, len(record))
	for j, h := range record {
		h = strings.TrimSpace(h)
		if h == "" {
			h = columnName(j)
		}
		seen[h]++
		if n := seen[h]; n > 1 {
			h = fmt.Sprintf("%s_%d", h, n)
		}
		headers[j] = h
	}
	return headers
}

func columnName(j int) string {
	return fmt.Sprintf("column_%d", j+1)
}
