package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/leduardoaraujo/jsonexplorer/internal/doctree"
)

// Parser converts raw document bytes into a tree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Value, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".json":     true,
	".csv":      true,
	".md":       true,
	".markdown": true,
	".txt":      true,
	".html":     true,
	".htm":      true,
	".docx":     true,
	".pdf":      true,
}

// Options tune parsers that shell out or guess structure.
type Options struct {
	PDFFallbackPdftotext bool
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	return ForFileWithOptions(filename, Options{})
}

// ForFileWithOptions is ForFile with parser options applied.
func ForFileWithOptions(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// IsTreeSource reports whether the file already holds a tree (as opposed to
// markup that has to be reverse transcoded).
func IsTreeSource(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json", ".csv":
		return true
	}
	return false
}

// markupWriter collects normalized heading/list lines from structured
// formats before they go through ParseMarkup.
type markupWriter struct {
	lines []string
}

func (w *markupWriter) heading(level int, text string) {
	text = collapseSpace(text)
	if level <= 0 || text == "" {
		return
	}
	w.lines = append(w.lines, strings.Repeat("#", level)+" "+text)
}

func (w *markupWriter) item(text string) {
	text = collapseSpace(text)
	if text == "" {
		return
	}
	w.lines = append(w.lines, "- "+text)
}

func (w *markupWriter) String() string {
	return strings.Join(w.lines, "\n")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
