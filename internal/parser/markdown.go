package parser

import (
	"io"
	"regexp"
	"strings"

	"github.com/leduardoaraujo/jsonexplorer/internal/doctree"
)

// MarkdownParser handles heading/list markup files.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Value, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseMarkup(string(src)), nil
}

// boldKeyRe matches the first **key** pair of a key/value line.
var boldKeyRe = regexp.MustCompile(`\*\*(.+?)\*\*`)

// ParseMarkup rebuilds a tree from heading/list markup. It never fails:
// lines it cannot classify as key/value pairs become plain list entries and
// any other line form is skipped.
//
// The result is the root mapping, or a sequence when list entries appear
// before the first heading.
func ParseMarkup(markup string) *doctree.Value {
	b := newTreeBuilder()

	for _, line := range strings.Split(markup, "\n") {
		b.line(line)
	}
	return b.root
}

// treeBuilder is the per-call state of ParseMarkup.
type treeBuilder struct {
	root *doctree.Value
	// stack holds the open sections; index = nesting level - 1.
	stack []*doctree.Value
	// current is where key/value and list lines are written.
	current *doctree.Value
}

func newTreeBuilder() *treeBuilder {
	root := doctree.Mapping()
	return &treeBuilder{root: root, current: root}
}

func (b *treeBuilder) line(raw string) {
	line := strings.TrimSpace(raw)
	switch {
	case line == "":
		return
	case strings.HasPrefix(line, "#"):
		level := len(line) - len(strings.TrimLeft(line, "#"))
		b.heading(level, strings.TrimSpace(line[level:]))
	case strings.HasPrefix(line, "-"):
		b.dash(strings.TrimSpace(line[1:]))
	}
}

func (b *treeBuilder) heading(level int, name string) {
	// A heading at level L closes every open section at depth >= L.
	if keep := level - 1; keep < len(b.stack) {
		b.stack = b.stack[:keep]
	}
	parent := b.root
	if len(b.stack) > 0 {
		parent = b.stack[len(b.stack)-1]
	}

	section := doctree.Mapping()
	attach(parent, name, section)
	b.stack = append(b.stack, section)
	b.current = section
}

func (b *treeBuilder) dash(content string) {
	if key, value, ok := splitKeyValue(content); ok {
		attach(b.current, key, Coerce(value))
		return
	}
	// The section turns into a list in place, so its slot in the parent
	// now holds the sequence.
	b.current.ToSequence()
	b.current.Append(doctree.Text(content))
}

// attach stores child under key. A section that already became a list gets
// the child appended as a single-entry mapping instead.
func attach(container *doctree.Value, key string, child *doctree.Value) {
	switch container.Kind() {
	case doctree.KindMapping:
		container.Set(key, child)
	case doctree.KindSequence:
		container.Append(doctree.Mapping(doctree.Entry{Key: key, Value: child}))
	}
}

// splitKeyValue recognizes "**key**: value". The ": " has to come after the
// bold pair.
func splitKeyValue(content string) (key, value string, ok bool) {
	if !strings.Contains(content, ": ") {
		return "", "", false
	}
	loc := boldKeyRe.FindStringSubmatchIndex(content)
	if loc == nil {
		return "", "", false
	}
	rest := content[loc[1]:]
	idx := strings.Index(rest, ": ")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(content[loc[2]:loc[3]])
	value = strings.TrimSpace(rest[idx+2:])
	return key, value, true
}
