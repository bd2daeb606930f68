package chunker

import (
	"strconv"
	"strings"
)

// PathSeparator joins breadcrumb segments for display.
const PathSeparator = " > "

// rootPath is what an empty breadcrumb renders as.
const rootPath = "root"

// Path is the breadcrumb stack of keys and indices from the document root
// to the node currently being emitted.
type Path struct {
	segments []string
}

// Enter pushes a segment and returns the func that pops it again, so callers
// can defer the pop on every exit path.
func (p *Path) Enter(segment string) func() {
	p.segments = append(p.segments, segment)
	depth := len(p.segments)
	return func() {
		p.segments = p.segments[:depth-1]
	}
}

// EnterIndex pushes a sequence index rendered as [i].
func (p *Path) EnterIndex(i int) func() {
	return p.Enter(IndexSegment(i))
}

// Depth returns the number of segments on the stack.
func (p *Path) Depth() int {
	return len(p.segments)
}

// Segments returns a copy of the current breadcrumb.
func (p *Path) Segments() []string {
	return copyBreadcrumb(p.segments)
}

// String renders the breadcrumb, or "root" when it is empty.
func (p *Path) String() string {
	return FormatPath(p.segments)
}

// FormatPath joins segments for display.
func FormatPath(segments []string) string {
	if len(segments) == 0 {
		return rootPath
	}
	return strings.Join(segments, PathSeparator)
}

// SplitPath is the inverse of FormatPath.
func SplitPath(path string) []string {
	if path == "" || path == rootPath {
		return nil
	}
	return strings.Split(path, PathSeparator)
}

// IndexSegment renders a sequence index as a path segment.
func IndexSegment(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}
