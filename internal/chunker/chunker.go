package chunker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leduardoaraujo/jsonexplorer/internal/doctree"
)

// Config controls transcoding behavior.
type Config struct {
	StartLevel int // Heading level used for top-level keys.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		StartLevel: 1,
	}
}

// Result is the markup produced for a tree and the trace of every line.
type Result struct {
	Markup string          `json:"markdown"`
	Chunks []doctree.Chunk `json:"chunks"`
}

// ChunkTree walks a tree depth-first and produces heading/list markup along
// with one chunk per emitted line, in document order. Text is written
// verbatim, so a value containing newlines is a single chunk spanning
// several physical lines; joining chunk contents with "\n" always gives
// Markup back.
func ChunkTree(v *doctree.Value, cfg Config) (Result, error) {
	if cfg.StartLevel <= 0 {
		cfg.StartLevel = 1
	}

	e := &emitter{}
	switch v.Kind() {
	case doctree.KindMapping:
		e.walkMapping(v, cfg.StartLevel)
	case doctree.KindSequence:
		e.walkSequence(v, cfg.StartLevel)
	case doctree.KindNull, doctree.KindBool, doctree.KindInt, doctree.KindFloat, doctree.KindText:
		// A bare scalar has no headings or items to emit.
	default:
		return Result{}, fmt.Errorf("%w: top-level value has kind %s", doctree.ErrInvalidInput, v.Kind())
	}
	if e.err != nil {
		return Result{}, e.err
	}

	chunks := e.chunks
	if chunks == nil {
		chunks = []doctree.Chunk{}
	}
	return Result{
		Markup: strings.Join(e.lines, "\n"),
		Chunks: chunks,
	}, nil
}

// emitter holds the state of one ChunkTree call.
type emitter struct {
	path   Path
	lines  []string
	chunks []doctree.Chunk
	err    error
}

func (e *emitter) emit(line string, md doctree.Metadata) {
	e.lines = append(e.lines, line)
	e.chunks = append(e.chunks, doctree.Chunk{
		Content:  line,
		Path:     e.path.String(),
		Metadata: md,
	})
}

func (e *emitter) walkMapping(m *doctree.Value, level int) {
	for _, entry := range m.Entries() {
		if e.err != nil {
			return
		}
		e.emit(heading(level, entry.Key), doctree.Metadata{
			Type:  doctree.ChunkHeading,
			Level: level,
			Key:   entry.Key,
		})
		e.mappingValue(entry, level)
	}
}

func (e *emitter) mappingValue(entry doctree.Entry, level int) {
	defer e.path.Enter(entry.Key)()

	v := entry.Value
	switch v.Kind() {
	case doctree.KindMapping:
		e.walkMapping(v, level+1)
	case doctree.KindSequence:
		e.walkSequence(v, level+1)
	case doctree.KindNull, doctree.KindBool, doctree.KindInt, doctree.KindFloat, doctree.KindText:
		e.emit(listLine(v), doctree.Metadata{
			Type:      doctree.ChunkValue,
			Level:     level,
			Key:       entry.Key,
			ValueType: v.Kind().String(),
		})
	default:
		e.err = fmt.Errorf("%w: %s has kind %s", doctree.ErrInvalidInput, e.path.String(), v.Kind())
	}
}

func (e *emitter) walkSequence(seq *doctree.Value, level int) {
	for i, item := range seq.Items() {
		if e.err != nil {
			return
		}
		e.sequenceItem(i, item, level)
	}
}

func (e *emitter) sequenceItem(i int, item *doctree.Value, level int) {
	switch item.Kind() {
	case doctree.KindMapping:
		e.emit(heading(level, "Item "+strconv.Itoa(i+1)), doctree.Metadata{
			Type:  doctree.ChunkHeading,
			Level: level,
			Key:   "item_" + strconv.Itoa(i),
		})
		defer e.path.EnterIndex(i)()
		e.walkMapping(item, level+1)
	case doctree.KindSequence, doctree.KindNull, doctree.KindBool, doctree.KindInt, doctree.KindFloat, doctree.KindText:
		index := i
		e.emit(listLine(item), doctree.Metadata{
			Type:  doctree.ChunkListItem,
			Level: level,
			Index: &index,
		})
	default:
		e.err = fmt.Errorf("%w: %s item %d has kind %s", doctree.ErrInvalidInput, e.path.String(), i, item.Kind())
	}
}

func heading(level int, text string) string {
	return strings.Repeat("#", level) + " " + text
}

func listLine(v *doctree.Value) string {
	return "  - " + Stringify(v)
}
