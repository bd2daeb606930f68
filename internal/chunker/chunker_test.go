package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/leduardoaraujo/jsonexplorer/internal/doctree"
)

func mustDecode(t *testing.T, src string) *doctree.Value {
	t.Helper()
	v, err := doctree.DecodeJSON(strings.NewReader(src))
	if err != nil {
		t.Fatalf("decode %s: %v", src, err)
	}
	return v
}

func TestChunkTree_EndToEnd(t *testing.T) {
	v := mustDecode(t, `{"name": "Ana", "tags": ["x", "y"]}`)

	res, err := ChunkTree(v, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantMarkup := "# name\n  - Ana\n# tags\n  - x\n  - y"
	if res.Markup != wantMarkup {
		t.Errorf("expected markup %q, got %q", wantMarkup, res.Markup)
	}

	want := []struct {
		content string
		path    string
		typ     doctree.ChunkType
	}{
		{"# name", "root", doctree.ChunkHeading},
		{"  - Ana", "name", doctree.ChunkValue},
		{"# tags", "root", doctree.ChunkHeading},
		{"  - x", "tags", doctree.ChunkListItem},
		{"  - y", "tags", doctree.ChunkListItem},
	}
	if len(res.Chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(res.Chunks))
	}
	for i, w := range want {
		c := res.Chunks[i]
		if c.Content != w.content {
			t.Errorf("chunk %d: expected content %q, got %q", i, w.content, c.Content)
		}
		if c.Path != w.path {
			t.Errorf("chunk %d: expected path %q, got %q", i, w.path, c.Path)
		}
		if c.Metadata.Type != w.typ {
			t.Errorf("chunk %d: expected type %q, got %q", i, w.typ, c.Metadata.Type)
		}
	}

	if res.Chunks[1].Metadata.Key != "name" || res.Chunks[1].Metadata.ValueType != "string" {
		t.Errorf("unexpected value metadata: %+v", res.Chunks[1].Metadata)
	}
}

func TestChunkTree_NestedPaths(t *testing.T) {
	v := mustDecode(t, `{"a": {"b": 1}}`)
	res, err := ChunkTree(v, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(res.Chunks))
	}

	b := res.Chunks[1]
	if b.Content != "## b" {
		t.Errorf("expected %q, got %q", "## b", b.Content)
	}
	if b.Path != "a" {
		t.Errorf("expected heading path %q, got %q", "a", b.Path)
	}
	if b.Metadata.Level != 2 {
		t.Errorf("expected level 2, got %d", b.Metadata.Level)
	}

	one := res.Chunks[2]
	if one.Path != "a > b" {
		t.Errorf("expected value path %q, got %q", "a > b", one.Path)
	}
	if one.Metadata.ValueType != "integer" {
		t.Errorf("expected value_type integer, got %q", one.Metadata.ValueType)
	}
}

func TestChunkTree_SequenceItems(t *testing.T) {
	v := mustDecode(t, `{"items": [1, 2]}`)
	res, err := ChunkTree(v, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var items []doctree.Chunk
	for _, c := range res.Chunks {
		if c.Metadata.Type == doctree.ChunkListItem {
			items = append(items, c)
		}
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 list_item chunks, got %d", len(items))
	}
	for i, c := range items {
		if c.Metadata.Index == nil || *c.Metadata.Index != i {
			t.Errorf("item %d: expected index %d, got %v", i, i, c.Metadata.Index)
		}
		if c.Path != "items" {
			t.Errorf("item %d: expected path %q, got %q", i, "items", c.Path)
		}
		if c.Metadata.Level != 2 {
			t.Errorf("item %d: expected level 2, got %d", i, c.Metadata.Level)
		}
	}
}

func TestChunkTree_SequenceOfMappings(t *testing.T) {
	v := mustDecode(t, `{"orders": [{"id": 7}, {"id": 8}]}`)
	res, err := ChunkTree(v, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantMarkup := strings.Join([]string{
		"# orders",
		"## Item 1",
		"### id",
		"  - 7",
		"## Item 2",
		"### id",
		"  - 8",
	}, "\n")
	if res.Markup != wantMarkup {
		t.Errorf("expected markup:\n%s\ngot:\n%s", wantMarkup, res.Markup)
	}

	item := res.Chunks[1]
	if item.Metadata.Key != "item_0" || item.Path != "orders" {
		t.Errorf("unexpected item heading chunk: %+v", item)
	}
	id := res.Chunks[2]
	if id.Path != "orders > [0]" {
		t.Errorf("expected path %q, got %q", "orders > [0]", id.Path)
	}
	val := res.Chunks[6]
	if val.Path != "orders > [1] > id" {
		t.Errorf("expected path %q, got %q", "orders > [1] > id", val.Path)
	}
}

func TestChunkTree_ChunkOrderMatchesLines(t *testing.T) {
	v := mustDecode(t, `{"a": {"b": [true, null, 2.5], "c": "x"}, "d": [[1, 2], {"e": false}]}`)
	res, err := ChunkTree(v, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(res.Markup, "\n")
	if len(lines) != len(res.Chunks) {
		t.Fatalf("expected %d chunks for %d lines", len(lines), len(res.Chunks))
	}
	for i, line := range lines {
		if res.Chunks[i].Content != line {
			t.Errorf("line %d: expected chunk %q, got %q", i, line, res.Chunks[i].Content)
		}
	}

	// Nested sequence is rendered as a single leaf.
	if !strings.Contains(res.Markup, "  - [1,2]") {
		t.Errorf("expected nested sequence leaf in markup, got %q", res.Markup)
	}
}

func TestChunkTree_MultilineTextIsOneChunk(t *testing.T) {
	v := mustDecode(t, `{"nota": "linha 1\nlinha 2", "tags": ["a\nb", "c"]}`)
	res, err := ChunkTree(v, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"# nota", "  - linha 1\nlinha 2", "# tags", "  - a\nb", "  - c"}
	if len(res.Chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(res.Chunks))
	}
	contents := make([]string, len(res.Chunks))
	for i, c := range res.Chunks {
		contents[i] = c.Content
		if c.Content != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], c.Content)
		}
	}
	if got := strings.Join(contents, "\n"); got != res.Markup {
		t.Errorf("expected joined chunks %q, got markup %q", got, res.Markup)
	}
	if n := len(strings.Split(res.Markup, "\n")); n != 7 {
		t.Errorf("expected 7 physical lines, got %d", n)
	}
}

func TestChunkTree_TopLevelSequence(t *testing.T) {
	v := mustDecode(t, `[{"id": 1}, "loose"]`)
	res, err := ChunkTree(v, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "# Item 1\n## id\n  - 1\n  - loose"
	if res.Markup != want {
		t.Errorf("expected %q, got %q", want, res.Markup)
	}
	if res.Chunks[3].Path != "root" {
		t.Errorf("expected path root, got %q", res.Chunks[3].Path)
	}
}

func TestChunkTree_TopLevelScalar(t *testing.T) {
	res, err := ChunkTree(doctree.Int(5), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Markup != "" {
		t.Errorf("expected empty markup, got %q", res.Markup)
	}
	if len(res.Chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(res.Chunks))
	}
}

func TestChunkTree_InvalidInput(t *testing.T) {
	_, err := ChunkTree(nil, DefaultConfig())
	if !errors.Is(err, doctree.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	bad := doctree.Mapping(
		doctree.Entry{Key: "ok", Value: doctree.Int(1)},
		doctree.Entry{Key: "broken", Value: nil},
	)
	res, err := ChunkTree(bad, DefaultConfig())
	if !errors.Is(err, doctree.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(res.Chunks) != 0 {
		t.Errorf("expected no partial chunks, got %d", len(res.Chunks))
	}
}

func TestChunkTree_StartLevel(t *testing.T) {
	v := mustDecode(t, `{"a": {"b": 1}}`)
	res, err := ChunkTree(v, Config{StartLevel: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "### a\n#### b\n  - 1"
	if res.Markup != want {
		t.Errorf("expected %q, got %q", want, res.Markup)
	}
}

func TestChunkTree_EmptyContainers(t *testing.T) {
	v := mustDecode(t, `{"a": {}, "b": []}`)
	res, err := ChunkTree(v, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Markup != "# a\n# b" {
		t.Errorf("expected only headings, got %q", res.Markup)
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		v    *doctree.Value
		want string
	}{
		{doctree.Bool(true), "true"},
		{doctree.Bool(false), "false"},
		{doctree.Null(), "null"},
		{doctree.Int(-42), "-42"},
		{doctree.Float(4.8), "4.8"},
		{doctree.Float(1), "1.0"},
		{doctree.Float(1e21), "1e+21"},
		{doctree.Float(1e-7), "1e-7"},
		{doctree.Text("Olá, mundo"), "Olá, mundo"},
		{doctree.Sequence(doctree.Int(1), doctree.Text("a")), `[1,"a"]`},
	}
	for _, tt := range tests {
		if got := Stringify(tt.v); got != tt.want {
			t.Errorf("Stringify(%s): expected %q, got %q", tt.v.Kind(), tt.want, got)
		}
	}
}

func TestPath_EnterAndPop(t *testing.T) {
	var p Path
	if p.String() != "root" {
		t.Errorf("expected root, got %q", p.String())
	}

	popA := p.Enter("a")
	popIdx := p.EnterIndex(2)
	if p.String() != "a > [2]" {
		t.Errorf("expected %q, got %q", "a > [2]", p.String())
	}
	popIdx()
	popA()
	if p.Depth() != 0 {
		t.Errorf("expected empty path, got depth %d", p.Depth())
	}

	segs := SplitPath("a > [2] > b")
	if len(segs) != 3 || segs[1] != "[2]" {
		t.Errorf("unexpected segments %v", segs)
	}
	if SplitPath("root") != nil {
		t.Error("expected nil segments for root")
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Error("expected 0 tokens for empty text")
	}
	if EstimateTokens("x") != 1 {
		t.Errorf("expected 1 token, got %d", EstimateTokens("x"))
	}
	if got := EstimateTokens("# a b c"); got != 5 {
		t.Errorf("expected 5 tokens, got %d", got)
	}
}
