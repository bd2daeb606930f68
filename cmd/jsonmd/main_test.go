package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestMarkdownCmd(t *testing.T) {
	path := writeFile(t, "perfil.json", `{"usuario": {"nome": "Ana"}}`)
	var out bytes.Buffer
	cmd := &MarkdownCmd{File: path, Level: 2}
	if err := cmd.run(&out, quietLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "## usuario\n### nome\n  - Ana\n"
	if out.String() != want {
		t.Errorf("expected %q, got %q", want, out.String())
	}
}

func TestMarkdownCmd_Chunks(t *testing.T) {
	path := writeFile(t, "tags.json", `{"tags": ["x", "y"]}`)
	var out bytes.Buffer
	cmd := &MarkdownCmd{File: path, Level: 1, Chunks: true}
	if err := cmd.run(&out, quietLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var chunks []map[string]any
	if err := json.Unmarshal(out.Bytes(), &chunks); err != nil {
		t.Fatalf("decode chunks: %v", err)
	}
	if len(chunks) != 3 || chunks[2]["content"] != "  - y" {
		t.Errorf("unexpected chunks %v", chunks)
	}
}

func TestMarkdownCmd_BadLevel(t *testing.T) {
	path := writeFile(t, "a.json", `{}`)
	cmd := &MarkdownCmd{File: path, Level: 0}
	if err := cmd.run(io.Discard, quietLogger()); err == nil {
		t.Error("expected error for level 0")
	}
}

func TestTreeCmd(t *testing.T) {
	path := writeFile(t, "notes.md", "# perfil\n- **idade**: 30\n- **ativo**: true")
	var out bytes.Buffer
	cmd := &TreeCmd{File: path, Compact: true}
	if err := cmd.run(&out, quietLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"perfil":{"idade":30,"ativo":true}}`
	if got := strings.TrimSpace(out.String()); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestTreeCmd_Unsupported(t *testing.T) {
	path := writeFile(t, "a.xyz", "x")
	if err := (&TreeCmd{File: path}).run(io.Discard, quietLogger()); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestPreviewCmd_Outline(t *testing.T) {
	path := writeFile(t, "doc.md", "# a\n## b\n  - c\n# d")
	var out bytes.Buffer
	cmd := &PreviewCmd{File: path, Outline: true}
	if err := cmd.run(&out, quietLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "a\n  b\nd\n"
	if out.String() != want {
		t.Errorf("expected %q, got %q", want, out.String())
	}
}
