// Command jsonmd converts between JSON trees and heading/list markup.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/leduardoaraujo/jsonexplorer/internal/chunker"
	"github.com/leduardoaraujo/jsonexplorer/internal/doctree"
	"github.com/leduardoaraujo/jsonexplorer/internal/parser"
	"github.com/leduardoaraujo/jsonexplorer/internal/preview"
)

// CLI defines the command-line interface.
var CLI struct {
	Verbose bool `name:"verbose" short:"v" help:"Log progress to stderr"`

	Markdown MarkdownCmd `cmd:"" help:"Convert a file to heading/list markup"`
	Tree     TreeCmd     `cmd:"" help:"Convert a file to a JSON tree"`
	Preview  PreviewCmd  `cmd:"" help:"Render markup to HTML"`
}

// MarkdownCmd prints the markup (or the chunk trace) for a file.
type MarkdownCmd struct {
	File   string `arg:"" type:"existingfile" help:"Input file (.json, .csv, .md, .txt, .html, .docx, .pdf)"`
	Level  int    `name:"level" short:"l" default:"1" help:"Heading level for top-level keys (1-6)"`
	Chunks bool   `name:"chunks" help:"Print the chunk trace as JSON instead of markup"`
}

func (c *MarkdownCmd) Run(log *slog.Logger) error {
	return c.run(os.Stdout, log)
}

func (c *MarkdownCmd) run(out io.Writer, log *slog.Logger) error {
	if c.Level < 1 || c.Level > 6 {
		return fmt.Errorf("--level must be between 1 and 6, got %d", c.Level)
	}
	tree, err := loadTree(c.File, log)
	if err != nil {
		return err
	}
	res, err := chunker.ChunkTree(tree, chunker.Config{StartLevel: c.Level})
	if err != nil {
		return err
	}
	log.Info("converted", "chunks", humanize.Comma(int64(len(res.Chunks))), "tokens", chunker.EstimateChunkTokens(res))

	if c.Chunks {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Chunks)
	}
	if res.Markup == "" {
		return nil
	}
	_, err = fmt.Fprintln(out, res.Markup)
	return err
}

// TreeCmd prints the JSON tree for any supported file.
type TreeCmd struct {
	File    string `arg:"" type:"existingfile" help:"Input file"`
	Compact bool   `name:"compact" help:"Print without indentation"`
}

func (c *TreeCmd) Run(log *slog.Logger) error {
	return c.run(os.Stdout, log)
}

func (c *TreeCmd) run(out io.Writer, log *slog.Logger) error {
	tree, err := loadTree(c.File, log)
	if err != nil {
		return err
	}
	raw, err := tree.MarshalJSON()
	if err != nil {
		return err
	}
	if c.Compact {
		_, err = fmt.Fprintln(out, string(raw))
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, buf.String())
	return err
}

// PreviewCmd renders a markup file to HTML.
type PreviewCmd struct {
	File    string `arg:"" type:"existingfile" help:"Markup file"`
	Outline bool   `name:"outline" help:"Print the heading outline instead of HTML"`
}

func (c *PreviewCmd) Run(log *slog.Logger) error {
	return c.run(os.Stdout, log)
}

func (c *PreviewCmd) run(out io.Writer, log *slog.Logger) error {
	data, err := readInput(c.File, log)
	if err != nil {
		return err
	}
	res, err := preview.New().Render(string(data))
	if err != nil {
		return err
	}
	if c.Outline {
		for _, h := range res.Outline {
			fmt.Fprintf(out, "%*s%s\n", (h.Level-1)*2, "", h.Text)
		}
		return nil
	}
	_, err = io.WriteString(out, res.HTML)
	return err
}

func readInput(path string, log *slog.Logger) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	log.Info("read input", "file", path, "size", humanize.Bytes(uint64(len(data))))
	return data, nil
}

// loadTree parses path with the parser for its extension.
func loadTree(path string, log *slog.Logger) (*doctree.Value, error) {
	p, err := parser.ForFileWithOptions(path, parser.Options{PDFFallbackPdftotext: true})
	if err != nil {
		return nil, err
	}
	data, err := readInput(path, log)
	if err != nil {
		return nil, err
	}
	tree, err := p.Parse(bytes.NewReader(data), path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return tree, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("jsonmd"),
		kong.Description("Convert JSON trees to heading/list markup and back"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(newLogger(CLI.Verbose))
	ctx.FatalIfErrorf(err)
}
