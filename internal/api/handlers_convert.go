package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/leduardoaraujo/jsonexplorer/internal/chunker"
	"github.com/leduardoaraujo/jsonexplorer/internal/doctree"
	"github.com/leduardoaraujo/jsonexplorer/internal/parser"
	"github.com/leduardoaraujo/jsonexplorer/internal/stats"
)

// handleToMarkdown transcodes a JSON body into markup plus its chunk trace.
func (s *Server) handleToMarkdown(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cfg, err := s.chunkConfig(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	tree, err := doctree.DecodeJSON(r.Body)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}

	res, err := chunker.ChunkTree(tree, cfg)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	s.stats.Record(stats.OpToMarkdown, time.Since(start), len(res.Chunks))
	writeJSON(w, http.StatusOK, res)
}

// handleToJSON rebuilds a tree from markup sent as text or as
// {"markdown": "..."}.
func (s *Server) handleToJSON(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	markup, err := s.readMarkup(w, r)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	tree := parser.ParseMarkup(markup)
	s.stats.Record(stats.OpToJSON, time.Since(start), 0)
	writeJSON(w, http.StatusOK, tree)
}

// handlePreview renders markup to HTML with a heading outline.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	markup, err := s.readMarkup(w, r)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	res, err := s.preview.Render(markup)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.stats.Record(stats.OpPreview, time.Since(start), 0)
	writeJSON(w, http.StatusOK, res)
}

// handleUpload converts an uploaded file of any supported type to a tree,
// then to markup and chunks.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cfg, err := s.chunkConfig(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	p, err := parser.ForFileWithOptions(filename, parser.Options{PDFFallbackPdftotext: s.cfg.PDFFallbackPdftotext})
	if err != nil {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	tree, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		s.log.Warn("upload parse failed", "filename", filename, "error", err)
		jsonError(w, "parse: "+err.Error(), http.StatusBadRequest)
		return
	}
	res, err := chunker.ChunkTree(tree, cfg)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	s.stats.Record(stats.OpUpload, time.Since(start), len(res.Chunks))

	writeJSON(w, http.StatusOK, map[string]any{
		"filename": filename,
		"markdown": res.Markup,
		"chunks":   res.Chunks,
		"tree":     tree,
	})
}

// chunkConfig applies the optional ?level= override to the configured
// start level.
func (s *Server) chunkConfig(r *http.Request) (chunker.Config, error) {
	cfg := chunker.Config{StartLevel: s.cfg.StartLevel}
	if v := r.URL.Query().Get("level"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 6 {
			return cfg, fmt.Errorf("level must be an integer between 1 and 6")
		}
		cfg.StartLevel = n
	}
	return cfg, nil
}

// readMarkup accepts either a JSON envelope or the raw markup text.
func (s *Server) readMarkup(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return string(body), nil
	}
	var req struct {
		Markdown *string `json:"markdown"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return "", fmt.Errorf("%w: %v", doctree.ErrInvalidInput, err)
	}
	if req.Markdown == nil {
		return "", fmt.Errorf("%w: markdown field is required", doctree.ErrInvalidInput)
	}
	return *req.Markdown, nil
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, doctree.ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
