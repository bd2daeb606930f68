package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leduardoaraujo/jsonexplorer/internal/chunker"
	"github.com/leduardoaraujo/jsonexplorer/internal/doctree"
	"github.com/leduardoaraujo/jsonexplorer/internal/parser"
	"github.com/leduardoaraujo/jsonexplorer/internal/pathstore"
	"github.com/leduardoaraujo/jsonexplorer/internal/stats"
)

// Worker processes a single document job.
type Worker struct {
	pathstore  *pathstore.Client
	log        *slog.Logger
	chunkCfg   chunker.Config
	parserOpts parser.Options
	stats      *stats.Recorder

	maxConcurrentStore int
}

func NewWorker(ps *pathstore.Client, log *slog.Logger, chunkCfg chunker.Config, parserOpts parser.Options, rec *stats.Recorder, maxStore int) *Worker {
	if maxStore <= 0 {
		maxStore = 1
	}
	return &Worker{
		pathstore:          ps,
		log:                log,
		chunkCfg:           chunkCfg,
		parserOpts:         parserOpts,
		stats:              rec,
		maxConcurrentStore: maxStore,
	}
}

// Process runs the full export pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "user_id", job.UserID)
	start := time.Now()

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFileWithOptions(job.Filename, w.parserOpts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	tree, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	// Jobs outlive processing by JobTTL; drop the upload once parsed.
	job.SetFileData(nil)

	// The hash covers the parsed tree so the same data in two formats
	// counts as one document.
	canonical, err := tree.MarshalJSON()
	if err != nil {
		log.Error("encode tree failed", "error", err)
		job.AddError(fmt.Sprintf("encode: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	hash := ContentHashHex(canonical)
	job.update(func(j *Job) { j.ContentHash = hash })

	// Phase 1.5: Dedup check
	if !job.Force {
		existingDocID, err := w.checkDuplicate(ctx, job)
		if err != nil {
			log.Warn("dedup check failed, proceeding", "error", err)
		} else if existingDocID != "" {
			log.Info("duplicate document, skipping", "existing_doc_id", existingDocID)
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		}
	}

	// Phase 2: Chunk
	job.SetStatus(StatusChunking, "chunking")
	cfg := w.chunkCfg
	if job.StartLevel > 0 {
		cfg.StartLevel = job.StartLevel
	}
	res, err := chunker.ChunkTree(tree, cfg)
	if err != nil {
		log.Error("chunking failed", "error", err)
		job.AddError(fmt.Sprintf("chunk: %s", err))
		job.SetStatus(StatusFailed, "chunking")
		return
	}
	tokens := chunker.EstimateChunkTokens(res)
	job.SetTotals(len(res.Chunks), tokens)
	log.Info("chunked document", "chunks", len(res.Chunks), "tokens", tokens)

	if len(res.Chunks) == 0 {
		log.Warn("no chunks produced")
		job.AddError("document has no headings or entries")
		job.SetStatus(StatusFailed, "chunking")
		return
	}

	// Phase 3: Store chunks with bounded concurrency.
	job.SetStatus(StatusStoring, "storing")
	stored := w.storeChunks(ctx, job, res.Chunks, log)

	storedCount := 0
	for _, ok := range stored {
		if ok {
			storedCount++
		}
	}
	hadErrors := storedCount < len(res.Chunks)

	// Phase 4: Link every chunk to the heading that opened its section.
	if storedCount > 0 {
		w.linkSections(ctx, job, res.Chunks, stored, log)
	}
	log.Info("storage complete", "stored", storedCount, "total", len(res.Chunks))

	if storedCount > 0 {
		w.writeMeta(ctx, job, len(res.Chunks), storedCount, tokens, log)
	}

	if w.stats != nil {
		w.stats.Record(stats.OpIngest, time.Since(start), storedCount)
	}

	switch {
	case hadErrors && storedCount > 0:
		job.SetStatus(StatusPartial, "done")
	case hadErrors:
		job.SetStatus(StatusFailed, "storing")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}

// storeChunks writes each chunk node and reports which ones succeeded.
func (w *Worker) storeChunks(ctx context.Context, job *Job, chunks []doctree.Chunk, log *slog.Logger) []bool {
	type storeResult struct {
		idx int
		err error
	}
	results := make(chan storeResult, len(chunks))
	sem := make(chan struct{}, w.maxConcurrentStore)

	for i, chunk := range chunks {
		sem <- struct{}{}
		go func(i int, c doctree.Chunk) {
			defer func() { <-sem }()
			key := pathstore.ChunkKey(job.UserID, job.DocID, i)
			err := withRetry(ctx, func() error {
				return w.pathstore.PutNode(ctx, key, chunkNode(job, i, c))
			})
			if err != nil && IsRetryable(err) {
				log.Warn("retries exhausted", "chunk", i, "error", err)
			}
			results <- storeResult{idx: i, err: err}
		}(i, chunk)
	}

	stored := make([]bool, len(chunks))
	for range chunks {
		r := <-results
		if r.err != nil {
			log.Error("store failed", "chunk", r.idx, "error", r.err)
			job.AddError(fmt.Sprintf("chunk %d: %s", r.idx, r.err))
			continue
		}
		stored[r.idx] = true
		job.IncrChunksStored()
	}
	return stored
}

func chunkNode(job *Job, index int, c doctree.Chunk) pathstore.NodeRequest {
	md := map[string]any{
		"type":  string(c.Metadata.Type),
		"level": c.Metadata.Level,
	}
	if c.Metadata.Key != "" {
		md["key"] = c.Metadata.Key
	}
	if c.Metadata.ValueType != "" {
		md["value_type"] = c.Metadata.ValueType
	}
	if c.Metadata.Index != nil {
		md["index"] = *c.Metadata.Index
	}
	return pathstore.NodeRequest{
		Value: map[string]any{
			"content":  c.Content,
			"path":     c.Path,
			"position": index,
			"tokens":   chunker.EstimateTokens(c.Content),
		},
		Metadata:   md,
		MemoryType: "document_chunk",
		Source:     "jsonexplorer:" + job.DocID,
	}
}

// linkSections adds an edge from each stored chunk to its stored section
// heading. Link failures are recorded but do not fail the job.
func (w *Worker) linkSections(ctx context.Context, job *Job, chunks []doctree.Chunk, stored []bool, log *slog.Logger) {
	for i, owner := range chunker.SectionOwners(chunks) {
		if owner < 0 || !stored[i] || !stored[owner] {
			continue
		}
		req := pathstore.LinkRequest{
			From:    pathstore.ChunkKey(job.UserID, job.DocID, i),
			To:      pathstore.ChunkKey(job.UserID, job.DocID, owner),
			Weight:  1.0,
			Summary: "in section " + chunks[owner].Content,
		}
		err := withRetry(ctx, func() error {
			return w.pathstore.PutLink(ctx, req)
		})
		if err != nil {
			log.Warn("link write failed", "chunk", i, "section", owner, "error", err)
			job.AddError(fmt.Sprintf("link %d->%d: %s", i, owner, err))
			continue
		}
		job.IncrLinksStored()
	}
}

func (w *Worker) writeMeta(ctx context.Context, job *Job, total, stored, tokens int, log *slog.Logger) {
	source := "jsonexplorer:" + job.DocID
	metaErr := w.pathstore.PutNode(ctx, pathstore.MetaKey(job.UserID, job.DocID), pathstore.NodeRequest{
		Value: map[string]any{
			"doc_id":        job.DocID,
			"filename":      job.Filename,
			"title":         job.Title,
			"content_hash":  job.ContentHash,
			"total_chunks":  total,
			"chunks_stored": stored,
			"tokens":        tokens,
			"created_at":    job.CreatedAt.Format(time.RFC3339),
		},
		MemoryType: "metacognitive",
		Source:     source,
	})
	if metaErr != nil {
		log.Error("meta write failed", "error", metaErr)
		job.AddError(fmt.Sprintf("meta: %s", metaErr))
	}

	hashErr := w.pathstore.PutNode(ctx, pathstore.HashKey(job.UserID, job.ContentHash), pathstore.NodeRequest{
		Value: map[string]any{
			"doc_id":     job.DocID,
			"filename":   job.Filename,
			"created_at": job.CreatedAt.Format(time.RFC3339),
		},
		MemoryType: "metacognitive",
		Source:     source,
	})
	if hashErr != nil {
		log.Error("hash index write failed", "error", hashErr)
	}
}

// checkDuplicate returns the doc ID already stored under this content
// hash, or "" if there is none.
func (w *Worker) checkDuplicate(ctx context.Context, job *Job) (string, error) {
	node, err := w.pathstore.GetNode(ctx, pathstore.HashKey(job.UserID, job.ContentHash))
	if err != nil || node == nil {
		return "", err
	}
	m, ok := node.Value.(map[string]any)
	if !ok {
		return "", nil
	}
	docID, _ := m["doc_id"].(string)
	return docID, nil
}
