package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leduardoaraujo/jsonexplorer/internal/chunker"
	"github.com/leduardoaraujo/jsonexplorer/internal/parser"
	"github.com/leduardoaraujo/jsonexplorer/internal/pathstore"
	"github.com/leduardoaraujo/jsonexplorer/internal/stats"
)

// fakeStore is an in-memory pathstore.
type fakeStore struct {
	mu    sync.Mutex
	nodes map[string]json.RawMessage
	links []pathstore.LinkRequest
	// failPut returns a status for a key, or 0 to accept the write.
	failPut func(key string) int
	puts    map[string]int
}

func newFakeStore(t *testing.T) (*fakeStore, *pathstore.Client) {
	t.Helper()
	fs := &fakeStore{nodes: map[string]json.RawMessage{}, puts: map[string]int{}}
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)
	return fs, pathstore.NewClient(srv.URL, "test")
}

func (fs *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if r.URL.Path == "/links" {
		var req pathstore.LinkRequest
		json.NewDecoder(r.Body).Decode(&req)
		fs.links = append(fs.links, req)
		w.WriteHeader(http.StatusOK)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/kv/")
	switch r.Method {
	case http.MethodPut:
		fs.puts[key]++
		if fs.failPut != nil {
			if code := fs.failPut(key); code != 0 {
				w.WriteHeader(code)
				return
			}
		}
		var req struct {
			Value json.RawMessage `json:"value"`
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &req)
		fs.nodes[key] = req.Value
		w.WriteHeader(http.StatusCreated)
	case http.MethodGet:
		v, ok := fs.nodes[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"key_path": key, "value": v})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (fs *fakeStore) node(key string) map[string]any {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	raw, ok := fs.nodes[key]
	if !ok {
		return nil
	}
	var m map[string]any
	json.Unmarshal(raw, &m)
	return m
}

func newTestWorker(ps *pathstore.Client) *Worker {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWorker(ps, log, chunker.DefaultConfig(), parser.Options{}, stats.NewRecorder(time.Hour), 4)
}

func newTestJob(t *testing.T, filename, content string) *Job {
	t.Helper()
	job, err := NewJob("u1", "doc1", filename, []byte(content))
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	return job
}

func TestWorker_StoresChunksAndLinks(t *testing.T) {
	fs, ps := newFakeStore(t)
	w := newTestWorker(ps)
	job := newTestJob(t, "profile.json", `{"usuario": {"nome": "Ana"}, "tags": ["x", "y"]}`)

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q (errors: %v)", StatusCompleted, snap.Status, snap.Progress.Errors)
	}
	// # usuario / ## nome / - Ana / # tags / - x / - y
	if snap.Progress.TotalChunks != 6 || snap.Progress.ChunksStored != 6 {
		t.Errorf("expected 6 chunks stored, got %+v", snap.Progress)
	}
	// nome->usuario, Ana->nome, x->tags, y->tags
	if snap.Progress.LinksStored != 4 {
		t.Errorf("expected 4 links, got %d", snap.Progress.LinksStored)
	}

	first := fs.node(pathstore.ChunkKey("u1", "doc1", 0))
	if first == nil || first["content"] != "# usuario" || first["path"] != "root" {
		t.Errorf("unexpected first chunk %v", first)
	}
	value := fs.node(pathstore.ChunkKey("u1", "doc1", 2))
	if value == nil || value["path"] != "usuario > nome" {
		t.Errorf("unexpected value chunk %v", value)
	}

	meta := fs.node(pathstore.MetaKey("u1", "doc1"))
	if meta == nil || meta["content_hash"] != job.ContentHash {
		t.Errorf("unexpected meta %v", meta)
	}
	hash := fs.node(pathstore.HashKey("u1", job.ContentHash))
	if hash == nil || hash["doc_id"] != "doc1" {
		t.Errorf("unexpected hash index %v", hash)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	wantLink := pathstore.LinkRequest{
		From:    pathstore.ChunkKey("u1", "doc1", 2),
		To:      pathstore.ChunkKey("u1", "doc1", 1),
		Weight:  1.0,
		Summary: "in section ## nome",
	}
	found := false
	for _, l := range fs.links {
		if l == wantLink {
			found = true
		}
	}
	if !found {
		t.Errorf("expected link %+v in %+v", wantLink, fs.links)
	}
}

func TestWorker_SkipsDuplicates(t *testing.T) {
	_, ps := newFakeStore(t)
	w := newTestWorker(ps)

	first := newTestJob(t, "a.json", `{"k": 1}`)
	w.Process(context.Background(), first)
	if first.Snapshot().Status != StatusCompleted {
		t.Fatalf("expected first job to complete, got %q", first.Snapshot().Status)
	}

	// Same tree, different whitespace.
	second := newTestJob(t, "b.json", `{ "k" : 1 }`)
	w.Process(context.Background(), second)
	if got := second.Snapshot().Status; got != StatusDupSkipped {
		t.Errorf("expected status %q, got %q", StatusDupSkipped, got)
	}

	forced := newTestJob(t, "c.json", `{"k": 1}`)
	forced.Force = true
	w.Process(context.Background(), forced)
	if got := forced.Snapshot().Status; got != StatusCompleted {
		t.Errorf("expected forced job to complete, got %q", got)
	}
}

func TestWorker_RetriesTransientErrors(t *testing.T) {
	orig := backoffFunc
	backoffFunc = func(int) time.Duration { return time.Millisecond }
	t.Cleanup(func() { backoffFunc = orig })

	fs, ps := newFakeStore(t)
	target := pathstore.ChunkKey("u1", "doc1", 1)
	fs.failPut = func(key string) int {
		if key == target && fs.puts[key] < 3 {
			return http.StatusServiceUnavailable
		}
		return 0
	}

	w := newTestWorker(ps)
	job := newTestJob(t, "a.json", `{"k": 1}`)
	w.Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusCompleted {
		t.Fatalf("expected status %q, got %q (%v)", StatusCompleted, got, job.Snapshot().Progress.Errors)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.puts[target] != 3 {
		t.Errorf("expected 3 attempts, got %d", fs.puts[target])
	}
}

func TestWorker_PartialOnPermanentError(t *testing.T) {
	fs, ps := newFakeStore(t)
	target := pathstore.ChunkKey("u1", "doc1", 1)
	fs.failPut = func(key string) int {
		if key == target {
			return http.StatusBadRequest
		}
		return 0
	}

	w := newTestWorker(ps)
	job := newTestJob(t, "a.json", `{"k": 1}`)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("expected status %q, got %q", StatusPartial, snap.Status)
	}
	if snap.Progress.ChunksStored != 1 || len(snap.Progress.Errors) != 1 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.puts[target] != 1 {
		t.Errorf("expected permanent error not to be retried, got %d attempts", fs.puts[target])
	}
}

func TestWorker_FailsOnBadInput(t *testing.T) {
	tests := []struct {
		filename string
		content  string
		phase    string
	}{
		{"a.xyz", "whatever", "parsing"},
		{"a.json", `{"broken": `, "parsing"},
		{"a.json", `42`, "chunking"},
		{"deep.json", strings.Repeat("[", 20000), "parsing"},
	}
	for _, tt := range tests {
		_, ps := newFakeStore(t)
		w := newTestWorker(ps)
		job := newTestJob(t, tt.filename, tt.content)
		w.Process(context.Background(), job)

		snap := job.Snapshot()
		if snap.Status != StatusFailed || snap.Phase != tt.phase {
			t.Errorf("%s %q: expected failed in %s, got %s in %s", tt.filename, tt.content, tt.phase, snap.Status, snap.Phase)
		}
	}
}

func TestWorker_MarkupSourceUsesJobLevel(t *testing.T) {
	fs, ps := newFakeStore(t)
	w := newTestWorker(ps)
	job := newTestJob(t, "notes.md", "# perfil\n- **nome**: Ana")
	job.StartLevel = 2
	w.Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusCompleted {
		t.Fatalf("expected status %q, got %q", StatusCompleted, got)
	}
	first := fs.node(pathstore.ChunkKey("u1", "doc1", 0))
	if first == nil || first["content"] != "## perfil" {
		t.Errorf("expected level-2 heading, got %v", first)
	}
}

func TestOrchestrator_SubmitAndQueueFull(t *testing.T) {
	_, ps := newFakeStore(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	o := NewOrchestrator(testConfig(1), ps, stats.NewRecorder(time.Hour), log)

	// Not started, so the queue fills up.
	if err := o.Submit(newTestJob(t, "a.json", `{}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	overflow := newTestJob(t, "b.json", `{}`)
	if err := o.Submit(overflow); err == nil {
		t.Fatal("expected queue full error")
	}
	if got := o.GetJob(overflow.ID).Snapshot().Status; got != StatusFailed {
		t.Errorf("expected overflow job to fail, got %q", got)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}

func TestOrchestrator_ProcessesJobs(t *testing.T) {
	_, ps := newFakeStore(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	o := NewOrchestrator(testConfig(10), ps, stats.NewRecorder(time.Hour), log)
	o.Start(context.Background())
	defer o.Stop()

	job := newTestJob(t, "a.json", `{"k": [1, 2]}`)
	if err := o.Submit(job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s := job.Snapshot().Status; s == StatusCompleted || s == StatusFailed || s == StatusPartial {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := job.Snapshot().Status; got != StatusCompleted {
		t.Errorf("expected status %q, got %q", StatusCompleted, got)
	}
}
