// Package stats keeps rolling latency windows for conversion operations.
package stats

import (
	"sort"
	"sync"
	"time"
)

// Operation names recorded by the API and the ingest pipeline.
const (
	OpToMarkdown = "to_markdown"
	OpToJSON     = "to_json"
	OpPreview    = "preview"
	OpUpload     = "upload"
	OpIngest     = "ingest"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
	chunks     int
}

// Snapshot is a point-in-time aggregate of one operation's samples.
type Snapshot struct {
	Count       int     `json:"count"`
	TotalChunks int     `json:"total_chunks"`
	MinMs       int64   `json:"min_ms"`
	MaxMs       int64   `json:"max_ms"`
	AvgMs       float64 `json:"avg_ms"`
	P50Ms       float64 `json:"p50_ms"`
	P95Ms       float64 `json:"p95_ms"`
	P99Ms       float64 `json:"p99_ms"`
}

// Window tracks recent samples of a single operation.
type Window struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
}

func NewWindow(maxAge time.Duration) *Window {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Window{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

// Record adds a sample. chunks is the number of chunks the call produced.
func (w *Window) Record(durationMs int64, chunks int) {
	if durationMs < 0 {
		durationMs = 0
	}
	if chunks < 0 {
		chunks = 0
	}
	now := time.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	w.samples = append(w.samples, sample{
		timestamp:  now,
		durationMs: durationMs,
		chunks:     chunks,
	})
}

func (w *Window) Snapshot() Snapshot {
	now := time.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	if len(w.samples) == 0 {
		return Snapshot{}
	}

	values := make([]int64, 0, len(w.samples))
	var sum int64
	var chunks int
	for _, sm := range w.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
		chunks += sm.chunks
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return Snapshot{
		Count:       len(values),
		TotalChunks: chunks,
		MinMs:       values[0],
		MaxMs:       values[len(values)-1],
		AvgMs:       float64(sum) / float64(len(values)),
		P50Ms:       percentile(values, 50),
		P95Ms:       percentile(values, 95),
		P99Ms:       percentile(values, 99),
	}
}

func (w *Window) pruneLocked(now time.Time) {
	cutoff := now.Add(-w.maxAge)
	writeIdx := 0
	for _, sm := range w.samples {
		if !sm.timestamp.Before(cutoff) {
			w.samples[writeIdx] = sm
			writeIdx++
		}
	}
	w.samples = w.samples[:writeIdx]
}

// Recorder holds one Window per operation name.
type Recorder struct {
	mu      sync.Mutex
	windows map[string]*Window
	maxAge  time.Duration
}

func NewRecorder(maxAge time.Duration) *Recorder {
	return &Recorder{
		windows: make(map[string]*Window),
		maxAge:  maxAge,
	}
}

// Record adds a sample for op, creating its window on first use.
func (r *Recorder) Record(op string, d time.Duration, chunks int) {
	r.window(op).Record(d.Milliseconds(), chunks)
}

// Snapshot aggregates every operation seen so far.
func (r *Recorder) Snapshot() map[string]Snapshot {
	r.mu.Lock()
	ops := make(map[string]*Window, len(r.windows))
	for op, w := range r.windows {
		ops[op] = w
	}
	r.mu.Unlock()

	out := make(map[string]Snapshot, len(ops))
	for op, w := range ops {
		out[op] = w.Snapshot()
	}
	return out
}

func (r *Recorder) window(op string) *Window {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[op]
	if !ok {
		w = NewWindow(r.maxAge)
		r.windows[op] = w
	}
	return w
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
