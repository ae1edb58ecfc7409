// Package perf keeps a bounded window of timing entries for requests,
// SQLite queries, document gateway calls and email sends, and aggregates
// them on demand for the admin perf endpoint.
package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the capacity used when NewCollector gets a non-positive size.
const DefaultRingSize = 10000

// EntryKind says which layer produced an entry.
type EntryKind uint8

const (
	KindRequest  EntryKind = iota // HTTP request, Path is "METHOD /path"
	KindQuery                     // SQLite statement, Path is "VERB table"
	KindDocument                  // Gateway call, Path is "op collection"
	KindSend                      // Outbound email, Path is the category
)

// Entry is one timing record.
type Entry struct {
	Kind       EntryKind
	Path       string
	StatusCode int // HTTP status for requests; 0 ok / 1 failed for other kinds
	DurationMs float64
	Timestamp  time.Time
}

// Failed reports whether the entry records a failed operation.
func (e Entry) Failed() bool {
	if e.Kind == KindRequest {
		return e.StatusCode >= 500
	}
	return e.StatusCode != 0
}

// Collector is a fixed-size ring of entries. Record never blocks on
// aggregation; Snapshot copies the ring and does the work outside the lock.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	pos     int
	total   atomic.Int64
}

// NewCollector creates a collector holding the last size entries.
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record stores e, overwriting the oldest entry once the ring is full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % len(c.entries)
	c.mu.Unlock()
	c.total.Add(1)
}

// TotalRecorded returns how many entries were ever recorded.
func (c *Collector) TotalRecorded() int64 {
	return c.total.Load()
}

// PathStat aggregates one path, statement or operation.
type PathStat struct {
	Path    string  `json:"path"`
	Count   int     `json:"count"`
	Failed  int     `json:"failed"`
	AvgMs   float64 `json:"avgMs"`
	MaxMs   float64 `json:"maxMs"`
	TotalMs float64 `json:"totalMs"`
}

// Snapshot is the aggregated view of the entries since a point in time.
type Snapshot struct {
	Since            time.Time  `json:"since"`
	TotalRecorded    int64      `json:"totalRecorded"`
	Requests         int        `json:"requests"`
	RequestP50Ms     float64    `json:"requestP50Ms"`
	RequestP95Ms     float64    `json:"requestP95Ms"`
	RequestP99Ms     float64    `json:"requestP99Ms"`
	SlowestPaths     []PathStat `json:"slowestPaths"`
	SlowestQueries   []PathStat `json:"slowestQueries"`
	SlowestDocuments []PathStat `json:"slowestDocuments"`
	Sends            []PathStat `json:"sends"`
}

// Snapshot aggregates entries newer than since, keeping the topN slowest
// groups of each kind by average duration.
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, len(c.entries))
	copy(buf, c.entries)
	c.mu.Unlock()

	groups := map[EntryKind]map[string]*PathStat{
		KindRequest:  {},
		KindQuery:    {},
		KindDocument: {},
		KindSend:     {},
	}
	var durations []float64

	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		byPath, ok := groups[e.Kind]
		if !ok {
			continue
		}
		if e.Kind == KindRequest {
			durations = append(durations, e.DurationMs)
		}
		s, ok := byPath[e.Path]
		if !ok {
			s = &PathStat{Path: e.Path}
			byPath[e.Path] = s
		}
		s.Count++
		s.TotalMs += e.DurationMs
		s.MaxMs = math.Max(s.MaxMs, e.DurationMs)
		if e.Failed() {
			s.Failed++
		}
	}

	snap := Snapshot{
		Since:            since,
		TotalRecorded:    c.TotalRecorded(),
		Requests:         len(durations),
		SlowestPaths:     slowest(groups[KindRequest], topN),
		SlowestQueries:   slowest(groups[KindQuery], topN),
		SlowestDocuments: slowest(groups[KindDocument], topN),
		Sends:            slowest(groups[KindSend], topN),
	}
	if len(durations) > 0 {
		sort.Float64s(durations)
		snap.RequestP50Ms = percentile(durations, 50)
		snap.RequestP95Ms = percentile(durations, 95)
		snap.RequestP99Ms = percentile(durations, 99)
	}
	return snap
}

// percentile interpolates the p-th percentile of an ascending slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo, hi := int(math.Floor(rank)), int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	w := rank - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func slowest(stats map[string]*PathStat, n int) []PathStat {
	out := make([]PathStat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.TotalMs / float64(s.Count)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgMs != out[j].AvgMs {
			return out[i].AvgMs > out[j].AvgMs
		}
		return out[i].Path < out[j].Path
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
