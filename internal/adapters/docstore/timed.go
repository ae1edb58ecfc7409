package docstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"aurora/internal/adapters/http/perf"
)

// DefaultSlowCallMs is the threshold above which a gateway call logs a warning.
const DefaultSlowCallMs = 250

// TimedGateway wraps a Gateway to log slow or failed calls and record every
// call on the perf collector.
type TimedGateway struct {
	next      Gateway
	collector *perf.Collector
	threshold float64
}

var _ Gateway = (*TimedGateway)(nil)

// NewTimedGateway wraps next. A nil collector only logs.
// PRE: next != nil
func NewTimedGateway(next Gateway, collector *perf.Collector, slowMs int) *TimedGateway {
	if slowMs <= 0 {
		slowMs = DefaultSlowCallMs
	}
	return &TimedGateway{next: next, collector: collector, threshold: float64(slowMs)}
}

// Create times the wrapped Create.
func (t *TimedGateway) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	start := time.Now()
	id, err := t.next.Create(ctx, collection, fields)
	t.observe("create", collection, start, err)
	return id, err
}

// Get times the wrapped Get.
func (t *TimedGateway) Get(ctx context.Context, collection, id string) (Document, error) {
	start := time.Now()
	doc, err := t.next.Get(ctx, collection, id)
	t.observe("get", collection, start, err)
	return doc, err
}

// Update times the wrapped Update.
func (t *TimedGateway) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	start := time.Now()
	err := t.next.Update(ctx, collection, id, fields)
	t.observe("update", collection, start, err)
	return err
}

// Delete times the wrapped Delete.
func (t *TimedGateway) Delete(ctx context.Context, collection, id string) error {
	start := time.Now()
	err := t.next.Delete(ctx, collection, id)
	t.observe("delete", collection, start, err)
	return err
}

// Query times the wrapped Query.
func (t *TimedGateway) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	start := time.Now()
	docs, err := t.next.Query(ctx, collection, filters...)
	t.observe("query", collection, start, err)
	return docs, err
}

func (t *TimedGateway) observe(op, collection string, start time.Time, err error) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	label := op + " " + collection

	// A missing document is an answer, not a failed call.
	failed := err != nil && !errors.Is(err, ErrNotFound)
	switch {
	case failed:
		slog.Warn("document_call_failed", "op", label, "duration_ms", durationMs, "error", err)
	case durationMs >= t.threshold:
		slog.Warn("slow_document_call", "op", label, "duration_ms", durationMs)
	default:
		slog.Debug("document_call", "op", label, "duration_ms", durationMs)
	}

	if t.collector == nil {
		return
	}
	e := perf.Entry{Kind: perf.KindDocument, Path: label, DurationMs: durationMs, Timestamp: start}
	if failed {
		e.StatusCode = 1
	}
	t.collector.Record(e)
}
