package email

import (
	"context"
	"log/slog"
	"time"

	"aurora/internal/adapters/http/perf"
)

// TimedSender records each send on the perf collector, grouped by category.
type TimedSender struct {
	next      Sender
	collector *perf.Collector
}

// NewTimedSender wraps next.
func NewTimedSender(next Sender, collector *perf.Collector) *TimedSender {
	return &TimedSender{next: next, collector: collector}
}

func (t *TimedSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	start := time.Now()
	res, err := t.next.Send(ctx, req)
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0

	category := req.Category
	if category == "" {
		category = "uncategorized"
	}
	if err != nil {
		slog.Warn("email_send_failed", "category", category, "duration_ms", durationMs, "error", err)
	} else {
		slog.Info("email_sent", "category", category, "message_id", res.MessageID, "duration_ms", durationMs)
	}

	if t.collector != nil {
		e := perf.Entry{Kind: perf.KindSend, Path: category, DurationMs: durationMs, Timestamp: start}
		if err != nil {
			e.StatusCode = 1
		}
		t.collector.Record(e)
	}
	return res, err
}
