package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"aurora/internal/adapters/http/perf"
)

func TestTimedGateway_RecordsCalls(t *testing.T) {
	collector := perf.NewCollector(100)
	g := NewTimedGateway(newTestGateway(t), collector, 0)
	ctx := context.Background()
	start := time.Now().Add(-time.Second)

	id, err := g.Create(ctx, "pricing_tiers", map[string]any{"name": "Basic"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := g.Get(ctx, "pricing_tiers", id); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := g.Get(ctx, "pricing_tiers", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) = %v", err)
	}

	snap := collector.Snapshot(start, 10)
	byPath := map[string]perf.PathStat{}
	for _, s := range snap.SlowestDocuments {
		byPath[s.Path] = s
	}
	if byPath["create pricing_tiers"].Count != 1 {
		t.Errorf("create stat = %+v", byPath["create pricing_tiers"])
	}
	get := byPath["get pricing_tiers"]
	if get.Count != 2 || get.Failed != 0 {
		t.Errorf("get stat = %+v, want 2 calls and no failures", get)
	}
}

type failingGateway struct{ Gateway }

func (failingGateway) Query(context.Context, string, ...Filter) ([]Document, error) {
	return nil, errors.New("unavailable")
}

func TestTimedGateway_CountsFailures(t *testing.T) {
	collector := perf.NewCollector(10)
	g := NewTimedGateway(failingGateway{}, collector, 0)
	if _, err := g.Query(context.Background(), "pricing_tiers"); err == nil {
		t.Fatal("expected error")
	}
	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if len(snap.SlowestDocuments) != 1 || snap.SlowestDocuments[0].Failed != 1 {
		t.Errorf("documents = %+v", snap.SlowestDocuments)
	}
}
