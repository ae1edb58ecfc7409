package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"aurora/internal/adapters/storage"
)

func newTestGateway(t *testing.T) *SQLiteGateway {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(context.Background(), db); err != nil {
		t.Fatalf("init: %v", err)
	}
	return NewSQLiteGateway(db)
}

func TestSQLiteGateway_CreateAndGet(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()
	stamp := time.Date(2026, 4, 1, 12, 0, 0, 123456000, time.UTC)

	id, err := g.Create(ctx, "pricing_tiers", map[string]any{
		"name":      "Personal Tax",
		"price":     150,
		"features":  []string{"T1 personal tax return"},
		"popular":   false,
		"createdAt": stamp,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == "" {
		t.Fatal("Create returned an empty id")
	}

	doc, err := g.Get(ctx, "pricing_tiers", id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Fields["name"] != "Personal Tax" {
		t.Errorf("name = %v", doc.Fields["name"])
	}
	if n, ok := doc.Fields["price"].(json.Number); !ok || n.String() != "150" {
		t.Errorf("price = %#v, want json.Number 150", doc.Fields["price"])
	}
	if doc.Fields["createdAt"] != stamp.Format(time.RFC3339Nano) {
		t.Errorf("createdAt = %v", doc.Fields["createdAt"])
	}
}

func TestSQLiteGateway_UpdateIsShallowMerge(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()
	id, _ := g.Create(ctx, "pricing_tiers", map[string]any{
		"name":     "Basic Website",
		"price":    2500,
		"features": []string{"a", "b", "c"},
	})

	if err := g.Update(ctx, "pricing_tiers", id, map[string]any{
		"price":    2750,
		"features": []string{"x"},
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	doc, _ := g.Get(ctx, "pricing_tiers", id)
	if doc.Fields["name"] != "Basic Website" {
		t.Errorf("untouched field changed: %v", doc.Fields["name"])
	}
	if fmt.Sprint(doc.Fields["price"]) != "2750" {
		t.Errorf("price = %v", doc.Fields["price"])
	}
	features, _ := doc.Fields["features"].([]any)
	if len(features) != 1 || features[0] != "x" {
		t.Errorf("features should be replaced wholesale, got %v", doc.Fields["features"])
	}
}

func TestSQLiteGateway_MissingDocument(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	if _, err := g.Get(ctx, "pricing_tiers", "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get err = %v", err)
	}
	if err := g.Update(ctx, "pricing_tiers", "nope", map[string]any{"name": "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update err = %v", err)
	}
	if err := g.Delete(ctx, "pricing_tiers", "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete err = %v", err)
	}
}

func TestSQLiteGateway_Delete(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()
	id, _ := g.Create(ctx, "pricing_tiers", map[string]any{"name": "Enterprise"})

	if err := g.Delete(ctx, "pricing_tiers", id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := g.Get(ctx, "pricing_tiers", id); !errors.Is(err, ErrNotFound) {
		t.Errorf("document survived delete: %v", err)
	}
}

type namedString string

func (n namedString) String() string { return string(n) }

func TestSQLiteGateway_Query(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()
	g.Create(ctx, "pricing_tiers", map[string]any{"name": "A", "serviceType": "taxation", "popular": true, "price": 150})
	g.Create(ctx, "pricing_tiers", map[string]any{"name": "B", "serviceType": "web-design", "popular": true, "price": 2500})
	g.Create(ctx, "pricing_tiers", map[string]any{"name": "C", "serviceType": "taxation", "popular": false, "price": 1200})
	g.Create(ctx, "other", map[string]any{"name": "D", "serviceType": "taxation"})

	all, err := g.Query(ctx, "pricing_tiers")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("unfiltered = %d docs, want 3", len(all))
	}
	if all[0].Fields["name"] != "A" || all[2].Fields["name"] != "C" {
		t.Error("results should come back in creation order")
	}

	tax, _ := g.Query(ctx, "pricing_tiers", Where("serviceType", namedString("taxation")))
	if len(tax) != 2 {
		t.Errorf("taxation = %d docs, want 2", len(tax))
	}

	popularTax, _ := g.Query(ctx, "pricing_tiers", Where("serviceType", "taxation"), Where("popular", true))
	if len(popularTax) != 1 || popularTax[0].Fields["name"] != "A" {
		t.Errorf("popular taxation = %v", popularTax)
	}

	pricey, _ := g.Query(ctx, "pricing_tiers", Filter{Field: "price", Op: ">=", Value: 1200})
	if len(pricey) != 2 {
		t.Errorf("price >= 1200 = %d docs, want 2", len(pricey))
	}
}

func TestSQLiteGateway_QueryRejectsBadFilters(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	if _, err := g.Query(ctx, "pricing_tiers", Filter{Field: "name", Op: "array-contains", Value: "x"}); !errors.Is(err, ErrUnsupportedFilter) {
		t.Errorf("unknown op err = %v", err)
	}
	if _, err := g.Query(ctx, "pricing_tiers", Where("name') OR 1=1 --", "x")); !errors.Is(err, ErrUnsupportedFilter) {
		t.Errorf("bad field err = %v", err)
	}
}
