package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"aurora/internal/adapters/docstore"
	"aurora/internal/adapters/storage"
	domain "aurora/internal/domain/pricing"
	"aurora/internal/domain/service"
)

func newTestStore(t *testing.T) *DocumentStore {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(context.Background(), db); err != nil {
		t.Fatalf("init: %v", err)
	}
	return NewDocumentStore(docstore.NewSQLiteGateway(db))
}

func ptr[T any](v T) *T { return &v }

func sampleTier() domain.Tier {
	return domain.Tier{
		Name:        "Small Business",
		Icon:        domain.IconCalculator,
		Price:       500,
		Description: "Comprehensive tax services for small businesses",
		Color:       domain.ColorGreen,
		Features:    []string{"T2 corporate tax return", "GST/PST filing"},
		Popular:     true,
		ServiceType: service.Taxation,
	}
}

func TestDocumentStore_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	res := s.Create(ctx, sampleTier())
	if !res.IsOk() {
		t.Fatalf("Create: %v", res.Error())
	}
	got := s.Get(ctx, res.Data())
	if !got.IsOk() {
		t.Fatalf("Get: %v", got.Error())
	}
	tier := got.Data()
	if tier.ID != res.Data() || tier.Name != "Small Business" || tier.Price != 500 || !tier.Popular {
		t.Errorf("got %+v", tier)
	}
	if tier.ServiceType != service.Taxation {
		t.Errorf("ServiceType = %q", tier.ServiceType)
	}
	if len(tier.Features) != 2 || tier.Features[1] != "GST/PST filing" {
		t.Errorf("Features = %v", tier.Features)
	}
	if tier.CreatedAt.IsZero() || !tier.CreatedAt.Equal(tier.UpdatedAt) {
		t.Errorf("CreatedAt = %v, UpdatedAt = %v; want equal and set", tier.CreatedAt, tier.UpdatedAt)
	}
}

func TestDocumentStore_CreateCoercesFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tier := sampleTier()
	tier.Price = -10
	tier.Features = nil
	tier.Popular = false

	id := s.Create(ctx, tier).Data()
	got := s.Get(ctx, id).Data()
	if got.Price != 0 {
		t.Errorf("Price = %d, want 0", got.Price)
	}
	if got.Features == nil || len(got.Features) != 0 {
		t.Errorf("Features = %#v, want empty non-nil", got.Features)
	}
}

func TestDocumentStore_CreateRejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	tier := sampleTier()
	tier.Color = "orange"
	res := s.Create(context.Background(), tier)
	if res.IsOk() || !errors.Is(res.Error(), domain.ErrInvalidColor) {
		t.Errorf("Create = %v, want ErrInvalidColor", res.Error())
	}
}

func TestDocumentStore_ListFiltersAndSorts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, tier := range domain.Defaults("") {
		if res := s.Create(ctx, tier); !res.IsOk() {
			t.Fatalf("seed %q: %v", tier.Name, res.Error())
		}
	}

	tax := s.List(ctx, service.Taxation)
	if !tax.IsOk() {
		t.Fatalf("List: %v", tax.Error())
	}
	if len(tax.Data()) != 3 {
		t.Fatalf("taxation tiers = %d, want 3", len(tax.Data()))
	}
	prices := []int{tax.Data()[0].Price, tax.Data()[1].Price, tax.Data()[2].Price}
	if prices[0] != 150 || prices[1] != 500 || prices[2] != 1200 {
		t.Errorf("prices = %v, want ascending", prices)
	}
	for _, tier := range tax.Data() {
		if tier.ServiceType != service.Taxation {
			t.Errorf("leaked %q tier %q", tier.ServiceType, tier.Name)
		}
	}

	all := s.List(ctx, "")
	if len(all.Data()) != 6 {
		t.Errorf("all tiers = %d, want 6", len(all.Data()))
	}
}

func TestDocumentStore_UpdateMergesAndStamps(t *testing.T) {
	s := newTestStore(t)
	frozen := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s.clock = newStampClock(func() time.Time { return frozen })
	ctx := context.Background()

	id := s.Create(ctx, sampleTier()).Data()
	before := s.Get(ctx, id).Data()

	res := s.Update(ctx, id, domain.Patch{Price: ptr(650), Features: ptr([]string{"Only this"})})
	if !res.IsOk() {
		t.Fatalf("Update: %v", res.Error())
	}
	after := s.Get(ctx, id).Data()

	if after.Price != 650 || len(after.Features) != 1 {
		t.Errorf("patched fields not applied: %+v", after)
	}
	if after.Name != before.Name || after.Color != before.Color || after.Popular != before.Popular {
		t.Error("unpatched fields changed")
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Error("CreatedAt changed on update")
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Errorf("UpdatedAt %v not after %v with a frozen clock", after.UpdatedAt, before.UpdatedAt)
	}

	s.Update(ctx, id, domain.Patch{Popular: ptr(false)})
	third := s.Get(ctx, id).Data()
	if !third.UpdatedAt.After(after.UpdatedAt) {
		t.Error("UpdatedAt did not increase on the second update")
	}
	if third.Popular {
		t.Error("Popular=false was not written")
	}
}

func TestDocumentStore_UpdateClampsPriceAndNilFeatures(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := s.Create(ctx, sampleTier()).Data()

	var none []string
	s.Update(ctx, id, domain.Patch{Price: ptr(-1), Features: &none})
	got := s.Get(ctx, id).Data()
	if got.Price != 0 {
		t.Errorf("Price = %d, want 0", got.Price)
	}
	if got.Features == nil || len(got.Features) != 0 {
		t.Errorf("Features = %#v, want empty", got.Features)
	}
}

func TestDocumentStore_MissingID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if res := s.Update(ctx, "ghost", domain.Patch{Name: ptr("x")}); !errors.Is(res.Error(), domain.ErrNotFound) {
		t.Errorf("Update = %v, want ErrNotFound", res.Error())
	}
	if res := s.Delete(ctx, "ghost"); !errors.Is(res.Error(), domain.ErrNotFound) {
		t.Errorf("Delete = %v, want ErrNotFound", res.Error())
	}
	if res := s.Get(ctx, "ghost"); !errors.Is(res.Error(), domain.ErrNotFound) {
		t.Errorf("Get = %v, want ErrNotFound", res.Error())
	}
}

func TestDocumentStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := s.Create(ctx, sampleTier()).Data()

	if res := s.Delete(ctx, id); !res.IsOk() {
		t.Fatalf("Delete: %v", res.Error())
	}
	if len(s.List(ctx, service.Taxation).Data()) != 0 {
		t.Error("tier still listed after delete")
	}
}

// brokenGateway fails every call, standing in for an unreachable store.
type brokenGateway struct{ err error }

func (g brokenGateway) Create(context.Context, string, map[string]any) (string, error) {
	return "", g.err
}
func (g brokenGateway) Get(context.Context, string, string) (docstore.Document, error) {
	return docstore.Document{}, g.err
}
func (g brokenGateway) Update(context.Context, string, string, map[string]any) error { return g.err }
func (g brokenGateway) Delete(context.Context, string, string) error                 { return g.err }
func (g brokenGateway) Query(context.Context, string, ...docstore.Filter) ([]docstore.Document, error) {
	return nil, g.err
}

func TestDocumentStore_GatewayFailuresBecomeResults(t *testing.T) {
	boom := errors.New("permission denied")
	s := NewDocumentStore(brokenGateway{err: boom})
	ctx := context.Background()

	checks := map[string]error{
		"create": s.Create(ctx, sampleTier()).Error(),
		"list":   s.List(ctx, service.WebDesign).Error(),
		"get":    s.Get(ctx, "x").Error(),
		"update": s.Update(ctx, "x", domain.Patch{Name: ptr("y")}).Error(),
		"delete": s.Delete(ctx, "x").Error(),
	}
	for op, err := range checks {
		if !errors.Is(err, boom) {
			t.Errorf("%s error = %v, want wrapped provider error", op, err)
		}
	}
}

func TestStampClock_StrictlyIncreases(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 999, time.UTC)
	c := newStampClock(func() time.Time { return base })
	a, b := c.Next(), c.Next()
	if a.Nanosecond()%1000 != 0 {
		t.Errorf("stamp %v not truncated to microseconds", a)
	}
	if !b.After(a) || b.Sub(a) != time.Microsecond {
		t.Errorf("a=%v b=%v, want b = a + 1µs", a, b)
	}
}
