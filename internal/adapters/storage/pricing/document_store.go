package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"aurora/internal/adapters/docstore"
	domain "aurora/internal/domain/pricing"
	"aurora/internal/domain/result"
	"aurora/internal/domain/service"
)

// Document field names. These match the hosted collection exactly.
const (
	fieldName        = "name"
	fieldIcon        = "icon"
	fieldPrice       = "price"
	fieldDescription = "description"
	fieldColor       = "color"
	fieldFeatures    = "features"
	fieldPopular     = "popular"
	fieldServiceType = "serviceType"
	fieldCreatedAt   = "createdAt"
	fieldUpdatedAt   = "updatedAt"
)

// DocumentStore implements Store over a generic document gateway.
type DocumentStore struct {
	gw    docstore.Gateway
	clock *stampClock
}

var _ Store = (*DocumentStore)(nil)

// NewDocumentStore creates a pricing store over gw.
func NewDocumentStore(gw docstore.Gateway) *DocumentStore {
	return &DocumentStore{gw: gw, clock: newStampClock(time.Now)}
}

// Create writes a new tier with both timestamps set to the same stamp.
// PRE: tier passes Validate
// POST: Ok(id) on success; price clamped, features and popular always written
func (s *DocumentStore) Create(ctx context.Context, tier domain.Tier) result.Result[string] {
	if err := tier.Validate(); err != nil {
		return result.Err[string](err)
	}
	now := s.clock.Next()
	features := tier.Features
	if features == nil {
		features = []string{}
	}
	fields := map[string]any{
		fieldName:        tier.Name,
		fieldIcon:        tier.Icon,
		fieldPrice:       domain.ClampPrice(tier.Price),
		fieldDescription: tier.Description,
		fieldColor:       tier.Color,
		fieldFeatures:    features,
		fieldPopular:     tier.Popular,
		fieldServiceType: string(tier.ServiceType),
		fieldCreatedAt:   now,
		fieldUpdatedAt:   now,
	}
	id, err := s.gw.Create(ctx, Collection, fields)
	if err != nil {
		return fail[string]("create", "", err)
	}
	slog.Info("pricing_event", "event", "tier_created", "id", id, "service_type", tier.ServiceType, "name", tier.Name)
	return result.Ok(id)
}

// List returns the tiers of one service line, or all tiers when st is empty,
// ordered by price.
func (s *DocumentStore) List(ctx context.Context, st service.Type) result.Result[[]domain.Tier] {
	var filters []docstore.Filter
	if st != "" {
		filters = append(filters, docstore.Where(fieldServiceType, string(st)))
	}
	docs, err := s.gw.Query(ctx, Collection, filters...)
	if err != nil {
		return fail[[]domain.Tier]("list", "", err)
	}
	tiers := make([]domain.Tier, 0, len(docs))
	for _, d := range docs {
		t, err := decodeTier(d)
		if err != nil {
			slog.Warn("pricing_decode_skipped", "id", d.ID, "error", err)
			continue
		}
		tiers = append(tiers, t)
	}
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Price < tiers[j].Price })
	return result.Ok(tiers)
}

// Get reads one tier.
// POST: Err(domain.ErrNotFound) for an unknown id
func (s *DocumentStore) Get(ctx context.Context, id string) result.Result[domain.Tier] {
	doc, err := s.gw.Get(ctx, Collection, id)
	if err != nil {
		return fail[domain.Tier]("get", id, err)
	}
	t, err := decodeTier(doc)
	if err != nil {
		return fail[domain.Tier]("get", id, err)
	}
	return result.Ok(t)
}

// Update merges the set fields of patch into the stored tier and bumps updatedAt.
// PRE: patch passes Validate
// POST: Err(domain.ErrNotFound) if id does not exist; updatedAt strictly increases
func (s *DocumentStore) Update(ctx context.Context, id string, patch domain.Patch) result.Result[result.Unit] {
	if err := patch.Validate(); err != nil {
		return result.Err[result.Unit](err)
	}
	fields := patchFields(patch)
	fields[fieldUpdatedAt] = s.clock.Next()
	if err := s.gw.Update(ctx, Collection, id, fields); err != nil {
		return fail[result.Unit]("update", id, err)
	}
	slog.Info("pricing_event", "event", "tier_updated", "id", id, "fields", len(fields)-1)
	return result.Done()
}

// Delete removes a tier permanently.
// POST: Err(domain.ErrNotFound) if id does not exist
func (s *DocumentStore) Delete(ctx context.Context, id string) result.Result[result.Unit] {
	if err := s.gw.Delete(ctx, Collection, id); err != nil {
		return fail[result.Unit]("delete", id, err)
	}
	slog.Info("pricing_event", "event", "tier_deleted", "id", id)
	return result.Done()
}

func patchFields(p domain.Patch) map[string]any {
	fields := make(map[string]any)
	if p.Name != nil {
		fields[fieldName] = *p.Name
	}
	if p.Icon != nil {
		fields[fieldIcon] = *p.Icon
	}
	if p.Price != nil {
		fields[fieldPrice] = domain.ClampPrice(*p.Price)
	}
	if p.Description != nil {
		fields[fieldDescription] = *p.Description
	}
	if p.Color != nil {
		fields[fieldColor] = *p.Color
	}
	if p.Features != nil {
		features := *p.Features
		if features == nil {
			features = []string{}
		}
		fields[fieldFeatures] = features
	}
	if p.Popular != nil {
		fields[fieldPopular] = *p.Popular
	}
	return fields
}

// fail logs the provider error and converts it to a Result. A missing
// document becomes the domain's ErrNotFound.
func fail[T any](op, id string, err error) result.Result[T] {
	if errors.Is(err, docstore.ErrNotFound) {
		slog.Info("pricing_store_miss", "op", op, "id", id)
		return result.Err[T](domain.ErrNotFound)
	}
	slog.Error("pricing_store_failed", "op", op, "id", id, "error", err)
	return result.Err[T](fmt.Errorf("pricing %s: %w", op, err))
}

// stampClock hands out write timestamps that strictly increase within the
// process, at the microsecond precision the hosted store keeps.
type stampClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func newStampClock(now func() time.Time) *stampClock {
	return &stampClock{now: now}
}

// Next returns a UTC stamp later than every stamp returned before.
func (c *stampClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
