package pricing

import (
	"context"

	domain "aurora/internal/domain/pricing"
	"aurora/internal/domain/result"
	"aurora/internal/domain/service"
)

// Collection is the document collection holding pricing tiers.
const Collection = "pricing_tiers"

// Store persists pricing tiers. Every call reports failure as a Result
// instead of an error return so callers cannot forget the failure branch.
type Store interface {
	Create(ctx context.Context, tier domain.Tier) result.Result[string]
	List(ctx context.Context, st service.Type) result.Result[[]domain.Tier]
	Get(ctx context.Context, id string) result.Result[domain.Tier]
	Update(ctx context.Context, id string, patch domain.Patch) result.Result[result.Unit]
	Delete(ctx context.Context, id string) result.Result[result.Unit]
}
