package orchestrators

import (
	"context"
	"log/slog"

	domain "aurora/internal/domain/pricing"
	"aurora/internal/domain/result"
	"aurora/internal/domain/service"
)

// PricingStoreForSeed defines the store interface needed by SeedPricing.
type PricingStoreForSeed interface {
	Create(ctx context.Context, tier domain.Tier) result.Result[string]
	List(ctx context.Context, st service.Type) result.Result[[]domain.Tier]
}

// SeedPricingInput controls which tiers are written.
type SeedPricingInput struct {
	// OnlyIfEmpty skips seeding when the collection already holds tiers.
	OnlyIfEmpty bool
}

// SeedPricingDeps holds dependencies for SeedPricing.
type SeedPricingDeps struct {
	Store PricingStoreForSeed
}

// SeedPricingResult counts what happened.
type SeedPricingResult struct {
	Created []string
	Failed  []string
	Skipped bool
}

// ExecuteSeedPricing writes the default tiers for both service lines.
// A failing tier is logged and the rest are still attempted.
// POST: every default tier appears in Created or Failed, unless Skipped
func ExecuteSeedPricing(ctx context.Context, input SeedPricingInput, deps SeedPricingDeps) result.Result[SeedPricingResult] {
	if input.OnlyIfEmpty {
		existing := deps.Store.List(ctx, "")
		if !existing.IsOk() {
			return result.Err[SeedPricingResult](existing.Error())
		}
		if len(existing.Data()) > 0 {
			slog.Info("pricing_seed", "event", "skipped", "existing", len(existing.Data()))
			return result.Ok(SeedPricingResult{Skipped: true})
		}
	}

	var out SeedPricingResult
	for _, tier := range domain.Defaults("") {
		res := deps.Store.Create(ctx, tier)
		if !res.IsOk() {
			slog.Error("pricing_seed", "event", "tier_failed", "name", tier.Name, "service_type", tier.ServiceType, "error", res.Error())
			out.Failed = append(out.Failed, tier.Name)
			continue
		}
		slog.Info("pricing_seed", "event", "tier_created", "name", tier.Name, "id", res.Data())
		out.Created = append(out.Created, tier.Name)
	}
	return result.Ok(out)
}
