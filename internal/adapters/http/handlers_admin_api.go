package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"aurora/internal/application/orchestrators"
	domainPricing "aurora/internal/domain/pricing"
	"aurora/internal/domain/result"
	"aurora/internal/domain/service"
)

// storeFailure maps a failed repository Result to a JSON response. The raw
// provider error is logged, never returned.
func storeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domainPricing.ErrNotFound):
		writeJSON(w, http.StatusNotFound, message{Message: "Pricing tier not found"})
	case isTierValidationError(err):
		writeJSON(w, http.StatusBadRequest, message{Message: err.Error()})
	default:
		slog.Error("pricing_api_failed", "op", op, "error", err)
		writeJSON(w, http.StatusInternalServerError, message{Message: "Internal server error"})
	}
}

func isTierValidationError(err error) bool {
	for _, target := range []error{
		domainPricing.ErrEmptyName,
		domainPricing.ErrNameTooLong,
		domainPricing.ErrDescriptionTooLong,
		domainPricing.ErrInvalidColor,
		domainPricing.ErrTooManyFeatures,
		domainPricing.ErrFeatureTooLong,
		domainPricing.ErrServiceTypeRequired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// handleAdminPricingCollection handles GET (list) and POST (create) for /api/admin/pricing
func handleAdminPricingCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var st service.Type
		if raw := r.URL.Query().Get("service"); raw != "" {
			parsed, err := service.Parse(raw)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, message{Message: err.Error()})
				return
			}
			st = parsed
		}
		res := deps.Pricing.List(r.Context(), st)
		if !res.IsOk() {
			storeFailure(w, "list", res.Error())
			return
		}
		writeJSON(w, http.StatusOK, res.Data())

	case http.MethodPost:
		var tier domainPricing.Tier
		if err := strictDecode(r, &tier); err != nil {
			writeJSON(w, http.StatusBadRequest, message{Message: "Invalid request body"})
			return
		}
		res := deps.Pricing.Create(r.Context(), tier)
		if !res.IsOk() {
			storeFailure(w, "create", res.Error())
			return
		}
		writeJSON(w, http.StatusCreated, message{Message: "Pricing tier created", ID: res.Data()})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleAdminPricingItem handles GET, PUT (partial update) and DELETE for /api/admin/pricing/{id}
func handleAdminPricingItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/admin/pricing/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		res := deps.Pricing.Get(r.Context(), id)
		if !res.IsOk() {
			storeFailure(w, "get", res.Error())
			return
		}
		writeJSON(w, http.StatusOK, res.Data())

	case http.MethodPut, http.MethodPatch:
		var patch domainPricing.Patch
		if err := strictDecode(r, &patch); err != nil {
			writeJSON(w, http.StatusBadRequest, message{Message: "Invalid request body"})
			return
		}
		if patch.IsEmpty() {
			writeJSON(w, http.StatusBadRequest, message{Message: "No fields to update"})
			return
		}
		respondUnit(w, "update", deps.Pricing.Update(r.Context(), id, patch), "Pricing tier updated")

	case http.MethodDelete:
		respondUnit(w, "delete", deps.Pricing.Delete(r.Context(), id), "Pricing tier deleted")

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func respondUnit(w http.ResponseWriter, op string, res result.Result[result.Unit], okMsg string) {
	if !res.IsOk() {
		storeFailure(w, op, res.Error())
		return
	}
	writeJSON(w, http.StatusOK, message{Message: okMsg})
}

// handleAdminPricingSeed handles POST /api/admin/pricing/seed
func handleAdminPricingSeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	res := orchestrators.ExecuteSeedPricing(r.Context(), orchestrators.SeedPricingInput{
		OnlyIfEmpty: r.URL.Query().Get("force") != "true",
	}, orchestrators.SeedPricingDeps{Store: deps.Pricing})
	if !res.IsOk() {
		storeFailure(w, "seed", res.Error())
		return
	}
	out := res.Data()
	status := http.StatusOK
	if len(out.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, map[string]any{
		"created": out.Created,
		"failed":  out.Failed,
		"skipped": out.Skipped,
	})
}
