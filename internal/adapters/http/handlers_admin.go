package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"aurora/internal/adapters/http/middleware"
	"aurora/internal/application/guard"
	"aurora/internal/application/orchestrators"
	"aurora/internal/application/pricingview"
	domainPricing "aurora/internal/domain/pricing"
	"aurora/internal/domain/service"
)

// handleAdminLogin handles GET (form) and POST (sign in) for /admin/login
func handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if token := middleware.SessionToken(r); token != "" {
			g := guard.Mount(r.Context(), deps.Auth, token, deps.SessionCheckTimeout)
			st, _ := g.Await(r.Context())
			g.Unmount()
			if st == guard.Authenticated {
				http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
				return
			}
		}
		renderTemplate(w, r, "admin_login.html", nil)

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.FormValue("email"))
		res := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
			Email:    email,
			Password: r.FormValue("password"),
		}, orchestrators.LoginDeps{Auth: deps.Auth})
		if err := res.Error(); err != nil {
			msg := orchestrators.ErrInvalidCredentials.Error()
			if !errors.Is(err, orchestrators.ErrInvalidCredentials) {
				msg = "Sign-in is unavailable right now. Please try again."
			}
			renderTemplateStatus(w, r, http.StatusUnauthorized, "admin_login.html", map[string]any{
				"Email": email,
				"Error": msg,
			})
			return
		}
		sess := res.Data()
		middleware.SetSessionCookie(w, sess.Token, time.Until(sess.ExpiresAt))
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleAdminLogout handles POST /admin/logout
func handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	token := middleware.SessionTokenFromContext(r.Context())
	if res := deps.Auth.SignOut(r.Context(), token); !res.IsOk() {
		slog.Warn("auth_event", "event", "logout_failed", "error", res.Error())
	}
	views.Drop(token)
	middleware.ClearSessionCookie(w)
	slog.Info("auth_event", "event", "logout")
	http.Redirect(w, r, guard.LoginPath, http.StatusSeeOther)
}

// handleAdminDashboard handles GET /admin/dashboard
func handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	counts := map[service.Type]int{}
	storeErr := false
	for _, st := range service.ValidTypes {
		res := deps.Pricing.List(r.Context(), st)
		if !res.IsOk() {
			storeErr = true
			continue
		}
		counts[st] = len(res.Data())
	}
	renderTemplate(w, r, "admin_dashboard.html", map[string]any{
		"TaxationCount":  counts[service.Taxation],
		"WebDesignCount": counts[service.WebDesign],
		"StoreError":     storeErr,
	})
}

// sessionView returns the pricing view bound to the operator's session.
func sessionView(r *http.Request) *pricingview.View {
	return views.For(middleware.SessionTokenFromContext(r.Context()))
}

// handleAdminPricingPage handles GET /admin/pricing?service=
func handleAdminPricingPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	v := sessionView(r)
	// Every page view refetches; only the open draft outlives a request.
	st := v.Tab()
	if raw := r.URL.Query().Get("service"); raw != "" {
		parsed, err := service.Parse(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		st = parsed
	}
	if st != v.Tab() {
		_ = v.SelectTab(r.Context(), st)
	} else {
		_ = v.Load(r.Context())
	}

	draft, editing := v.Editing()
	tiers := v.Tiers()
	renderTemplate(w, r, "admin_pricing.html", map[string]any{
		"Tab":       v.Tab(),
		"Tabs":      service.ValidTypes,
		"Tiers":     tiers,
		"Count":     len(tiers),
		"Editing":   editing,
		"Draft":     draft,
		"Message":   v.Message(),
		"Colors":    domainPricing.ValidColors,
		"Icons":     domainPricing.ValidIcons,
		"ConfirmID": r.URL.Query().Get("confirm"),
	})
}

func backToPricing(w http.ResponseWriter, r *http.Request, v *pricingview.View) {
	http.Redirect(w, r, "/admin/pricing?service="+string(v.Tab()), http.StatusSeeOther)
}

// handleAdminPricingEdit handles POST /admin/pricing/edit (opens the editor)
func handleAdminPricingEdit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	v := sessionView(r)
	if _, err := v.OpenEdit(r.FormValue("id")); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	backToPricing(w, r, v)
}

// handleAdminPricingDraft handles POST /admin/pricing/draft. The form
// carries every editable field plus an action: save, cancel, add-feature or
// remove-feature-N.
func handleAdminPricingDraft(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	v := sessionView(r)
	action := r.FormValue("action")
	if action == "cancel" {
		v.CloseEdit()
		backToPricing(w, r, v)
		return
	}

	err := v.EditDraft(func(d *pricingview.Draft) error {
		d.Name = strings.TrimSpace(r.FormValue("name"))
		d.Icon = r.FormValue("icon")
		d.SetPriceText(r.FormValue("price"))
		d.Description = strings.TrimSpace(r.FormValue("description"))
		d.Color = r.FormValue("color")
		d.Popular = r.FormValue("popular") != ""
		d.Features = d.Features[:0:0]
		for _, f := range r.Form["feature"] {
			if f = strings.TrimSpace(f); f != "" {
				d.Features = append(d.Features, f)
			}
		}

		switch {
		case action == "add-feature":
			return d.AddFeature(r.FormValue("new_feature"))
		case strings.HasPrefix(action, "remove-feature-"):
			i, err := strconv.Atoi(strings.TrimPrefix(action, "remove-feature-"))
			if err != nil {
				return pricingview.ErrFeatureIndex
			}
			return d.RemoveFeature(i)
		}
		return nil
	})
	switch {
	case errors.Is(err, pricingview.ErrNoDraft):
		backToPricing(w, r, v)
		return
	case errors.Is(err, pricingview.ErrEmptyFeature), errors.Is(err, pricingview.ErrFeatureIndex):
		// Nothing to add or remove; the rest of the form was kept.
	case err != nil:
		internalError(w, err)
		return
	}

	if action == "save" {
		// The view keeps the editor open and records the message on failure.
		_ = v.Save(r.Context())
	}
	backToPricing(w, r, v)
}

// handleAdminPricingDelete handles POST /admin/pricing/delete. Without
// confirm=yes the page is shown again asking for confirmation.
func handleAdminPricingDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	v := sessionView(r)
	id := r.FormValue("id")
	err := v.Delete(r.Context(), id, r.FormValue("confirm") == "yes")
	switch {
	case errors.Is(err, pricingview.ErrNotConfirmed):
		http.Redirect(w, r, "/admin/pricing?service="+string(v.Tab())+"&confirm="+id, http.StatusSeeOther)
		return
	case errors.Is(err, pricingview.ErrTierNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	backToPricing(w, r, v)
}

// handleAdminPerf handles GET /admin/perf?minutes=
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if deps.Collector == nil {
		writeJSON(w, http.StatusNotFound, message{Message: "perf collection disabled"})
		return
	}
	minutes := 60
	if n, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && n > 0 {
		minutes = n
	}
	since := time.Now().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, deps.Collector.Snapshot(since, 10))
}
