package web

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"aurora/internal/adapters/auth"
	"aurora/internal/adapters/email"
	"aurora/internal/adapters/http/middleware"
	"aurora/internal/adapters/http/perf"
	pricingStore "aurora/internal/adapters/storage/pricing"
	"aurora/internal/application/guard"
	"aurora/internal/application/orchestrators"
	"aurora/internal/application/pricingview"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Deps holds everything the handlers reach for.
type Deps struct {
	Pricing pricingStore.Store
	Auth    auth.Provider
	// Sender is nil when no email credential is configured; the contact
	// endpoint then answers 500 without attempting a send.
	Sender    email.Sender
	Mail      orchestrators.ContactMail
	Collector *perf.Collector

	SessionCheckTimeout time.Duration
	SlowRequestMs       int
	CSRFKey             []byte
	TrustedOrigins      []string
	Production          bool
}

// Global dependencies (set by NewMux)
var deps *Deps

// Per-session pricing management views (set by NewMux)
var views *pricingview.Registry

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// NewMux wires HTTP handlers for the site.
// PRE: d.Pricing, d.Auth and d.CSRFKey are set
func NewMux(d *Deps) http.Handler {
	deps = d
	views = pricingview.NewRegistry(d.Pricing)
	middleware.SecureCookies = d.Production
	if deps.SessionCheckTimeout <= 0 {
		deps.SessionCheckTimeout = guard.DefaultTimeout
	}

	mux := http.NewServeMux()
	static, _ := fs.Sub(staticFS, "static")
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Applied inside out: Timing -> RateLimit -> SecurityHeaders -> CSRF -> Preference -> mux
	return middleware.Chain(mux,
		middleware.Preference,
		middleware.CSRF(d.CSRFKey, d.TrustedOrigins),
		middleware.SecurityHeaders,
		middleware.RateLimit(limiter),
		middleware.Timing(d.Collector, d.SlowRequestMs),
	)
}

func registerRoutes(mux *http.ServeMux) {
	// Public site
	mux.HandleFunc("/", handleHome)
	mux.HandleFunc("/pricing", handlePricingPage)
	mux.HandleFunc("/services/taxation", handleServicePage)
	mux.HandleFunc("/services/web-design", handleServicePage)
	mux.HandleFunc("/contact", handleContactPage)
	mux.HandleFunc("/service", handleServiceToggle)
	mux.HandleFunc("/api/contact", handleContactAPI)
	mux.HandleFunc("/api/pricing", handlePricingAPI)

	// Admin, behind the session guard
	admin := http.NewServeMux()
	admin.HandleFunc("/admin/login", handleAdminLogin)
	admin.HandleFunc("/admin/logout", handleAdminLogout)
	admin.HandleFunc("/admin", redirectTo("/admin/dashboard"))
	admin.HandleFunc("/admin/", redirectTo("/admin/dashboard"))
	admin.HandleFunc("/admin/dashboard", handleAdminDashboard)
	admin.HandleFunc("/admin/pricing", handleAdminPricingPage)
	admin.HandleFunc("/admin/pricing/edit", handleAdminPricingEdit)
	admin.HandleFunc("/admin/pricing/draft", handleAdminPricingDraft)
	admin.HandleFunc("/admin/pricing/delete", handleAdminPricingDelete)
	admin.HandleFunc("/admin/perf", handleAdminPerf)
	admin.HandleFunc("/api/admin/pricing", handleAdminPricingCollection)
	admin.HandleFunc("/api/admin/pricing/seed", handleAdminPricingSeed)
	admin.HandleFunc("/api/admin/pricing/", handleAdminPricingItem)

	guarded := middleware.RequireAdmin(deps.Auth, deps.SessionCheckTimeout, views.Drop)(admin)
	mux.Handle("/admin", guarded)
	mux.Handle("/admin/", guarded)
	mux.Handle("/api/admin/", guarded)
}

func redirectTo(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin" && r.URL.Path != "/admin/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}
