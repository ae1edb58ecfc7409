package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"aurora/internal/adapters/http/middleware"
	"aurora/internal/application/orchestrators"
	"aurora/internal/application/preference"
	"aurora/internal/domain/contact"
	domainPricing "aurora/internal/domain/pricing"
	"aurora/internal/domain/service"
)

// internalError logs the real error and returns a generic message.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err)
	}
}

type message struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// mdRenderer renders the short markdown operators write in tier
// descriptions. Raw HTML is dropped (WithUnsafe is not set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	renderTemplateStatus(w, r, http.StatusOK, templateName, data)
}

func renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	identity, signedIn := middleware.IdentityFromContext(r.Context())
	current := preference.Current(r.Context())

	funcMap := template.FuncMap{
		"csrfField":    func() template.HTML { return csrf.TemplateField(r) },
		"isSignedIn":   func() bool { return signedIn },
		"adminEmail":   func() string { return identity.Email },
		"serviceType":  func() string { return string(current) },
		"serviceLabel": func() string { return current.Label() },
		"otherService": func() string { return string(current.Toggle()) },
		"currentPath":  func() string { return r.URL.Path },
		"price":        formatPrice,
		"iconKey":      domainPricing.IconKey,
		"markdown":     renderMarkdown,
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/partial_*.html", "templates/"+templateName)
	if err != nil {
		internalError(w, fmt.Errorf("parse %s: %w", templateName, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tpl.Execute(w, data); err != nil {
		slog.Error("render_failed", "template", templateName, "error", err)
	}
}

// formatPrice renders whole dollars with thousands separators.
func formatPrice(p int) string {
	s := fmt.Sprintf("%d", p)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return "$" + s
}

// handleHome renders the landing page for the visitor's service line.
func handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	renderTemplate(w, r, "home.html", map[string]any{
		"Service": preference.Current(r.Context()),
	})
}

// publicTiers lists tiers for st, falling back to the built-in tiers when
// the store fails or holds none.
func publicTiers(r *http.Request, st service.Type) []domainPricing.Tier {
	res := deps.Pricing.List(r.Context(), st)
	if !res.IsOk() {
		slog.Warn("pricing_fallback", "service_type", st, "error", res.Error())
		return domainPricing.Defaults(st)
	}
	if len(res.Data()) == 0 {
		return domainPricing.Defaults(st)
	}
	return res.Data()
}

// handlePricingPage renders GET /pricing?service=
func handlePricingPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	pref := preference.FromContext(r.Context())
	if raw := r.URL.Query().Get("service"); raw != "" {
		st, err := service.Parse(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// Visiting a service's pricing makes it the active line.
		_ = pref.Set(st)
	}
	st := pref.Current()
	renderTemplate(w, r, "pricing.html", map[string]any{
		"Service": st,
		"Tiers":   publicTiers(r, st),
	})
}

// handlePricingAPI handles GET /api/pricing?service=
func handlePricingAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	st := preference.Current(r.Context())
	if raw := r.URL.Query().Get("service"); raw != "" {
		parsed, err := service.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, message{Message: err.Error()})
			return
		}
		st = parsed
	}
	writeJSON(w, http.StatusOK, publicTiers(r, st))
}

// handleServicePage renders /services/taxation and /services/web-design and
// makes that line the active one.
func handleServicePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	st, err := service.Parse(strings.TrimPrefix(r.URL.Path, "/services/"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	_ = preference.FromContext(r.Context()).Set(st)
	renderTemplate(w, r, "service.html", map[string]any{
		"Service": st,
		"Tiers":   publicTiers(r, st),
	})
}

// handleServiceToggle handles POST /service. A "service" field sets the
// line; without one the line flips. Redirects back to "next" or the home page.
func handleServiceToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	pref := preference.FromContext(r.Context())
	if raw := r.FormValue("service"); raw != "" {
		st, err := service.Parse(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = pref.Set(st)
	} else {
		pref.Toggle()
	}
	http.Redirect(w, r, safeNext(r.FormValue("next")), http.StatusSeeOther)
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// handleContactAPI handles POST /api/contact
func handleContactAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var sub contact.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeJSON(w, http.StatusBadRequest, message{Message: "Invalid request body"})
		return
	}

	res, err := submitContact(r, sub)
	var verr *contact.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, message{Message: "Email sent successfully", ID: res.NotificationID})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Validation error",
			"errors":  verr.Fields,
		})
	case errors.Is(err, orchestrators.ErrEmailNotConfigured):
		writeJSON(w, http.StatusInternalServerError, message{Message: "Email service not configured"})
	default:
		slog.Error("internal_error", "route", "/api/contact", "error", err)
		writeJSON(w, http.StatusInternalServerError, message{Message: "Internal server error"})
	}
}

// handleContactPage renders the contact form and accepts it without script.
func handleContactPage(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		renderContact(w, r, http.StatusOK, contactPage{
			Form: contact.Submission{Service: string(preference.Current(r.Context()))},
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		sub := contact.Submission{
			Name:     r.FormValue("name"),
			Email:    r.FormValue("email"),
			Phone:    r.FormValue("phone"),
			Company:  r.FormValue("company"),
			Service:  r.FormValue("service"),
			Message:  r.FormValue("message"),
			Budget:   r.FormValue("budget"),
			Timeline: r.FormValue("timeline"),
		}
		_, err := submitContact(r, sub)
		var verr *contact.ValidationError
		switch {
		case err == nil:
			renderContact(w, r, http.StatusOK, contactPage{Sent: true, Form: contact.Submission{Service: sub.Service}})
		case errors.As(err, &verr):
			page := contactPage{Form: sub, Errors: make(map[string]string, len(verr.Fields))}
			for _, f := range verr.Fields {
				page.Errors[f.Field] = f.Message
			}
			renderContact(w, r, http.StatusBadRequest, page)
		default:
			slog.Error("internal_error", "route", "/contact", "error", err)
			renderContact(w, r, http.StatusInternalServerError, contactPage{
				Form:    sub,
				Failure: "We could not send your message. Please email us directly.",
			})
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type contactPage struct {
	Form    contact.Submission
	Errors  map[string]string
	Sent    bool
	Failure string
}

func renderContact(w http.ResponseWriter, r *http.Request, status int, page contactPage) {
	if page.Errors == nil {
		page.Errors = map[string]string{}
	}
	renderTemplateStatus(w, r, status, "contact.html", page)
}

func submitContact(r *http.Request, sub contact.Submission) (orchestrators.DispatchResult, error) {
	return orchestrators.ExecuteSubmitContact(r.Context(), orchestrators.SubmitContactInput{Submission: sub}, orchestrators.SubmitContactDeps{
		Sender: deps.Sender,
		Mail:   deps.Mail,
	})
}
