package middleware

import (
	"net/http"

	"aurora/internal/application/preference"
	"aurora/internal/domain/service"
)

// PreferenceCookieName persists the visitor's service line.
const PreferenceCookieName = "aurora-service-preference"

const preferenceMaxAge = 365 * 24 * 60 * 60

// Preference injects a per-request preference store seeded from the cookie.
// Any change made while handling the request is written back as a cookie, so
// handlers must change the preference before writing the response.
func Preference(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		initial := service.Default
		if c, err := r.Cookie(PreferenceCookieName); err == nil {
			initial = service.ParseOrDefault(c.Value)
		}
		store := preference.NewStore(initial)
		unsub := store.Subscribe(func(st service.Type) {
			http.SetCookie(w, &http.Cookie{
				Name:     PreferenceCookieName,
				Value:    string(st),
				Path:     "/",
				MaxAge:   preferenceMaxAge,
				Secure:   SecureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		})
		defer unsub()
		next.ServeHTTP(w, r.WithContext(preference.WithProvider(r.Context(), store)))
	})
}
