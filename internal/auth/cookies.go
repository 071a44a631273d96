package auth

import (
	"net/http"
	"time"

	"github.com/mehmetcc/agora/internal/config"
	"github.com/mehmetcc/agora/internal/guard"
)

// setSessionCookie stores the freshly minted token on the client. SameSite is
// Lax so top-level navigation keeps the session, Secure follows config.
func setSessionCookie(w http.ResponseWriter, cfg *config.CookieConfig, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     guard.SessionCookie,
		Value:    token,
		Path:     "/",
		Domain:   cfg.Domain,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie overwrites the token with an already-expired cookie.
func clearSessionCookie(w http.ResponseWriter, cfg *config.CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     guard.SessionCookie,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}
