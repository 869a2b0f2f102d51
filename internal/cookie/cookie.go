// Package cookie sets and clears the storefront session cookie.
package cookie

import (
	"net/http"
	"time"
)

// SessionCookieName carries the opaque session ref.
const SessionCookieName = "dynamite_session"

// Config holds cookie attributes shared by every cookie the server sets.
type Config struct {
	// Domain scopes the cookie. Empty means host-only.
	Domain string

	// Secure should be true whenever the storefront is served over HTTPS.
	Secure bool
}

func NewConfig(domain string, secure bool) *Config {
	return &Config{Domain: domain, Secure: secure}
}

// SetSession sets an HttpOnly, SameSite=Lax cookie valid for maxAge.
func (c *Config) SetSession(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   c.Domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSession expires the cookie. Domain and path must match SetSession.
func (c *Config) ClearSession(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Domain:   c.Domain,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Get returns the cookie value or "" when absent.
func Get(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
