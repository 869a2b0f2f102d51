package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dukerupert/dynamite/internal/cookie"
)

// Manager binds a Store to the session cookie.
type Manager struct {
	store   Store
	cookies *cookie.Config
	ttl     time.Duration
}

func NewManager(store Store, cookies *cookie.Config, ttl time.Duration) *Manager {
	return &Manager{store: store, cookies: cookies, ttl: ttl}
}

// Load returns the request's session. An absent, unknown or expired cookie
// yields a fresh session with a new server-generated ref; client-chosen refs
// are never adopted.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	if ref := cookie.Get(r, cookie.SessionCookieName); ref != "" {
		st, ok, err := m.store.Load(r.Context(), ref)
		if err != nil {
			return nil, err
		}
		if ok {
			return &Session{Ref: ref, State: st}, nil
		}
	}

	ref, err := NewRef()
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	return &Session{Ref: ref}, nil
}

// Save persists the session and refreshes the cookie expiry.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, s *Session) error {
	if err := m.store.Save(r.Context(), s.Ref, s.State, m.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	m.cookies.SetSession(w, cookie.SessionCookieName, s.Ref, m.ttl)
	return nil
}

// Destroy deletes the session and clears the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request, s *Session) error {
	m.cookies.ClearSession(w, cookie.SessionCookieName)
	return m.store.Delete(r.Context(), s.Ref)
}
