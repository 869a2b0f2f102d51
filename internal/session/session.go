// Package session holds per-browser state: the cart and the checkout
// anti-double-click marker.
//
// A *Session is passed explicitly into services. Nothing in this package
// keeps ambient request state.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/dukerupert/dynamite/internal/domain"
)

// State is the JSON document persisted per session.
type State struct {
	Cart domain.Cart `json:"cart"`

	// CheckoutLockAt is when the last external checkout session was handed
	// out for this browser session.
	CheckoutLockAt         *time.Time `json:"checkout_lock_at,omitempty"`
	LastCheckoutSessionRef string     `json:"last_checkout_session_ref,omitempty"`
}

// Session couples a stable opaque ref with its state.
type Session struct {
	Ref   string
	State State
}

// InCheckoutLock reports whether a checkout session was created less than
// window ago.
func (s *Session) InCheckoutLock(now time.Time, window time.Duration) bool {
	if s.State.CheckoutLockAt == nil || s.State.LastCheckoutSessionRef == "" {
		return false
	}
	return now.Sub(*s.State.CheckoutLockAt) < window
}

// MarkCheckout records the checkout session handed out at now.
func (s *Session) MarkCheckout(ref string, now time.Time) {
	at := now
	s.State.CheckoutLockAt = &at
	s.State.LastCheckoutSessionRef = ref
}

// NewRef returns 32 random bytes, base64 URL encoded.
func NewRef() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Store persists session state. Load reports false for unknown or expired
// refs.
type Store interface {
	Load(ctx context.Context, ref string) (State, bool, error)
	Save(ctx context.Context, ref string, state State, ttl time.Duration) error
	Delete(ctx context.Context, ref string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
