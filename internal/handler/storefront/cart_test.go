package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/dynamite/internal/domain"
	"github.com/dukerupert/dynamite/internal/service"
	"github.com/dukerupert/dynamite/internal/session"
)

// fakeSessions hands out one in-memory session and counts saves.
type fakeSessions struct {
	sess    *session.Session
	loadErr error
	saveErr error
	saves   int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sess: &session.Session{Ref: "sess-1"}}
}

func (f *fakeSessions) Load(r *http.Request) (*session.Session, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.sess, nil
}

func (f *fakeSessions) Save(w http.ResponseWriter, r *http.Request, s *session.Session) error {
	f.saves++
	return f.saveErr
}

// mockCartService implements service.CartService for testing
type mockCartService struct {
	getFunc    func(sess *session.Session) (*service.CartView, error)
	addFunc    func(ctx context.Context, sess *session.Session, variantID uuid.UUID, quantity int) (*service.CartView, error)
	updateFunc func(ctx context.Context, sess *session.Session, variantID uuid.UUID, quantity int) (*service.CartView, error)
	removeFunc func(sess *session.Session, variantID uuid.UUID) (*service.CartView, error)
	cleared    int
}

func (m *mockCartService) Get(sess *session.Session) (*service.CartView, error) {
	if m.getFunc != nil {
		return m.getFunc(sess)
	}
	return &service.CartView{Items: []domain.CartItem{}}, nil
}

func (m *mockCartService) Add(ctx context.Context, sess *session.Session, variantID uuid.UUID, quantity int) (*service.CartView, error) {
	if m.addFunc != nil {
		return m.addFunc(ctx, sess, variantID, quantity)
	}
	return &service.CartView{}, nil
}

func (m *mockCartService) Update(ctx context.Context, sess *session.Session, variantID uuid.UUID, quantity int) (*service.CartView, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, sess, variantID, quantity)
	}
	return &service.CartView{}, nil
}

func (m *mockCartService) Remove(sess *session.Session, variantID uuid.UUID) (*service.CartView, error) {
	if m.removeFunc != nil {
		return m.removeFunc(sess, variantID)
	}
	return &service.CartView{}, nil
}

func (m *mockCartService) Clear(sess *session.Session) *service.CartView {
	m.cleared++
	sess.State.Cart = domain.Cart{}
	return &service.CartView{Items: []domain.CartItem{}}
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body struct {
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestCartHandler_View(t *testing.T) {
	variantID := uuid.New()
	carts := &mockCartService{
		getFunc: func(sess *session.Session) (*service.CartView, error) {
			return &service.CartView{
				Items:     []domain.CartItem{{VariantID: variantID, Name: "Espresso", UnitPrice: 1800, Quantity: 2}},
				Total:     3600,
				ItemCount: 2,
			}, nil
		},
	}
	sessions := newFakeSessions()
	h := NewCartHandler(carts, sessions)

	rec := httptest.NewRecorder()
	h.View(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var view service.CartView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, int64(3600), view.Total)
	assert.Equal(t, 2, view.ItemCount)
	assert.Zero(t, sessions.saves, "viewing must not persist the session")
}

func TestCartHandler_Add(t *testing.T) {
	variantID := uuid.New()

	t.Run("adds and saves session", func(t *testing.T) {
		var gotQty int
		var gotVariant uuid.UUID
		carts := &mockCartService{
			addFunc: func(ctx context.Context, sess *session.Session, id uuid.UUID, quantity int) (*service.CartView, error) {
				gotVariant, gotQty = id, quantity
				return &service.CartView{ItemCount: quantity}, nil
			},
		}
		sessions := newFakeSessions()
		h := NewCartHandler(carts, sessions)

		rec := httptest.NewRecorder()
		h.Add(rec, postJSON("/api/cart/add", `{"variant_id":"`+variantID.String()+`","quantity":3}`))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, variantID, gotVariant)
		assert.Equal(t, 3, gotQty)
		assert.Equal(t, 1, sessions.saves)
	})

	t.Run("rejects bad variant id", func(t *testing.T) {
		h := NewCartHandler(&mockCartService{}, newFakeSessions())

		rec := httptest.NewRecorder()
		h.Add(rec, postJSON("/api/cart/add", `{"variant_id":"nope","quantity":1}`))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		fields := decodeError(t, rec)["fields"].(map[string]any)
		assert.Contains(t, fields, "variant_id")
	})

	t.Run("rejects quantity above max", func(t *testing.T) {
		h := NewCartHandler(&mockCartService{}, newFakeSessions())

		rec := httptest.NewRecorder()
		h.Add(rec, postJSON("/api/cart/add", `{"variant_id":"`+variantID.String()+`","quantity":100}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("service error is not saved", func(t *testing.T) {
		carts := &mockCartService{
			addFunc: func(ctx context.Context, sess *session.Session, id uuid.UUID, quantity int) (*service.CartView, error) {
				return nil, service.ErrVariantNotFound
			},
		}
		sessions := newFakeSessions()
		h := NewCartHandler(carts, sessions)

		rec := httptest.NewRecorder()
		h.Add(rec, postJSON("/api/cart/add", `{"variant_id":"`+variantID.String()+`"}`))

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "VARIANT_NOT_FOUND", decodeError(t, rec)["code"])
		assert.Zero(t, sessions.saves)
	})

	t.Run("session store failure", func(t *testing.T) {
		sessions := newFakeSessions()
		sessions.saveErr = errors.New("db down")
		h := NewCartHandler(&mockCartService{}, sessions)

		rec := httptest.NewRecorder()
		h.Add(rec, postJSON("/api/cart/add", `{"variant_id":"`+variantID.String()+`"}`))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "db down")
	})
}

func TestCartHandler_Update(t *testing.T) {
	variantID := uuid.New()

	t.Run("zero quantity is allowed", func(t *testing.T) {
		gotQty := -1
		carts := &mockCartService{
			updateFunc: func(ctx context.Context, sess *session.Session, id uuid.UUID, quantity int) (*service.CartView, error) {
				gotQty = quantity
				return &service.CartView{}, nil
			},
		}
		h := NewCartHandler(carts, newFakeSessions())

		rec := httptest.NewRecorder()
		h.Update(rec, postJSON("/api/cart/update", `{"variant_id":"`+variantID.String()+`","quantity":0}`))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, 0, gotQty)
	})

	t.Run("quantity is required", func(t *testing.T) {
		h := NewCartHandler(&mockCartService{}, newFakeSessions())

		rec := httptest.NewRecorder()
		h.Update(rec, postJSON("/api/cart/update", `{"variant_id":"`+variantID.String()+`"}`))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		fields := decodeError(t, rec)["fields"].(map[string]any)
		assert.Contains(t, fields, "quantity")
	})

	t.Run("missing line", func(t *testing.T) {
		carts := &mockCartService{
			updateFunc: func(ctx context.Context, sess *session.Session, id uuid.UUID, quantity int) (*service.CartView, error) {
				return nil, service.ErrCartItemNotFound
			},
		}
		h := NewCartHandler(carts, newFakeSessions())

		rec := httptest.NewRecorder()
		h.Update(rec, postJSON("/api/cart/update", `{"variant_id":"`+variantID.String()+`","quantity":2}`))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCartHandler_RemoveAndClear(t *testing.T) {
	variantID := uuid.New()
	var removed uuid.UUID
	carts := &mockCartService{
		removeFunc: func(sess *session.Session, id uuid.UUID) (*service.CartView, error) {
			removed = id
			return &service.CartView{}, nil
		},
	}
	sessions := newFakeSessions()
	h := NewCartHandler(carts, sessions)

	rec := httptest.NewRecorder()
	h.Remove(rec, postJSON("/api/cart/remove", `{"variant_id":"`+variantID.String()+`"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, variantID, removed)

	rec = httptest.NewRecorder()
	h.Clear(rec, httptest.NewRequest(http.MethodPost, "/api/cart/clear", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, carts.cleared)
	assert.Equal(t, 2, sessions.saves)
}

func TestCartHandler_RejectsUnknownFields(t *testing.T) {
	h := NewCartHandler(&mockCartService{}, newFakeSessions())

	rec := httptest.NewRecorder()
	h.Add(rec, postJSON("/api/cart/add", `{"variant_id":"`+uuid.NewString()+`","price":1}`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeError(t, rec)["fields"].(map[string]any)
	assert.Contains(t, fields, "price")
}
