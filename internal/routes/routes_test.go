package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/dynamite/internal/billing"
	"github.com/dukerupert/dynamite/internal/cookie"
	"github.com/dukerupert/dynamite/internal/handler/storefront"
	"github.com/dukerupert/dynamite/internal/handler/webhook"
	"github.com/dukerupert/dynamite/internal/repository/repotest"
	"github.com/dukerupert/dynamite/internal/router"
	"github.com/dukerupert/dynamite/internal/service"
	"github.com/dukerupert/dynamite/internal/session"
)

type shop struct {
	store    *repotest.Store
	provider *billing.MockProvider
	router   *router.Router
	cookies  []*http.Cookie
}

func newShop(t *testing.T) *shop {
	t.Helper()

	s := &shop{store: repotest.New(), provider: billing.NewMockProvider()}

	carts := service.NewCartService(s.store, nil)
	checkout := service.NewCheckoutService(s.store, s.provider, service.CheckoutConfig{BaseURL: "http://shop.test"}, nil)
	payments := service.NewPaymentService(s.store, s.provider, nil, nil)
	orders := service.NewOrderService(s.store, nil)
	sessions := session.NewManager(session.NewMemoryStore(), cookie.NewConfig("", false), time.Hour)

	s.router = router.New()
	RegisterStorefrontRoutes(s.router, StorefrontDeps{
		CartHandler:     storefront.NewCartHandler(carts, sessions),
		CheckoutHandler: storefront.NewCheckoutHandler(checkout, payments, carts, sessions),
		OrdersHandler:   storefront.NewOrdersHandler(orders),
	})
	RegisterWebhookRoutes(s.router, WebhookDeps{StripeHandler: webhook.NewStripeHandler(payments)})
	return s
}

func (s *shop) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range s.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if set := rec.Result().Cookies(); len(set) > 0 {
		s.cookies = set
	}

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestStorefrontFlow_CartToPaidOrder(t *testing.T) {
	s := newShop(t)
	variant := s.store.AddVariant(repotest.Variant{
		ProductName:   "Espresso",
		Label:         "250g",
		Price:         1800,
		StripePriceID: "price_espresso",
		Stock:         repotest.Stock(5),
	})

	rec, body := s.do(t, http.MethodPost, "/api/cart/add", `{"variant_id":"`+variant.String()+`","quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 3600, body["total"])
	require.NotEmpty(t, s.cookies, "adding to cart must issue a session cookie")

	rec, body = s.do(t, http.MethodPost, "/api/checkout/create-session", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, body["redirectUrl"])

	// A double click inside the lock window reuses the first session.
	rec, again := s.do(t, http.MethodPost, "/api/checkout/create-session", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, body["redirectUrl"], again["redirectUrl"])
	require.Len(t, s.store.Orders(), 1)

	stock, tracked := s.store.VariantStock(variant)
	require.True(t, tracked)
	assert.EqualValues(t, 3, stock)

	ref := s.store.Orders()[0].StripeSessionID.String
	require.NotEmpty(t, ref)

	rec, body = s.do(t, http.MethodGet, "/api/checkout/confirm?session_id="+ref, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", body["status"])

	s.provider.Complete(ref, "pi_espresso", "buyer@example.com")
	payload, sig := s.provider.SignedEvent(billing.EventCheckoutSessionCompleted, s.provider.Session(ref))
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set(webhook.SignatureHeader, sig)
	whRec := httptest.NewRecorder()
	s.router.ServeHTTP(whRec, req)
	require.Equal(t, http.StatusOK, whRec.Code, whRec.Body.String())

	rec, body = s.do(t, http.MethodGet, "/api/checkout/confirm?session_id="+ref, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	_, body = s.do(t, http.MethodGet, "/api/cart", "")
	assert.EqualValues(t, 0, body["item_count"], "confirmed payment clears the cart")

	rec, body = s.do(t, http.MethodGet, "/api/orders/by-session/"+ref, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	order := body["order"].(map[string]any)
	assert.Equal(t, "paid", order["status"])
	assert.EqualValues(t, 3600, order["total"])
	assert.Len(t, order["items"], 1)
}

func TestStorefrontFlow_EmptyCartCheckout(t *testing.T) {
	s := newShop(t)

	rec, body := s.do(t, http.MethodPost, "/api/checkout/create-session", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CART_EMPTY", body["error"].(map[string]any)["code"])
	assert.Empty(t, s.store.Orders())
}

func TestStorefrontFlow_UnknownSessionLookup(t *testing.T) {
	s := newShop(t)

	rec, body := s.do(t, http.MethodGet, "/api/orders/by-session/cs_nope", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "not_found", body["status"])
}

func TestWebhookRoute_RejectsUnsigned(t *testing.T) {
	s := newShop(t)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(`{"type":"checkout.session.completed"}`))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error { return p.err }

func TestOpsRoutes(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		r := router.New()
		RegisterOpsRoutes(r, OpsDeps{
			Database: pinger{},
			Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("# metrics"))
			}),
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, "# metrics", rec.Body.String())
	})

	t.Run("database down", func(t *testing.T) {
		r := router.New()
		RegisterOpsRoutes(r, OpsDeps{Database: pinger{err: errors.New("refused")}})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
