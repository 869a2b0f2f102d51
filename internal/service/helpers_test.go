package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/dynamite/internal/billing"
	"github.com/dukerupert/dynamite/internal/domain"
	"github.com/dukerupert/dynamite/internal/repository/repotest"
	"github.com/dukerupert/dynamite/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// recordingNotifier counts OrderPaid events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.OrderPaid
}

func (n *recordingNotifier) OrderPaid(ctx context.Context, event domain.OrderPaid) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
}

func (n *recordingNotifier) Events() []domain.OrderPaid {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.OrderPaid(nil), n.events...)
}

type fixture struct {
	store    *repotest.Store
	provider *billing.MockProvider
	notifier *recordingNotifier
	clock    *clock
	checkout *checkoutService
	payments PaymentService
	invoices InvoiceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    repotest.New(),
		provider: billing.NewMockProvider(),
		notifier: &recordingNotifier{},
		clock:    newClock(),
	}
	f.store.Now = f.clock.Now

	svc := NewCheckoutService(f.store, f.provider, CheckoutConfig{
		LockWindow: DefaultLockWindow,
		BaseURL:    "https://shop.example",
	}, discardLogger())
	f.checkout = svc.(*checkoutService)
	f.checkout.now = f.clock.Now

	f.payments = NewPaymentService(f.store, f.provider, f.notifier, discardLogger())
	f.invoices = NewInvoiceService(f.store, "DYN", discardLogger())
	return f
}

func newSession(items ...domain.CartItem) *session.Session {
	return &session.Session{
		Ref:   "ref-" + uuid.NewString(),
		State: session.State{Cart: domain.Cart{Items: items}},
	}
}

func item(variantID uuid.UUID, qty int) domain.CartItem {
	return domain.CartItem{VariantID: variantID, Quantity: qty}
}

// checkoutOrder runs a checkout and returns the created order id and
// checkout session ref.
func (f *fixture) checkoutOrder(t *testing.T, items ...domain.CartItem) (uuid.UUID, string) {
	t.Helper()
	res, err := f.checkout.CreateOrReuseCheckoutSession(context.Background(), newSession(items...))
	require.NoError(t, err)
	return res.OrderID, res.CheckoutSessionRef
}
