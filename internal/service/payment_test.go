package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83/webhook"
	"go.uber.org/mock/gomock"

	"github.com/dukerupert/dynamite/internal/billing"
	"github.com/dukerupert/dynamite/internal/domain"
	"github.com/dukerupert/dynamite/internal/repository"
	"github.com/dukerupert/dynamite/internal/repository/repotest"
)

// paidOrder checks out one item and completes payment at the provider.
func (f *fixture) paidOrder(t *testing.T) (uuid.UUID, *billing.CheckoutSession) {
	t.Helper()
	v := f.store.AddVariant(repotest.Variant{Price: 1500, StripePriceID: "price_1"})
	orderID, ref := f.checkoutOrder(t, item(v, 2))
	f.provider.Complete(ref, "pi_123", "buyer@example.com")
	cs := f.provider.Session(ref)
	cs.AmountTotal = 3000
	return orderID, cs
}

func (f *fixture) orderStatus(t *testing.T, id uuid.UUID) repository.Order {
	t.Helper()
	o, err := f.store.GetOrder(context.Background(), repository.UUID(id))
	require.NoError(t, err)
	return o
}

func TestConfirmPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("pending until the provider reports paid", func(t *testing.T) {
		f := newFixture(t)
		v := f.store.AddVariant(repotest.Variant{Price: 100, StripePriceID: "price_1"})
		orderID, ref := f.checkoutOrder(t, item(v, 1))

		res, err := f.payments.ConfirmPayment(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, ConfirmStatusPending, res.Status)
		assert.Equal(t, orderID, res.OrderID)
		assert.Equal(t, "pending", f.orderStatus(t, orderID).Status)
		assert.Empty(t, f.notifier.Events())
	})

	t.Run("marks paid once and is idempotent", func(t *testing.T) {
		f := newFixture(t)
		orderID, cs := f.paidOrder(t)

		first, err := f.payments.ConfirmPayment(ctx, cs.ID)
		require.NoError(t, err)
		assert.Equal(t, ConfirmStatusOK, first.Status)
		assert.True(t, first.Transitioned)

		second, err := f.payments.ConfirmPayment(ctx, cs.ID)
		require.NoError(t, err)
		assert.Equal(t, ConfirmStatusOK, second.Status)
		assert.False(t, second.Transitioned)

		o := f.orderStatus(t, orderID)
		assert.Equal(t, "paid", o.Status)
		assert.Equal(t, "pi_123", o.StripePaymentIntentID.String)
		assert.Equal(t, "buyer@example.com", o.CustomerEmail.String)
		assert.True(t, o.PaidAt.Valid)

		events := f.notifier.Events()
		require.Len(t, events, 1)
		assert.Equal(t, domain.OrderPaid{OrderID: orderID, RecipientEmail: "buyer@example.com", Source: domain.PaymentSourceConfirm}, events[0])
	})

	t.Run("requires a reference", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.payments.ConfirmPayment(ctx, "")
		assert.ErrorIs(t, err, ErrSessionRefRequired)
	})

	t.Run("unknown checkout session", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.payments.ConfirmPayment(ctx, "cs_unknown")
		assert.ErrorIs(t, err, ErrOrderNotFound)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})

	t.Run("paid session without an order", func(t *testing.T) {
		f := newFixture(t)
		cs, err := f.provider.CreateCheckoutSession(ctx, billing.CreateCheckoutSessionParams{
			Metadata: map[string]string{billing.MetadataOrderID: uuid.NewString()},
		})
		require.NoError(t, err)
		f.provider.Complete(cs.ID, "pi_x", "")

		_, err = f.payments.ConfirmPayment(ctx, cs.ID)
		assert.ErrorIs(t, err, ErrOrderNotFound)
		assert.Empty(t, f.notifier.Events())
	})

	t.Run("provider outage is upstream", func(t *testing.T) {
		f := newFixture(t)
		f.provider.GetCheckoutSessionFunc = func(ctx context.Context, id string) (*billing.CheckoutSession, error) {
			return nil, errors.New("timeout")
		}
		_, err := f.payments.ConfirmPayment(ctx, "cs_any")
		assert.Equal(t, domain.EUPSTREAM, domain.ErrorCode(err))
	})
}

func TestHandleWebhook_DuplicateDeliveryNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	orderID, cs := f.paidOrder(t)
	body, sig := f.provider.SignedEvent(billing.EventCheckoutSessionCompleted, cs)

	require.NoError(t, f.payments.HandleWebhook(context.Background(), body, sig))
	require.NoError(t, f.payments.HandleWebhook(context.Background(), body, sig))

	assert.Equal(t, "paid", f.orderStatus(t, orderID).Status)
	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.PaymentSourceWebhook, events[0].Source)
}

func TestHandleWebhook_TamperedSignatureMutatesNothing(t *testing.T) {
	f := newFixture(t)
	orderID, cs := f.paidOrder(t)
	body, sig := f.provider.SignedEvent(billing.EventCheckoutSessionCompleted, cs)

	tampered := []byte(string(body[:len(body)-1]) + ` }`)
	err := f.payments.HandleWebhook(context.Background(), tampered, sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, "INVALID_SIGNATURE", domain.ErrorReason(err))

	err = f.payments.HandleWebhook(context.Background(), body, "t=1,v1=00")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	other := billing.NewMockProvider()
	other.WebhookSecret = "whsec_attacker"
	forged, forgedSig := other.SignedEvent(billing.EventCheckoutSessionCompleted, cs)
	err = f.payments.HandleWebhook(context.Background(), forged, forgedSig)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	o := f.orderStatus(t, orderID)
	assert.Equal(t, "pending", o.Status)
	assert.False(t, o.StripePaymentIntentID.Valid)
	assert.Empty(t, f.notifier.Events())
}

func TestPayment_ConcurrentConfirmAndWebhookTransitionOnce(t *testing.T) {
	f := newFixture(t)
	orderID, cs := f.paidOrder(t)
	body, sig := f.provider.SignedEvent(billing.EventCheckoutSessionCompleted, cs)

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		transitions int
	)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			res, err := f.payments.ConfirmPayment(context.Background(), cs.ID)
			assert.NoError(t, err)
			if err == nil && res.Transitioned {
				mu.Lock()
				transitions++
				mu.Unlock()
			}
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, f.payments.HandleWebhook(context.Background(), body, sig))
		}()
	}
	wg.Wait()

	assert.Equal(t, "paid", f.orderStatus(t, orderID).Status)
	assert.Len(t, f.notifier.Events(), 1)
	assert.LessOrEqual(t, transitions, 1)
}

func TestHandleWebhook_Events(t *testing.T) {
	ctx := context.Background()

	t.Run("completed but unpaid waits for async success", func(t *testing.T) {
		f := newFixture(t)
		v := f.store.AddVariant(repotest.Variant{Price: 100, StripePriceID: "price_1"})
		orderID, ref := f.checkoutOrder(t, item(v, 1))
		cs := f.provider.Session(ref)
		cs.Status = "complete"

		body, sig := f.provider.SignedEvent(billing.EventCheckoutSessionCompleted, cs)
		require.NoError(t, f.payments.HandleWebhook(ctx, body, sig))
		assert.Equal(t, "pending", f.orderStatus(t, orderID).Status)

		cs.PaymentStatus = billing.PaymentStatusPaid
		body, sig = f.provider.SignedEvent(billing.EventCheckoutSessionAsyncPaymentSucceed, cs)
		require.NoError(t, f.payments.HandleWebhook(ctx, body, sig))
		assert.Equal(t, "paid", f.orderStatus(t, orderID).Status)
		assert.Len(t, f.notifier.Events(), 1)
	})

	t.Run("falls back to stored checkout reference", func(t *testing.T) {
		f := newFixture(t)
		orderID, cs := f.paidOrder(t)
		cs.Metadata = nil

		body, sig := f.provider.SignedEvent(billing.EventCheckoutSessionCompleted, cs)
		require.NoError(t, f.payments.HandleWebhook(ctx, body, sig))
		assert.Equal(t, "paid", f.orderStatus(t, orderID).Status)
	})

	t.Run("reconciliation miss is acknowledged", func(t *testing.T) {
		f := newFixture(t)
		cs := &billing.CheckoutSession{
			ID:            "cs_test_orphan",
			PaymentStatus: billing.PaymentStatusPaid,
			Metadata:      map[string]string{billing.MetadataOrderID: uuid.NewString()},
		}
		body, sig := f.provider.SignedEvent(billing.EventCheckoutSessionCompleted, cs)
		assert.NoError(t, f.payments.HandleWebhook(ctx, body, sig))
		assert.Empty(t, f.notifier.Events())
	})

	t.Run("replay keeps the first payment refs", func(t *testing.T) {
		f := newFixture(t)
		orderID, cs := f.paidOrder(t)
		body, sig := f.provider.SignedEvent(billing.EventCheckoutSessionCompleted, cs)
		require.NoError(t, f.payments.HandleWebhook(ctx, body, sig))

		cs.PaymentIntentID = "pi_other"
		cs.CustomerEmail = "other@example.com"
		body, sig = f.provider.SignedEvent(billing.EventCheckoutSessionAsyncPaymentSucceed, cs)
		require.NoError(t, f.payments.HandleWebhook(ctx, body, sig))

		o := f.orderStatus(t, orderID)
		assert.Equal(t, "pi_123", o.StripePaymentIntentID.String)
		assert.Equal(t, "buyer@example.com", o.CustomerEmail.String)
		assert.Len(t, f.notifier.Events(), 1)
	})

	t.Run("async failure and unknown types are acked", func(t *testing.T) {
		f := newFixture(t)
		orderID, cs := f.paidOrder(t)

		for _, typ := range []string{billing.EventCheckoutSessionAsyncPaymentFailed, "invoice.paid"} {
			body, sig := f.provider.SignedEvent(typ, cs)
			assert.NoError(t, f.payments.HandleWebhook(ctx, body, sig), typ)
		}
		assert.Equal(t, "pending", f.orderStatus(t, orderID).Status)
	})
}

func TestHandleWebhook_ExpiredSessionReleasesStock(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels the pending order and restores stock once", func(t *testing.T) {
		f := newFixture(t)
		v := f.store.AddVariant(repotest.Variant{Price: 1500, StripePriceID: "price_1", Stock: repotest.Stock(5)})
		orderID, ref := f.checkoutOrder(t, item(v, 2))
		stock, _ := f.store.VariantStock(v)
		require.Equal(t, int32(3), stock)

		f.provider.Expire(ref)
		body, sig := f.provider.SignedEvent(billing.EventCheckoutSessionExpired, f.provider.Session(ref))
		require.NoError(t, f.payments.HandleWebhook(ctx, body, sig))
		require.NoError(t, f.payments.HandleWebhook(ctx, body, sig))

		assert.Equal(t, "cancelled", f.orderStatus(t, orderID).Status)
		stock, _ = f.store.VariantStock(v)
		assert.Equal(t, int32(5), stock)
		assert.Empty(t, f.notifier.Events())
	})

	t.Run("expiry of a superseded session changes nothing", func(t *testing.T) {
		f := newFixture(t)
		v := f.store.AddVariant(repotest.Variant{Price: 100, StripePriceID: "price_1", Stock: repotest.Stock(4)})
		orderID, _ := f.checkoutOrder(t, item(v, 1))

		old := &billing.CheckoutSession{
			ID:       "cs_test_superseded",
			Status:   billing.SessionStatusExpired,
			Metadata: map[string]string{billing.MetadataOrderID: orderID.String()},
		}
		body, sig := f.provider.SignedEvent(billing.EventCheckoutSessionExpired, old)
		require.NoError(t, f.payments.HandleWebhook(ctx, body, sig))

		assert.Equal(t, "pending", f.orderStatus(t, orderID).Status)
		stock, _ := f.store.VariantStock(v)
		assert.Equal(t, int32(3), stock)
	})

	t.Run("expiry event for a session still open is ignored", func(t *testing.T) {
		f := newFixture(t)
		v := f.store.AddVariant(repotest.Variant{Price: 100, StripePriceID: "price_1"})
		orderID, ref := f.checkoutOrder(t, item(v, 1))

		body, sig := f.provider.SignedEvent(billing.EventCheckoutSessionExpired, f.provider.Session(ref))
		require.NoError(t, f.payments.HandleWebhook(ctx, body, sig))
		assert.Equal(t, "pending", f.orderStatus(t, orderID).Status)
	})

	t.Run("browser session can check out again afterwards", func(t *testing.T) {
		f := newFixture(t)
		v := f.store.AddVariant(repotest.Variant{Price: 100, StripePriceID: "price_1"})
		sess := newSession(item(v, 1))

		first, err := f.checkout.CreateOrReuseCheckoutSession(ctx, sess)
		require.NoError(t, err)
		f.provider.Expire(first.CheckoutSessionRef)
		body, sig := f.provider.SignedEvent(billing.EventCheckoutSessionExpired, f.provider.Session(first.CheckoutSessionRef))
		require.NoError(t, f.payments.HandleWebhook(ctx, body, sig))

		f.clock.Advance(DefaultLockWindow + time.Second)
		second, err := f.checkout.CreateOrReuseCheckoutSession(ctx, sess)
		require.NoError(t, err)
		assert.NotEqual(t, first.OrderID, second.OrderID)
		assert.Equal(t, "pending", f.orderStatus(t, second.OrderID).Status)
	})
}

func TestHandleWebhook_MalformedEventIsInternal(t *testing.T) {
	f := newFixture(t)
	body := []byte(`{"id":"evt_bad","object":"event","type":"checkout.session.completed","api_version":"2025-01-27.acacia","data":{"object":{"id":"cs_bad","object":"checkout.session","amount_total":"lots"}}}`)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   body,
		Secret:    f.provider.WebhookSecret,
		Timestamp: time.Now(),
	})

	err := f.payments.HandleWebhook(context.Background(), signed.Payload, signed.Header)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}

func TestHandleWebhook_DatabaseErrorIsReturned(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := repository.NewMockStore(ctrl)
	provider := billing.NewMockProvider()
	notifier := &recordingNotifier{}

	orderID := uuid.New()
	cs := &billing.CheckoutSession{
		ID:            "cs_test_db",
		PaymentStatus: billing.PaymentStatusPaid,
		Metadata:      map[string]string{billing.MetadataOrderID: orderID.String()},
	}
	body, sig := provider.SignedEvent(billing.EventCheckoutSessionCompleted, cs)

	store.EXPECT().ExecTx(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn func(repository.Querier) error) error {
		return fn(store)
	})
	store.EXPECT().GetOrder(gomock.Any(), repository.UUID(orderID)).Return(repository.Order{ID: repository.UUID(orderID), Total: 100}, nil)
	store.EXPECT().MarkOrderPaid(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("connection reset"))

	svc := NewPaymentService(store, provider, notifier, discardLogger())
	err := svc.HandleWebhook(context.Background(), body, sig)

	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
	assert.Empty(t, notifier.Events())
}
