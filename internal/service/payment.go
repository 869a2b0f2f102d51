package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"github.com/dukerupert/dynamite/internal/billing"
	"github.com/dukerupert/dynamite/internal/domain"
	"github.com/dukerupert/dynamite/internal/repository"
	"github.com/dukerupert/dynamite/internal/telemetry"
)

// PaymentService reconciles provider payment signals with orders. The
// synchronous confirm call and the webhook converge on one conditional
// update, so any interleaving yields exactly one pending -> paid transition.
type PaymentService interface {
	// ConfirmPayment checks a checkout session after the buyer returns
	// from the hosted page.
	ConfirmPayment(ctx context.Context, checkoutSessionRef string) (*ConfirmResult, error)

	// HandleWebhook verifies and applies a provider event. A nil error
	// means the event should be acknowledged.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// Confirm statuses.
const (
	ConfirmStatusOK      = "ok"
	ConfirmStatusPending = "pending"
	ConfirmStatusError   = "error" // only rendered by the HTTP layer
)

type ConfirmResult struct {
	Status  string
	OrderID uuid.UUID

	// Transitioned is true only for the call that moved the order to paid.
	Transitioned bool
}

// errReconcileMiss means a paid session matched no order.
var errReconcileMiss = errors.New("no order matches checkout session")

type paymentService struct {
	store    repository.Store
	provider billing.Provider
	notifier domain.Notifier
	logger   *slog.Logger
}

// NewPaymentService creates a new PaymentService instance. notifier may be
// nil.
func NewPaymentService(store repository.Store, provider billing.Provider, notifier domain.Notifier, logger *slog.Logger) PaymentService {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = domain.NotifierFunc(func(context.Context, domain.OrderPaid) {})
	}
	return &paymentService{
		store:    store,
		provider: provider,
		notifier: notifier,
		logger:   logger.With("service", "payment"),
	}
}

func (s *paymentService) ConfirmPayment(ctx context.Context, checkoutSessionRef string) (*ConfirmResult, error) {
	if checkoutSessionRef == "" {
		return nil, ErrSessionRefRequired
	}

	cs, err := s.provider.GetCheckoutSession(ctx, checkoutSessionRef)
	if errors.Is(err, billing.ErrCheckoutSessionNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		s.logger.Error("failed to retrieve checkout session", "checkout_session_ref", checkoutSessionRef, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStripeSessionFailed, err)
	}

	if !cs.IsPaid() {
		orderID, err := s.resolveOrder(ctx, s.store, cs)
		if errors.Is(err, errReconcileMiss) {
			return nil, ErrOrderNotFound
		}
		if err != nil {
			return nil, err
		}
		order, err := s.store.GetOrder(ctx, repository.UUID(orderID))
		if repository.IsNotFound(err) {
			return nil, ErrOrderNotFound
		}
		if err != nil {
			return nil, s.internal(err, "payment.confirm", "failed to load order")
		}
		if domain.OrderStatus(order.Status) == domain.OrderStatusPaid {
			return &ConfirmResult{Status: ConfirmStatusOK, OrderID: orderID}, nil
		}
		return &ConfirmResult{Status: ConfirmStatusPending, OrderID: orderID}, nil
	}

	result, err := s.markPaid(ctx, cs, domain.PaymentSourceConfirm)
	if errors.Is(err, errReconcileMiss) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhookEvent(payload, signature)
	if errors.Is(err, billing.ErrInvalidWebhookSignature) {
		s.logger.Warn("webhook signature verification failed", "error", err)
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if err != nil {
		return s.internal(err, "payment.webhook", "failed to decode webhook event")
	}

	if telemetry.Business != nil {
		telemetry.Business.WebhookReceived.WithLabelValues(event.Type).Inc()
	}
	log := s.logger.With("event_id", event.ID, "event_type", event.Type)

	switch event.Type {
	case billing.EventCheckoutSessionCompleted, billing.EventCheckoutSessionAsyncPaymentSucceed:
		if event.Session == nil {
			log.Warn("checkout event without session object")
			return nil
		}
		if !event.Session.IsPaid() {
			log.Info("checkout completed, awaiting async payment",
				"checkout_session_ref", event.Session.ID,
				"payment_status", event.Session.PaymentStatus,
			)
			return nil
		}

		_, err := s.markPaid(ctx, event.Session, domain.PaymentSourceWebhook)
		if errors.Is(err, errReconcileMiss) {
			// Acked: a provider retry cannot resolve it either.
			return nil
		}
		return err

	case billing.EventCheckoutSessionExpired:
		if event.Session == nil || event.Session.Status != billing.SessionStatusExpired {
			log.Debug("ignoring expiry event for a session that is not expired")
			return nil
		}
		return s.releaseExpired(ctx, event.Session)

	case billing.EventCheckoutSessionAsyncPaymentFailed:
		ref := ""
		if event.Session != nil {
			ref = event.Session.ID
		}
		log.Warn("async payment failed", "checkout_session_ref", ref)
		return nil

	default:
		log.Debug("ignoring webhook event")
		return nil
	}
}

// markPaid applies the conditional transition and notifies after commit
// when this call caused it.
func (s *paymentService) markPaid(ctx context.Context, cs *billing.CheckoutSession, source string) (*ConfirmResult, error) {
	log := s.logger.With("checkout_session_ref", cs.ID, "source", source)

	var (
		orderID   uuid.UUID
		rows      int64
		recipient string
	)

	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		var err error
		orderID, err = s.resolveOrder(ctx, q, cs)
		if err != nil {
			return err
		}

		order, err := q.GetOrder(ctx, repository.UUID(orderID))
		if repository.IsNotFound(err) {
			return errReconcileMiss
		}
		if err != nil {
			return s.internal(err, "payment.mark_paid", "failed to load order")
		}
		if cs.AmountTotal > 0 && cs.AmountTotal != order.Total {
			log.Warn("checkout amount differs from order total",
				"order_id", orderID,
				"order_total", order.Total,
				"amount_total", cs.AmountTotal,
			)
		}

		rows, err = q.MarkOrderPaid(ctx, repository.MarkOrderPaidParams{
			ID:              repository.UUID(orderID),
			PaymentIntentID: repository.Text(cs.PaymentIntentID),
			StripeSessionID: repository.Text(cs.ID),
			CustomerEmail:   repository.Text(cs.CustomerEmail),
		})
		if err != nil {
			return s.internal(err, "payment.mark_paid", "failed to mark order paid")
		}

		recipient = order.CustomerEmail.String
		if recipient == "" {
			recipient = cs.CustomerEmail
		}
		return nil
	})
	if errors.Is(err, errReconcileMiss) {
		log.Warn("reconciliation miss: no order for paid checkout session", "order_id_metadata", cs.OrderID())
		if telemetry.Business != nil {
			telemetry.Business.ReconcileMiss.WithLabelValues(source).Inc()
		}
		telemetry.CaptureMessage("reconciliation miss", sentry.LevelWarning, map[string]interface{}{
			"checkout_session_ref": cs.ID,
			"source":               source,
		})
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	result := &ConfirmResult{Status: ConfirmStatusOK, OrderID: orderID, Transitioned: rows == 1}
	if !result.Transitioned {
		log.Debug("order already paid", "order_id", orderID)
		return result, nil
	}

	log.Info("order paid", "order_id", orderID)
	if telemetry.Business != nil {
		telemetry.Business.PaymentTransitions.WithLabelValues(source).Inc()
	}
	s.notifier.OrderPaid(ctx, domain.OrderPaid{
		OrderID:        orderID,
		RecipientEmail: recipient,
		Source:         source,
	})
	return result, nil
}

// releaseExpired cancels the pending order whose current checkout session
// expired and returns its reserved stock in the same transaction. Replays
// and expiries of superseded sessions change nothing.
func (s *paymentService) releaseExpired(ctx context.Context, cs *billing.CheckoutSession) error {
	log := s.logger.With("checkout_session_ref", cs.ID)

	var (
		orderID uuid.UUID
		rows    int64
	)
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		var err error
		orderID, err = s.resolveOrder(ctx, q, cs)
		if err != nil {
			return err
		}

		rows, err = q.CancelExpiredOrder(ctx, repository.CancelExpiredOrderParams{
			ID:              repository.UUID(orderID),
			StripeSessionID: repository.Text(cs.ID),
		})
		if err != nil {
			return s.internal(err, "payment.expire", "failed to cancel expired order")
		}
		if rows == 0 {
			return nil
		}

		lines, err := q.ListOrderLines(ctx, repository.UUID(orderID))
		if err != nil {
			return s.internal(err, "payment.expire", "failed to load order lines")
		}
		for _, l := range lines {
			if err := q.RestoreVariantStock(ctx, repository.RestoreVariantStockParams{
				ID:       l.VariantID,
				Quantity: l.Quantity,
			}); err != nil {
				return s.internal(err, "payment.expire", "failed to restore stock")
			}
		}
		return nil
	})
	if errors.Is(err, errReconcileMiss) {
		log.Debug("expired checkout session matches no order")
		return nil
	}
	if err != nil {
		return err
	}

	if rows == 1 {
		log.Info("order cancelled, checkout session expired", "order_id", orderID)
	} else {
		log.Debug("expiry changed nothing", "order_id", orderID)
	}
	return nil
}

// resolveOrder prefers the order_id metadata and falls back to the stored
// checkout reference for sessions created without metadata.
func (s *paymentService) resolveOrder(ctx context.Context, q repository.Querier, cs *billing.CheckoutSession) (uuid.UUID, error) {
	if raw := cs.OrderID(); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			return id, nil
		}
		s.logger.Warn("checkout session has malformed order_id metadata", "checkout_session_ref", cs.ID)
	}

	order, err := q.GetOrderByStripeSessionID(ctx, repository.Text(cs.ID))
	if repository.IsNotFound(err) || (err == nil && !order.ID.Valid) {
		return uuid.Nil, errReconcileMiss
	}
	if err != nil {
		return uuid.Nil, s.internal(err, "payment.resolve", "failed to look up order by checkout session")
	}
	return uuid.UUID(order.ID.Bytes), nil
}

func (s *paymentService) internal(err error, op, msg string) error {
	s.logger.Error(msg, "op", op, "error", err)
	telemetry.CaptureError(err, map[string]interface{}{"op": op})
	return domain.Internal(err, op, msg)
}
