package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dukerupert/dynamite/internal/billing"
	"github.com/dukerupert/dynamite/internal/domain"
	"github.com/dukerupert/dynamite/internal/ledger"
	"github.com/dukerupert/dynamite/internal/repository"
	"github.com/dukerupert/dynamite/internal/session"
	"github.com/dukerupert/dynamite/internal/telemetry"
)

// CheckoutService turns a session cart into a pending order with a hosted
// checkout session.
type CheckoutService interface {
	// CreateOrReuseCheckoutSession returns a redirect URL for the session's
	// cart. Repeated calls within the lock window, and calls while a pending
	// order exists, reuse what the first call created. On success the
	// session's checkout marker is updated and must be persisted.
	CreateOrReuseCheckoutSession(ctx context.Context, sess *session.Session) (*CheckoutResult, error)
}

// Checkout outcomes.
const (
	OutcomeDeduped     = "deduped"
	OutcomeReused      = "reused"
	OutcomeRegenerated = "regenerated"
	OutcomeCreated     = "created"
)

type CheckoutResult struct {
	RedirectURL        string
	OrderID            uuid.UUID
	CheckoutSessionRef string
	Outcome            string
}

// CheckoutConfig configures the checkout broker.
type CheckoutConfig struct {
	// LockWindow is the anti-double-click window.
	LockWindow time.Duration

	// BaseURL is the public storefront origin used for success and cancel
	// URLs.
	BaseURL string

	// App is attached to session metadata.
	App string
}

// DefaultLockWindow applies when CheckoutConfig.LockWindow is zero.
const DefaultLockWindow = 5000 * time.Millisecond

// errPendingOrderExists signals that a concurrent request created the
// session's pending order first.
var errPendingOrderExists = errors.New("pending order already exists for session")

type checkoutService struct {
	store    repository.Store
	provider billing.Provider
	cfg      CheckoutConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewCheckoutService creates a new CheckoutService instance
func NewCheckoutService(store repository.Store, provider billing.Provider, cfg CheckoutConfig, logger *slog.Logger) CheckoutService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LockWindow <= 0 {
		cfg.LockWindow = DefaultLockWindow
	}
	if cfg.App == "" {
		cfg.App = "dynamite"
	}
	return &checkoutService{
		store:    store,
		provider: provider,
		cfg:      cfg,
		logger:   logger.With("service", "checkout"),
		now:      time.Now,
	}
}

func (s *checkoutService) CreateOrReuseCheckoutSession(ctx context.Context, sess *session.Session) (*CheckoutResult, error) {
	if sess == nil || sess.Ref == "" {
		return nil, ErrSessionMissing
	}
	if sess.State.Cart.IsEmpty() {
		return nil, ErrCartEmpty
	}

	now := s.now()
	log := s.logger.With("session_ref_hash", refHash(sess.Ref))

	result, err := s.checkout(ctx, sess, now, log)
	if err != nil {
		countFailure(err)
		return nil, err
	}

	sess.MarkCheckout(result.CheckoutSessionRef, now)
	if telemetry.Business != nil {
		telemetry.Business.CheckoutSessions.WithLabelValues(result.Outcome).Inc()
	}
	log.Info("checkout session issued",
		"outcome", result.Outcome,
		"order_id", result.OrderID,
		"checkout_session_ref", result.CheckoutSessionRef,
	)
	return result, nil
}

func (s *checkoutService) checkout(ctx context.Context, sess *session.Session, now time.Time, log *slog.Logger) (*CheckoutResult, error) {
	if sess.InCheckoutLock(now, s.cfg.LockWindow) {
		ref := sess.State.LastCheckoutSessionRef
		cs, err := s.provider.GetCheckoutSession(ctx, ref)
		if err == nil && cs.URL != "" {
			return &CheckoutResult{
				RedirectURL:        cs.URL,
				OrderID:            parseOrderID(cs.OrderID()),
				CheckoutSessionRef: cs.ID,
				Outcome:            OutcomeDeduped,
			}, nil
		}
		log.Debug("locked checkout session not reusable", "checkout_session_ref", ref, "error", err)
	}

	// A request that loses the race on the pending-order index re-enters
	// the reuse path once.
	for attempt := 0; attempt < 2; attempt++ {
		result, err := s.reusePending(ctx, sess, now, log)
		if err != nil || result != nil {
			return result, err
		}

		result, err = s.createFresh(ctx, sess)
		if errors.Is(err, errPendingOrderExists) {
			log.Info("concurrent checkout created the pending order, reusing it")
			continue
		}
		return result, err
	}
	return nil, ErrStripeSessionFailed
}

// reusePending returns nil, nil when the session has no pending order.
func (s *checkoutService) reusePending(ctx context.Context, sess *session.Session, now time.Time, log *slog.Logger) (*CheckoutResult, error) {
	order, err := s.store.GetLatestPendingOrderForSession(ctx, sess.Ref)
	if repository.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, s.internal(err, "checkout.reuse", "failed to load pending order")
	}
	orderID := uuid.UUID(order.ID.Bytes)

	if order.StripeSessionID.Valid {
		cs, err := s.provider.GetCheckoutSession(ctx, order.StripeSessionID.String)
		switch {
		case err == nil && cs.IsPaid():
			// Paid but not reconciled yet. Send the buyer to the success page,
			// which confirms the payment, instead of charging twice.
			return &CheckoutResult{
				RedirectURL:        s.successURL(cs.ID),
				OrderID:            orderID,
				CheckoutSessionRef: cs.ID,
				Outcome:            OutcomeReused,
			}, nil
		case err == nil && cs.URL != "":
			return &CheckoutResult{
				RedirectURL:        cs.URL,
				OrderID:            orderID,
				CheckoutSessionRef: cs.ID,
				Outcome:            OutcomeReused,
			}, nil
		case err != nil && !errors.Is(err, billing.ErrCheckoutSessionNotFound):
			log.Error("failed to retrieve checkout session", "order_id", orderID, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrStripeSessionFailed, err)
		}
	}

	log.Info("checkout session stale, regenerating from order lines", "order_id", orderID)
	return s.regenerate(ctx, orderID, now)
}

func (s *checkoutService) regenerate(ctx context.Context, orderID uuid.UUID, now time.Time) (*CheckoutResult, error) {
	var cs *billing.CheckoutSession

	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		lines, err := q.ListOrderLinesForCheckout(ctx, repository.UUID(orderID))
		if err != nil {
			return s.internal(err, "checkout.regenerate", "failed to load order lines")
		}
		if len(lines) == 0 {
			return ErrCartEmpty
		}

		items := make([]billing.CheckoutLineItem, 0, len(lines))
		for _, l := range lines {
			if !l.StripePriceID.Valid || l.StripePriceID.String == "" {
				return ErrCheckoutProductMisconfig
			}
			items = append(items, billing.CheckoutLineItem{PriceID: l.StripePriceID.String, Quantity: int64(l.Quantity)})
		}

		cs, err = s.createProviderSession(ctx, orderID, items, fmt.Sprintf("checkout-%s-%d", orderID, now.UnixMilli()))
		if err != nil {
			return err
		}

		if err := q.AttachCheckoutSession(ctx, repository.AttachCheckoutSessionParams{
			ID:              repository.UUID(orderID),
			StripeSessionID: repository.Text(cs.ID),
		}); err != nil {
			return s.internal(err, "checkout.regenerate", "failed to attach checkout session")
		}
		return nil
	})
	if errors.Is(err, ErrCheckoutProductMisconfig) {
		// The pending order holds the session's pending slot, so every
		// checkout fails the same way until the order is cancelled.
		s.logger.Error("pending order cannot be regenerated, checkout blocked for session",
			"order_id", orderID,
			"reason", domain.ErrorReason(err),
		)
		telemetry.CaptureMessage("pending order stuck on catalog misconfiguration", sentry.LevelError, map[string]interface{}{
			"order_id": orderID.String(),
		})
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	return &CheckoutResult{
		RedirectURL:        cs.URL,
		OrderID:            orderID,
		CheckoutSessionRef: cs.ID,
		Outcome:            OutcomeRegenerated,
	}, nil
}

type cartLine struct {
	variantID uuid.UUID
	quantity  int64
}

// aggregate merges duplicate variants and sorts by id, which is the order
// rows are locked in.
func aggregate(cart domain.Cart) ([]cartLine, error) {
	byVariant := make(map[uuid.UUID]int64, len(cart.Items))
	for _, item := range cart.Items {
		if item.VariantID == uuid.Nil {
			return nil, ErrVariantMissing
		}
		if item.Quantity < 1 || item.Quantity > domain.MaxItemQuantity {
			return nil, ErrInvalidQuantity
		}
		byVariant[item.VariantID] += int64(item.Quantity)
	}

	lines := make([]cartLine, 0, len(byVariant))
	for id, qty := range byVariant {
		lines = append(lines, cartLine{variantID: id, quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool {
		return bytes.Compare(lines[i].variantID[:], lines[j].variantID[:]) < 0
	})
	return lines, nil
}

func (s *checkoutService) createFresh(ctx context.Context, sess *session.Session) (*CheckoutResult, error) {
	lines, err := aggregate(sess.State.Cart)
	if err != nil {
		return nil, err
	}

	orderID := uuid.New()
	var cs *billing.CheckoutSession

	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		ids := make([]pgtype.UUID, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, repository.UUID(l.variantID))
		}

		locked, err := q.LockVariantsForCheckout(ctx, ids)
		if err != nil {
			return s.internal(err, "checkout.lock", "failed to lock variants")
		}
		if len(locked) != len(lines) {
			return ErrVariantMismatch
		}

		byID := make(map[uuid.UUID]repository.LockVariantsForCheckoutRow, len(locked))
		for _, row := range locked {
			byID[uuid.UUID(row.ID.Bytes)] = row
		}

		lineTotals := make([]int64, 0, len(lines))
		params := make([]repository.CreateOrderLineParams, 0, len(lines))
		items := make([]billing.CheckoutLineItem, 0, len(lines))
		for _, l := range lines {
			row, ok := byID[l.variantID]
			if !ok {
				return ErrVariantMismatch
			}
			if !row.StripePriceID.Valid || row.StripePriceID.String == "" {
				return ErrCheckoutProductMisconfig
			}
			if row.Stock.Valid && int64(row.Stock.Int32) < l.quantity {
				return ErrInsufficientStock
			}

			unit, err := ledger.Assert(row.Price, "price")
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
			}
			lineTotal, err := ledger.LineTotal(unit, l.quantity)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
			}
			lineTotals = append(lineTotals, lineTotal)

			params = append(params, repository.CreateOrderLineParams{
				OrderID:      repository.UUID(orderID),
				ProductID:    row.ProductID,
				VariantID:    row.ID,
				ProductName:  row.ProductName,
				VariantLabel: row.Label,
				Quantity:     int32(l.quantity),
				UnitPrice:    unit,
				LineTotal:    lineTotal,
			})
			items = append(items, billing.CheckoutLineItem{PriceID: row.StripePriceID.String, Quantity: l.quantity})
		}

		total, err := ledger.Sum(lineTotals)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}

		if _, err := q.CreateOrder(ctx, repository.CreateOrderParams{
			ID:         repository.UUID(orderID),
			SessionRef: sess.Ref,
			Total:      total,
		}); err != nil {
			if repository.IsUniqueViolation(err, repository.PendingSessionIndex) {
				return errPendingOrderExists
			}
			return s.internal(err, "checkout.create", "failed to create order")
		}

		for i, p := range params {
			if err := q.CreateOrderLine(ctx, p); err != nil {
				return s.internal(err, "checkout.create", "failed to create order line")
			}

			if !byID[lines[i].variantID].Stock.Valid {
				continue
			}
			n, err := q.DecrementVariantStock(ctx, repository.DecrementVariantStockParams{
				ID:       p.VariantID,
				Quantity: p.Quantity,
			})
			if err != nil {
				return s.internal(err, "checkout.create", "failed to decrement stock")
			}
			if n == 0 {
				return ErrInsufficientStock
			}
		}

		cs, err = s.createProviderSession(ctx, orderID, items, "checkout-"+orderID.String())
		if err != nil {
			return err
		}

		if err := q.AttachCheckoutSession(ctx, repository.AttachCheckoutSessionParams{
			ID:              repository.UUID(orderID),
			StripeSessionID: repository.Text(cs.ID),
		}); err != nil {
			return s.internal(err, "checkout.create", "failed to attach checkout session")
		}

		if telemetry.Business != nil {
			telemetry.Business.OrderValue.Observe(float64(total))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutResult{
		RedirectURL:        cs.URL,
		OrderID:            orderID,
		CheckoutSessionRef: cs.ID,
		Outcome:            OutcomeCreated,
	}, nil
}

func (s *checkoutService) createProviderSession(ctx context.Context, orderID uuid.UUID, items []billing.CheckoutLineItem, idempotencyKey string) (*billing.CheckoutSession, error) {
	cs, err := s.provider.CreateCheckoutSession(ctx, billing.CreateCheckoutSessionParams{
		LineItems:  items,
		SuccessURL: s.successURL("{CHECKOUT_SESSION_ID}"),
		CancelURL:  s.cfg.BaseURL + "/cart.html",
		Metadata: map[string]string{
			billing.MetadataOrderID: orderID.String(),
			billing.MetadataApp:     s.cfg.App,
		},
		IdempotencyKey: idempotencyKey,
	})
	if errors.Is(err, billing.ErrRecurringPriceInPaymentMode) {
		s.logger.Error("catalog price is recurring, checkout rejected", "order_id", orderID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCheckoutProductMisconfig, err)
	}
	if err != nil {
		s.logger.Error("failed to create checkout session", "order_id", orderID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStripeSessionFailed, err)
	}
	if cs == nil || cs.ID == "" || cs.URL == "" {
		return nil, fmt.Errorf("%w: provider returned no session url", ErrStripeSessionFailed)
	}
	return cs, nil
}

func (s *checkoutService) successURL(sessionRef string) string {
	return s.cfg.BaseURL + "/success.html?session_id=" + sessionRef
}

func (s *checkoutService) internal(err error, op, msg string) error {
	s.logger.Error(msg, "op", op, "error", err)
	telemetry.CaptureError(err, map[string]interface{}{"op": op})
	return domain.Internal(err, op, msg)
}

// refHash identifies a session in logs without writing the cookie value.
func refHash(ref string) string {
	sum := sha256.Sum256([]byte(ref))
	return hex.EncodeToString(sum[:6])
}

func parseOrderID(raw string) uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func countFailure(err error) {
	if telemetry.Business == nil {
		return
	}
	reason := domain.ErrorReason(err)
	if reason == "" {
		reason = domain.ErrorCode(err)
	}
	telemetry.Business.CheckoutFailures.WithLabelValues(reason).Inc()
}
