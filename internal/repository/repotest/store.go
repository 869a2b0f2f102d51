// Package repotest provides an in-memory repository.Store for tests.
//
// Transactions are serialized by a single mutex and roll back by restoring
// a snapshot, which gives the same observable guarantees the service layer
// relies on from Postgres: FOR UPDATE serialization, the pending-order
// unique index and atomic conditional updates.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dukerupert/dynamite/internal/repository"
)

const (
	pendingSessionIndex = repository.PendingSessionIndex
	stripeSessionKey    = repository.StripeSessionKey
	invoiceNumberKey    = repository.InvoiceNumberKey
)

type state struct {
	products map[uuid.UUID]repository.Product
	variants map[uuid.UUID]repository.ProductVariant
	orders   map[uuid.UUID]repository.Order
	order    []uuid.UUID
	lines    []repository.OrderLine
	counters map[int32]int32
	sessions map[string]repository.Session
	lineSeq  int64
}

func newState() *state {
	return &state{
		products: map[uuid.UUID]repository.Product{},
		variants: map[uuid.UUID]repository.ProductVariant{},
		orders:   map[uuid.UUID]repository.Order{},
		counters: map[int32]int32{},
		sessions: map[string]repository.Session{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.variants {
		c.variants[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	c.order = append([]uuid.UUID(nil), s.order...)
	c.lines = append([]repository.OrderLine(nil), s.lines...)
	for k, v := range s.counters {
		c.counters[k] = v
	}
	for k, v := range s.sessions {
		v.Data = append([]byte(nil), v.Data...)
		c.sessions[k] = v
	}
	c.lineSeq = s.lineSeq
	return c
}

// Store is safe for concurrent use.
type Store struct {
	mu  sync.Mutex
	st  *state
	Now func() time.Time

	// FailCommit, when set, makes the next ExecTx roll back with this error
	// after fn succeeded.
	FailCommit error
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState(), Now: time.Now}
}

func (s *Store) now() pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: s.Now(), Valid: true}
}

// ExecTx runs fn against a snapshot and keeps its writes only if fn and the
// simulated commit succeed.
func (s *Store) ExecTx(ctx context.Context, fn func(repository.Querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&txQuerier{s: s}); err != nil {
		s.st = snapshot
		return err
	}
	if s.FailCommit != nil {
		err := s.FailCommit
		s.FailCommit = nil
		s.st = snapshot
		return err
	}
	return nil
}

// locked runs f under the store mutex for non-transactional calls.
func locked[T any](s *Store, f func(q *txQuerier) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f(&txQuerier{s: s})
}

func lockedErr(s *Store, f func(q *txQuerier) error) error {
	_, err := locked(s, func(q *txQuerier) (struct{}, error) { return struct{}{}, f(q) })
	return err
}

func (s *Store) AttachCheckoutSession(ctx context.Context, arg repository.AttachCheckoutSessionParams) error {
	return lockedErr(s, func(q *txQuerier) error { return q.AttachCheckoutSession(ctx, arg) })
}

func (s *Store) CreateOrder(ctx context.Context, arg repository.CreateOrderParams) (repository.Order, error) {
	return locked(s, func(q *txQuerier) (repository.Order, error) { return q.CreateOrder(ctx, arg) })
}

func (s *Store) CreateOrderLine(ctx context.Context, arg repository.CreateOrderLineParams) error {
	return lockedErr(s, func(q *txQuerier) error { return q.CreateOrderLine(ctx, arg) })
}

func (s *Store) CancelExpiredOrder(ctx context.Context, arg repository.CancelExpiredOrderParams) (int64, error) {
	return locked(s, func(q *txQuerier) (int64, error) { return q.CancelExpiredOrder(ctx, arg) })
}

func (s *Store) DecrementVariantStock(ctx context.Context, arg repository.DecrementVariantStockParams) (int64, error) {
	return locked(s, func(q *txQuerier) (int64, error) { return q.DecrementVariantStock(ctx, arg) })
}

func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	return locked(s, func(q *txQuerier) (int64, error) { return q.DeleteExpiredSessions(ctx) })
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	return lockedErr(s, func(q *txQuerier) error { return q.DeleteSession(ctx, token) })
}

func (s *Store) EnsureInvoiceCounter(ctx context.Context, year int32) error {
	return lockedErr(s, func(q *txQuerier) error { return q.EnsureInvoiceCounter(ctx, year) })
}

func (s *Store) GetActiveVariant(ctx context.Context, id pgtype.UUID) (repository.GetActiveVariantRow, error) {
	return locked(s, func(q *txQuerier) (repository.GetActiveVariantRow, error) {
		return q.GetActiveVariant(ctx, id)
	})
}

func (s *Store) GetLatestPendingOrderForSession(ctx context.Context, sessionRef string) (repository.Order, error) {
	return locked(s, func(q *txQuerier) (repository.Order, error) {
		return q.GetLatestPendingOrderForSession(ctx, sessionRef)
	})
}

func (s *Store) GetOrder(ctx context.Context, id pgtype.UUID) (repository.Order, error) {
	return locked(s, func(q *txQuerier) (repository.Order, error) { return q.GetOrder(ctx, id) })
}

func (s *Store) GetOrderByStripeSessionID(ctx context.Context, ref pgtype.Text) (repository.Order, error) {
	return locked(s, func(q *txQuerier) (repository.Order, error) {
		return q.GetOrderByStripeSessionID(ctx, ref)
	})
}

func (s *Store) GetSessionByToken(ctx context.Context, token string) (repository.Session, error) {
	return locked(s, func(q *txQuerier) (repository.Session, error) {
		return q.GetSessionByToken(ctx, token)
	})
}

func (s *Store) IncrementInvoiceCounter(ctx context.Context, year int32) (int32, error) {
	return locked(s, func(q *txQuerier) (int32, error) { return q.IncrementInvoiceCounter(ctx, year) })
}

func (s *Store) ListOrderLines(ctx context.Context, orderID pgtype.UUID) ([]repository.OrderLine, error) {
	return locked(s, func(q *txQuerier) ([]repository.OrderLine, error) {
		return q.ListOrderLines(ctx, orderID)
	})
}

func (s *Store) ListOrderLinesForCheckout(ctx context.Context, orderID pgtype.UUID) ([]repository.ListOrderLinesForCheckoutRow, error) {
	return locked(s, func(q *txQuerier) ([]repository.ListOrderLinesForCheckoutRow, error) {
		return q.ListOrderLinesForCheckout(ctx, orderID)
	})
}

func (s *Store) LockVariantsForCheckout(ctx context.Context, ids []pgtype.UUID) ([]repository.LockVariantsForCheckoutRow, error) {
	return locked(s, func(q *txQuerier) ([]repository.LockVariantsForCheckoutRow, error) {
		return q.LockVariantsForCheckout(ctx, ids)
	})
}

func (s *Store) MarkOrderPaid(ctx context.Context, arg repository.MarkOrderPaidParams) (int64, error) {
	return locked(s, func(q *txQuerier) (int64, error) { return q.MarkOrderPaid(ctx, arg) })
}

func (s *Store) RestoreVariantStock(ctx context.Context, arg repository.RestoreVariantStockParams) error {
	return lockedErr(s, func(q *txQuerier) error { return q.RestoreVariantStock(ctx, arg) })
}

func (s *Store) SetOrderInvoiceNumber(ctx context.Context, arg repository.SetOrderInvoiceNumberParams) (int64, error) {
	return locked(s, func(q *txQuerier) (int64, error) { return q.SetOrderInvoiceNumber(ctx, arg) })
}

func (s *Store) UpsertSession(ctx context.Context, arg repository.UpsertSessionParams) error {
	return lockedErr(s, func(q *txQuerier) error { return q.UpsertSession(ctx, arg) })
}

// txQuerier operates on the store state without locking; callers hold s.mu.
type txQuerier struct {
	s *Store
}

var _ repository.Querier = (*txQuerier)(nil)

func uniqueErr(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

func (q *txQuerier) AttachCheckoutSession(ctx context.Context, arg repository.AttachCheckoutSessionParams) error {
	st := q.s.st
	o, ok := st.orders[arg.ID.Bytes]
	if !ok {
		return nil
	}
	if arg.StripeSessionID.Valid {
		for id, other := range st.orders {
			if id != o.ID.Bytes && other.StripeSessionID == arg.StripeSessionID {
				return uniqueErr(stripeSessionKey)
			}
		}
	}
	o.StripeSessionID = arg.StripeSessionID
	o.UpdatedAt = q.s.now()
	st.orders[o.ID.Bytes] = o
	return nil
}

func (q *txQuerier) CreateOrder(ctx context.Context, arg repository.CreateOrderParams) (repository.Order, error) {
	st := q.s.st
	if _, exists := st.orders[arg.ID.Bytes]; exists {
		return repository.Order{}, uniqueErr("orders_pkey")
	}
	for _, o := range st.orders {
		if o.SessionRef == arg.SessionRef && o.Status == "pending" {
			return repository.Order{}, uniqueErr(pendingSessionIndex)
		}
	}
	now := q.s.now()
	o := repository.Order{
		ID:         arg.ID,
		SessionRef: arg.SessionRef,
		Status:     "pending",
		Total:      arg.Total,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	st.orders[arg.ID.Bytes] = o
	st.order = append(st.order, arg.ID.Bytes)
	return o, nil
}

func (q *txQuerier) CreateOrderLine(ctx context.Context, arg repository.CreateOrderLineParams) error {
	st := q.s.st
	if _, ok := st.orders[arg.OrderID.Bytes]; !ok {
		return &pgconn.PgError{Code: "23503", ConstraintName: "order_lines_order_id_fkey"}
	}
	if arg.Quantity <= 0 {
		return &pgconn.PgError{Code: "23514", ConstraintName: "order_lines_quantity_check"}
	}
	st.lineSeq++
	st.lines = append(st.lines, repository.OrderLine{
		ID:           st.lineSeq,
		OrderID:      arg.OrderID,
		ProductID:    arg.ProductID,
		VariantID:    arg.VariantID,
		ProductName:  arg.ProductName,
		VariantLabel: arg.VariantLabel,
		Quantity:     arg.Quantity,
		UnitPrice:    arg.UnitPrice,
		LineTotal:    arg.LineTotal,
	})
	return nil
}

func (q *txQuerier) CancelExpiredOrder(ctx context.Context, arg repository.CancelExpiredOrderParams) (int64, error) {
	o, ok := q.s.st.orders[arg.ID.Bytes]
	if !ok || o.Status != "pending" || !o.StripeSessionID.Valid || o.StripeSessionID != arg.StripeSessionID {
		return 0, nil
	}
	o.Status = "cancelled"
	o.UpdatedAt = q.s.now()
	q.s.st.orders[o.ID.Bytes] = o
	return 1, nil
}

func (q *txQuerier) DecrementVariantStock(ctx context.Context, arg repository.DecrementVariantStockParams) (int64, error) {
	v, ok := q.s.st.variants[arg.ID.Bytes]
	if !ok || !v.Stock.Valid || v.Stock.Int32 < arg.Quantity {
		return 0, nil
	}
	v.Stock.Int32 -= arg.Quantity
	q.s.st.variants[arg.ID.Bytes] = v
	return 1, nil
}

func (q *txQuerier) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	now := q.s.Now()
	var n int64
	for token, sess := range q.s.st.sessions {
		if !sess.ExpiresAt.Time.After(now) {
			delete(q.s.st.sessions, token)
			n++
		}
	}
	return n, nil
}

func (q *txQuerier) DeleteSession(ctx context.Context, token string) error {
	delete(q.s.st.sessions, token)
	return nil
}

func (q *txQuerier) EnsureInvoiceCounter(ctx context.Context, year int32) error {
	if _, ok := q.s.st.counters[year]; !ok {
		q.s.st.counters[year] = 0
	}
	return nil
}

func (q *txQuerier) activeVariant(id uuid.UUID) (repository.ProductVariant, repository.Product, bool) {
	v, ok := q.s.st.variants[id]
	if !ok || !v.Active {
		return v, repository.Product{}, false
	}
	p, ok := q.s.st.products[v.ProductID.Bytes]
	if !ok || !p.Active {
		return v, p, false
	}
	return v, p, true
}

func (q *txQuerier) GetActiveVariant(ctx context.Context, id pgtype.UUID) (repository.GetActiveVariantRow, error) {
	v, p, ok := q.activeVariant(id.Bytes)
	if !ok {
		return repository.GetActiveVariantRow{}, pgx.ErrNoRows
	}
	return repository.GetActiveVariantRow{
		ID:            v.ID,
		ProductID:     v.ProductID,
		ProductName:   p.Name,
		Label:         v.Label,
		Price:         v.Price,
		StripePriceID: v.StripePriceID,
		Stock:         v.Stock,
	}, nil
}

func (q *txQuerier) GetLatestPendingOrderForSession(ctx context.Context, sessionRef string) (repository.Order, error) {
	st := q.s.st
	for i := len(st.order) - 1; i >= 0; i-- {
		o := st.orders[st.order[i]]
		if o.SessionRef == sessionRef && o.Status == "pending" {
			return o, nil
		}
	}
	return repository.Order{}, pgx.ErrNoRows
}

func (q *txQuerier) GetOrder(ctx context.Context, id pgtype.UUID) (repository.Order, error) {
	o, ok := q.s.st.orders[id.Bytes]
	if !ok {
		return repository.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (q *txQuerier) GetOrderByStripeSessionID(ctx context.Context, ref pgtype.Text) (repository.Order, error) {
	if !ref.Valid {
		return repository.Order{}, pgx.ErrNoRows
	}
	for _, o := range q.s.st.orders {
		if o.StripeSessionID == ref {
			return o, nil
		}
	}
	return repository.Order{}, pgx.ErrNoRows
}

func (q *txQuerier) GetSessionByToken(ctx context.Context, token string) (repository.Session, error) {
	sess, ok := q.s.st.sessions[token]
	if !ok || !sess.ExpiresAt.Time.After(q.s.Now()) {
		return repository.Session{}, pgx.ErrNoRows
	}
	sess.Data = append([]byte(nil), sess.Data...)
	return sess, nil
}

func (q *txQuerier) IncrementInvoiceCounter(ctx context.Context, year int32) (int32, error) {
	c, ok := q.s.st.counters[year]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	c++
	q.s.st.counters[year] = c
	return c, nil
}

func (q *txQuerier) ListOrderLines(ctx context.Context, orderID pgtype.UUID) ([]repository.OrderLine, error) {
	lines := []repository.OrderLine{}
	for _, l := range q.s.st.lines {
		if l.OrderID == orderID {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

func (q *txQuerier) ListOrderLinesForCheckout(ctx context.Context, orderID pgtype.UUID) ([]repository.ListOrderLinesForCheckoutRow, error) {
	rows := []repository.ListOrderLinesForCheckoutRow{}
	for _, l := range q.s.st.lines {
		if l.OrderID != orderID {
			continue
		}
		row := repository.ListOrderLinesForCheckoutRow{VariantID: l.VariantID, Quantity: l.Quantity}
		if v, ok := q.s.st.variants[l.VariantID.Bytes]; ok {
			row.StripePriceID = v.StripePriceID
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (q *txQuerier) LockVariantsForCheckout(ctx context.Context, ids []pgtype.UUID) ([]repository.LockVariantsForCheckoutRow, error) {
	seen := map[uuid.UUID]bool{}
	rows := []repository.LockVariantsForCheckoutRow{}
	for _, id := range ids {
		if seen[id.Bytes] {
			continue
		}
		seen[id.Bytes] = true
		v, p, ok := q.activeVariant(id.Bytes)
		if !ok {
			continue
		}
		rows = append(rows, repository.LockVariantsForCheckoutRow{
			ID:            v.ID,
			ProductID:     v.ProductID,
			ProductName:   p.Name,
			Label:         v.Label,
			Price:         v.Price,
			StripePriceID: v.StripePriceID,
			Stock:         v.Stock,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return uuid.UUID(rows[i].ID.Bytes).String() < uuid.UUID(rows[j].ID.Bytes).String()
	})
	return rows, nil
}

func coalesce(current, next pgtype.Text) pgtype.Text {
	if current.Valid {
		return current
	}
	return next
}

func (q *txQuerier) MarkOrderPaid(ctx context.Context, arg repository.MarkOrderPaidParams) (int64, error) {
	st := q.s.st
	o, ok := st.orders[arg.ID.Bytes]
	if !ok || o.Status == "paid" {
		return 0, nil
	}
	sessionRef := coalesce(o.StripeSessionID, arg.StripeSessionID)
	if sessionRef.Valid && sessionRef != o.StripeSessionID {
		for id, other := range st.orders {
			if id != o.ID.Bytes && other.StripeSessionID == sessionRef {
				return 0, uniqueErr(stripeSessionKey)
			}
		}
	}
	now := q.s.now()
	o.Status = "paid"
	o.StripePaymentIntentID = coalesce(o.StripePaymentIntentID, arg.PaymentIntentID)
	o.StripeSessionID = sessionRef
	o.CustomerEmail = coalesce(o.CustomerEmail, arg.CustomerEmail)
	o.PaidAt = now
	o.UpdatedAt = now
	st.orders[o.ID.Bytes] = o
	return 1, nil
}

func (q *txQuerier) RestoreVariantStock(ctx context.Context, arg repository.RestoreVariantStockParams) error {
	v, ok := q.s.st.variants[arg.ID.Bytes]
	if !ok || !v.Stock.Valid {
		return nil
	}
	v.Stock.Int32 += arg.Quantity
	q.s.st.variants[arg.ID.Bytes] = v
	return nil
}

func (q *txQuerier) SetOrderInvoiceNumber(ctx context.Context, arg repository.SetOrderInvoiceNumberParams) (int64, error) {
	st := q.s.st
	o, ok := st.orders[arg.ID.Bytes]
	if !ok || o.InvoiceNumber.Valid {
		return 0, nil
	}
	for id, other := range st.orders {
		if id != o.ID.Bytes && other.InvoiceNumber == arg.InvoiceNumber {
			return 0, uniqueErr(invoiceNumberKey)
		}
	}
	o.InvoiceNumber = arg.InvoiceNumber
	o.UpdatedAt = q.s.now()
	st.orders[o.ID.Bytes] = o
	return 1, nil
}

func (q *txQuerier) UpsertSession(ctx context.Context, arg repository.UpsertSessionParams) error {
	q.s.st.sessions[arg.Token] = repository.Session{
		Token:     arg.Token,
		Data:      append([]byte(nil), arg.Data...),
		ExpiresAt: arg.ExpiresAt,
		UpdatedAt: q.s.now(),
	}
	return nil
}
