package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:generate mockgen -destination=mock_store.go -package=repository github.com/dukerupert/dynamite/internal/repository Store

// Store is a Querier that can also run a function inside one transaction.
// The Querier passed to fn is bound to the transaction; fn must not use the
// outer Store for writes that should be atomic with it.
type Store interface {
	Querier
	ExecTx(ctx context.Context, fn func(Querier) error) error
}

// SQLStore implements Store over a pgx pool.
type SQLStore struct {
	*Queries
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *SQLStore {
	return &SQLStore{
		Queries: New(pool),
		pool:    pool,
	}
}

// ExecTx commits when fn returns nil and rolls back otherwise.
func (s *SQLStore) ExecTx(ctx context.Context, fn func(Querier) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(s.WithTx(tx)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Ping verifies the pool can reach the database.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const uniqueViolation = "23505"

// Constraint names the service layer distinguishes.
const (
	PendingSessionIndex = "idx_orders_pending_session"
	StripeSessionKey    = "orders_stripe_session_id_key"
	InvoiceNumberKey    = "orders_invoice_number_key"
)

// IsUniqueViolation reports whether err is a Postgres unique constraint
// failure, optionally on a specific constraint or index.
func IsUniqueViolation(err error, constraint ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	if len(constraint) == 0 {
		return true
	}
	for _, c := range constraint {
		if pgErr.ConstraintName == c {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is pgx.ErrNoRows.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// UUID converts a uuid.UUID to its pgtype form.
func UUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// Text returns a NULL pgtype.Text for the empty string.
func Text(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
