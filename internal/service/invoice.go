package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/dynamite/internal/domain"
	"github.com/dukerupert/dynamite/internal/repository"
	"github.com/dukerupert/dynamite/internal/telemetry"
)

// InvoiceService issues gapless yearly invoice numbers.
type InvoiceService interface {
	// NextInvoiceNumber draws the next number for year, formatted
	// PREFIX-YYYY-NNNNNN.
	NextInvoiceNumber(ctx context.Context, year int) (string, error)

	// AssignInvoiceNumber gives a paid order its number, or returns the one
	// it already has.
	AssignInvoiceNumber(ctx context.Context, orderID uuid.UUID) (string, error)
}

// DefaultInvoicePrefix applies when no prefix is configured.
const DefaultInvoicePrefix = "DYN"

// errInvoiceAssigned rolls back a draw when another transaction numbered
// the order first.
var errInvoiceAssigned = errors.New("invoice number already assigned")

type invoiceService struct {
	store  repository.Store
	prefix string
	logger *slog.Logger
}

// NewInvoiceService creates a new InvoiceService instance
func NewInvoiceService(store repository.Store, prefix string, logger *slog.Logger) InvoiceService {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = DefaultInvoicePrefix
	}
	return &invoiceService{
		store:  store,
		prefix: prefix,
		logger: logger.With("service", "invoice"),
	}
}

// FormatInvoiceNumber renders PREFIX-YYYY-NNNNNN.
func FormatInvoiceNumber(prefix string, year int, n int32) string {
	return fmt.Sprintf("%s-%04d-%06d", prefix, year, n)
}

func (s *invoiceService) NextInvoiceNumber(ctx context.Context, year int) (string, error) {
	var number string
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		var err error
		number, err = s.draw(ctx, q, year)
		return err
	})
	if err != nil {
		return "", err
	}
	return number, nil
}

func (s *invoiceService) AssignInvoiceNumber(ctx context.Context, orderID uuid.UUID) (string, error) {
	var number string

	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		order, err := q.GetOrder(ctx, repository.UUID(orderID))
		if repository.IsNotFound(err) {
			return ErrOrderNotFound
		}
		if err != nil {
			return domain.Internal(err, "invoice.assign", "failed to load order")
		}
		if order.InvoiceNumber.Valid {
			number = order.InvoiceNumber.String
			return nil
		}
		if domain.OrderStatus(order.Status) != domain.OrderStatusPaid {
			return ErrOrderNotPaid
		}

		paidAt := time.Now()
		if order.PaidAt.Valid {
			paidAt = order.PaidAt.Time
		}

		drawn, err := s.draw(ctx, q, paidAt.UTC().Year())
		if err != nil {
			return err
		}

		rows, err := q.SetOrderInvoiceNumber(ctx, repository.SetOrderInvoiceNumberParams{
			ID:            repository.UUID(orderID),
			InvoiceNumber: repository.Text(drawn),
		})
		if err != nil {
			return domain.Internal(err, "invoice.assign", "failed to store invoice number")
		}
		if rows == 0 {
			return errInvoiceAssigned
		}
		number = drawn
		return nil
	})

	if errors.Is(err, errInvoiceAssigned) {
		order, err := s.store.GetOrder(ctx, repository.UUID(orderID))
		if err != nil {
			return "", domain.Internal(err, "invoice.assign", "failed to reload order")
		}
		return order.InvoiceNumber.String, nil
	}
	if err != nil {
		return "", err
	}

	s.logger.Info("invoice number assigned", "order_id", orderID, "invoice_number", number)
	if telemetry.Business != nil {
		telemetry.Business.InvoicesIssued.Inc()
	}
	return number, nil
}

// draw upserts the year's counter and increments it. Must run inside a
// transaction; the row lock taken by the increment serializes callers.
func (s *invoiceService) draw(ctx context.Context, q repository.Querier, year int) (string, error) {
	if year < 1 || year > 9999 {
		return "", domain.Invalid("invoice.next", "year out of range")
	}
	if err := q.EnsureInvoiceCounter(ctx, int32(year)); err != nil {
		return "", domain.Internal(err, "invoice.next", "failed to ensure invoice counter")
	}
	n, err := q.IncrementInvoiceCounter(ctx, int32(year))
	if err != nil {
		return "", domain.Internal(err, "invoice.next", "failed to increment invoice counter")
	}
	return FormatInvoiceNumber(s.prefix, year, n), nil
}
