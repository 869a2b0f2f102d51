package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dukerupert/dynamite/internal/domain"
	"github.com/dukerupert/dynamite/internal/repository"
)

// OrderService reads orders for the storefront.
type OrderService interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)

	// GetOrderByCheckoutSession looks an order up by its hosted checkout
	// reference, as the success page does.
	GetOrderByCheckoutSession(ctx context.Context, checkoutSessionRef string) (*domain.Order, error)
}

type orderService struct {
	repo   repository.Querier
	logger *slog.Logger
}

// NewOrderService creates a new OrderService instance
func NewOrderService(repo repository.Querier, logger *slog.Logger) OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &orderService{repo: repo, logger: logger.With("service", "order")}
}

func (s *orderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, repository.UUID(orderID))
	if repository.IsNotFound(err) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, "order.get", "failed to load order")
	}
	return s.withLines(ctx, order)
}

func (s *orderService) GetOrderByCheckoutSession(ctx context.Context, checkoutSessionRef string) (*domain.Order, error) {
	if checkoutSessionRef == "" {
		return nil, ErrSessionRefRequired
	}
	order, err := s.repo.GetOrderByStripeSessionID(ctx, repository.Text(checkoutSessionRef))
	if repository.IsNotFound(err) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, "order.by_session", "failed to load order")
	}
	return s.withLines(ctx, order)
}

func (s *orderService) withLines(ctx context.Context, order repository.Order) (*domain.Order, error) {
	lines, err := s.repo.ListOrderLines(ctx, order.ID)
	if err != nil {
		s.logger.Error("failed to load order lines", "order_id", uuid.UUID(order.ID.Bytes), "error", err)
		return nil, domain.Internal(err, "order.lines", "failed to load order lines")
	}
	return toDomainOrder(order, lines), nil
}
