package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dukerupert/dynamite/internal/domain"
	"github.com/dukerupert/dynamite/internal/repository"
	"github.com/dukerupert/dynamite/internal/session"
	"github.com/dukerupert/dynamite/internal/telemetry"
)

// CartService mutates the cart held in session state. Callers persist the
// session after a successful call.
type CartService interface {
	Get(sess *session.Session) (*CartView, error)
	Add(ctx context.Context, sess *session.Session, variantID uuid.UUID, quantity int) (*CartView, error)
	Update(ctx context.Context, sess *session.Session, variantID uuid.UUID, quantity int) (*CartView, error)
	Remove(sess *session.Session, variantID uuid.UUID) (*CartView, error)
	Clear(sess *session.Session) *CartView
}

// CartView is the cart as rendered to the storefront. Total is display
// only; checkout recomputes it from locked prices.
type CartView struct {
	Items     []domain.CartItem `json:"items"`
	Total     int64             `json:"total"`
	ItemCount int               `json:"item_count"`
}

type cartService struct {
	repo   repository.Querier
	logger *slog.Logger
}

// NewCartService creates a new CartService instance
func NewCartService(repo repository.Querier, logger *slog.Logger) CartService {
	if logger == nil {
		logger = slog.Default()
	}
	return &cartService{
		repo:   repo,
		logger: logger.With("service", "cart"),
	}
}

func (s *cartService) Get(sess *session.Session) (*CartView, error) {
	if sess == nil {
		return nil, ErrSessionMissing
	}
	return view(&sess.State.Cart)
}

// Add snapshots the variant into the cart, or increments an existing line.
// Quantity 0 means 1.
func (s *cartService) Add(ctx context.Context, sess *session.Session, variantID uuid.UUID, quantity int) (*CartView, error) {
	if sess == nil {
		return nil, ErrSessionMissing
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 || quantity > domain.MaxItemQuantity {
		return nil, ErrInvalidQuantity
	}

	variant, err := s.activeVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}

	cart := &sess.State.Cart
	next := quantity
	if i := cart.Index(variantID); i >= 0 {
		next = cart.Items[i].Quantity + quantity
	}
	if next > domain.MaxItemQuantity {
		next = domain.MaxItemQuantity
	}
	if variant.Stock.Valid && int64(next) > int64(variant.Stock.Int32) {
		return nil, ErrInsufficientStock
	}

	item := snapshot(variant, next)
	if i := cart.Index(variantID); i >= 0 {
		cart.Items[i] = item
	} else {
		cart.Items = append(cart.Items, item)
	}

	countMutation("add")
	return view(cart)
}

// Update sets a line quantity. Quantity 0 removes the line.
func (s *cartService) Update(ctx context.Context, sess *session.Session, variantID uuid.UUID, quantity int) (*CartView, error) {
	if sess == nil {
		return nil, ErrSessionMissing
	}
	cart := &sess.State.Cart
	i := cart.Index(variantID)
	if i < 0 {
		return nil, ErrCartItemNotFound
	}
	if quantity == 0 {
		cart.Remove(variantID)
		countMutation("remove")
		return view(cart)
	}
	if quantity < 0 || quantity > domain.MaxItemQuantity {
		return nil, ErrInvalidQuantity
	}

	variant, err := s.activeVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if variant.Stock.Valid && int64(quantity) > int64(variant.Stock.Int32) {
		return nil, ErrInsufficientStock
	}

	cart.Items[i] = snapshot(variant, quantity)
	countMutation("update")
	return view(cart)
}

func (s *cartService) Remove(sess *session.Session, variantID uuid.UUID) (*CartView, error) {
	if sess == nil {
		return nil, ErrSessionMissing
	}
	if !sess.State.Cart.Remove(variantID) {
		return nil, ErrCartItemNotFound
	}
	countMutation("remove")
	return view(&sess.State.Cart)
}

func (s *cartService) Clear(sess *session.Session) *CartView {
	if sess != nil {
		sess.State.Cart = domain.Cart{}
	}
	countMutation("clear")
	return &CartView{Items: []domain.CartItem{}}
}

func (s *cartService) activeVariant(ctx context.Context, variantID uuid.UUID) (repository.GetActiveVariantRow, error) {
	if variantID == uuid.Nil {
		return repository.GetActiveVariantRow{}, ErrVariantMissing
	}
	variant, err := s.repo.GetActiveVariant(ctx, repository.UUID(variantID))
	if repository.IsNotFound(err) {
		return variant, ErrVariantNotFound
	}
	if err != nil {
		s.logger.Error("failed to load variant", "variant_id", variantID, "error", err)
		return variant, domain.Internal(err, "cart.variant", "failed to load variant")
	}
	return variant, nil
}

func snapshot(v repository.GetActiveVariantRow, quantity int) domain.CartItem {
	return domain.CartItem{
		VariantID:     uuid.UUID(v.ID.Bytes),
		ProductID:     uuid.UUID(v.ProductID.Bytes),
		Name:          v.ProductName,
		VariantLabel:  v.Label,
		UnitPrice:     v.Price,
		StripePriceID: v.StripePriceID.String,
		Quantity:      quantity,
	}
}

func view(cart *domain.Cart) (*CartView, error) {
	total, err := cart.Total()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	items := cart.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return &CartView{
		Items:     items,
		Total:     total,
		ItemCount: cart.ItemCount(),
	}, nil
}

func countMutation(op string) {
	if telemetry.Business != nil {
		telemetry.Business.CartMutations.WithLabelValues(op).Inc()
	}
}
