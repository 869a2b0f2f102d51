package repotest

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dukerupert/dynamite/internal/repository"
)

// Variant describes a catalog row to seed. A nil Stock means unlimited.
type Variant struct {
	ProductName   string
	Label         string
	Price         int64
	StripePriceID string
	Stock         *int32
	Inactive      bool
}

// Stock is a helper for Variant.Stock literals.
func Stock(n int32) *int32 {
	return &n
}

// AddVariant seeds an active product with one variant and returns the
// variant id.
func (s *Store) AddVariant(v Variant) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	productID := uuid.New()
	name := v.ProductName
	if name == "" {
		name = "Product"
	}
	s.st.products[productID] = repository.Product{
		ID:        repository.UUID(productID),
		Name:      name,
		Active:    true,
		CreatedAt: s.now(),
	}

	id := uuid.New()
	pv := repository.ProductVariant{
		ID:            repository.UUID(id),
		ProductID:     repository.UUID(productID),
		Label:         v.Label,
		Price:         v.Price,
		StripePriceID: repository.Text(v.StripePriceID),
		Active:        !v.Inactive,
		CreatedAt:     s.now(),
	}
	if v.Stock != nil {
		pv.Stock = pgtype.Int4{Int32: *v.Stock, Valid: true}
	}
	s.st.variants[id] = pv
	return id
}

func (s *Store) SetVariantActive(id uuid.UUID, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.st.variants[id]
	v.Active = active
	s.st.variants[id] = v
}

func (s *Store) SetVariantPrice(id uuid.UUID, price int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.st.variants[id]
	v.Price = price
	s.st.variants[id] = v
}

// SetVariantStripePrice replaces the provider price; "" clears it.
func (s *Store) SetVariantStripePrice(id uuid.UUID, priceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.st.variants[id]
	v.StripePriceID = pgtype.Text{String: priceID, Valid: priceID != ""}
	s.st.variants[id] = v
}

// VariantStock returns the stock counter and whether it is tracked.
func (s *Store) VariantStock(id uuid.UUID) (int32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.st.variants[id]
	return v.Stock.Int32, v.Stock.Valid
}

// Orders returns all orders in insertion order.
func (s *Store) Orders() []repository.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.Order, 0, len(s.st.order))
	for _, id := range s.st.order {
		out = append(out, s.st.orders[id])
	}
	return out
}

func (s *Store) Lines(orderID uuid.UUID) []repository.OrderLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.OrderLine
	for _, l := range s.st.lines {
		if l.OrderID.Bytes == orderID {
			out = append(out, l)
		}
	}
	return out
}

// SeedOrder inserts an order directly, bypassing checkout.
func (s *Store) SeedOrder(o repository.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !o.CreatedAt.Valid {
		o.CreatedAt = s.now()
		o.UpdatedAt = o.CreatedAt
	}
	if o.Status == "" {
		o.Status = "pending"
	}
	s.st.orders[o.ID.Bytes] = o
	s.st.order = append(s.st.order, o.ID.Bytes)
}

func (s *Store) InvoiceCounter(year int32) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.counters[year]
}
