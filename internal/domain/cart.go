package domain

import (
	"github.com/google/uuid"

	"github.com/dukerupert/dynamite/internal/ledger"
)

// MaxItemQuantity bounds the quantity of a single cart line.
const MaxItemQuantity = 99

// CartItem is a display snapshot of a variant taken when it was added.
// Checkout never trusts these prices; it re-reads the locked variant rows.
type CartItem struct {
	VariantID     uuid.UUID `json:"variant_id"`
	ProductID     uuid.UUID `json:"product_id"`
	Name          string    `json:"name"`
	VariantLabel  string    `json:"variant_label"`
	UnitPrice     int64     `json:"price"`
	StripePriceID string    `json:"stripe_price_id,omitempty"`
	Quantity      int       `json:"quantity"`
}

// Cart lives in session state, unique by VariantID.
type Cart struct {
	Items []CartItem `json:"items"`
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Index returns the position of variantID in the cart or -1.
func (c *Cart) Index(variantID uuid.UUID) int {
	for i, item := range c.Items {
		if item.VariantID == variantID {
			return i
		}
	}
	return -1
}

func (c *Cart) Remove(variantID uuid.UUID) bool {
	i := c.Index(variantID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Total derives the display total from the line snapshots.
func (c *Cart) Total() (int64, error) {
	lines := make([]int64, 0, len(c.Items))
	for _, item := range c.Items {
		lt, err := ledger.LineTotal(item.UnitPrice, int64(item.Quantity))
		if err != nil {
			return 0, err
		}
		lines = append(lines, lt)
	}
	return ledger.Sum(lines)
}
