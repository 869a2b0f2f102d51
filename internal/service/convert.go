package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dukerupert/dynamite/internal/domain"
	"github.com/dukerupert/dynamite/internal/repository"
)

func toDomainOrder(o repository.Order, lines []repository.OrderLine) *domain.Order {
	out := &domain.Order{
		ID:                 uuid.UUID(o.ID.Bytes),
		SessionRef:         o.SessionRef,
		Status:             domain.OrderStatus(o.Status),
		Total:              o.Total,
		CheckoutSessionRef: o.StripeSessionID.String,
		PaymentIntentRef:   o.StripePaymentIntentID.String,
		CustomerEmail:      o.CustomerEmail.String,
		InvoiceNumber:      o.InvoiceNumber.String,
		CreatedAt:          o.CreatedAt.Time,
		PaidAt:             timePtr(o.PaidAt),
		Items:              make([]domain.OrderLine, 0, len(lines)),
	}
	for _, l := range lines {
		out.Items = append(out.Items, domain.OrderLine{
			ProductID:    uuid.UUID(l.ProductID.Bytes),
			VariantID:    uuid.UUID(l.VariantID.Bytes),
			ProductName:  l.ProductName,
			VariantLabel: l.VariantLabel,
			Quantity:     int(l.Quantity),
			UnitPrice:    l.UnitPrice,
			LineTotal:    l.LineTotal,
		})
	}
	return out
}

func timePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}
