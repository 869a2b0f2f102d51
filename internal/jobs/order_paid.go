// Package jobs holds the work done outside the request path: the follow-up
// to a paid order and periodic session cleanup.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/dynamite/internal/domain"
	"github.com/dukerupert/dynamite/internal/email"
	"github.com/dukerupert/dynamite/internal/service"
	"github.com/dukerupert/dynamite/internal/telemetry"
)

// Mailer sends the customer-facing confirmation. *email.Service satisfies it.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, data email.OrderConfirmationEmail) error
}

// OrderPaidHandler numbers the invoice of a freshly paid order and mails the
// confirmation.
type OrderPaidHandler struct {
	invoices service.InvoiceService
	orders   service.OrderService
	mailer   Mailer
	logger   *slog.Logger
}

func NewOrderPaidHandler(invoices service.InvoiceService, orders service.OrderService, mailer Mailer, logger *slog.Logger) *OrderPaidHandler {
	return &OrderPaidHandler{
		invoices: invoices,
		orders:   orders,
		mailer:   mailer,
		logger:   logger.With("job", "order_paid"),
	}
}

// HandleOrderPaid implements worker.Handler. A numbering failure is logged
// and the mail still goes out without a number.
func (h *OrderPaidHandler) HandleOrderPaid(ctx context.Context, event domain.OrderPaid) error {
	logger := h.logger.With("order_id", event.OrderID, "source", event.Source)

	invoiceNumber, err := h.invoices.AssignInvoiceNumber(ctx, event.OrderID)
	if err != nil {
		logger.Error("failed to assign invoice number", "error", err)
		telemetry.CaptureError(err, map[string]interface{}{"order_id": event.OrderID.String()})
		if telemetry.Business != nil {
			telemetry.Business.NotificationsFailed.WithLabelValues("invoice", domain.ErrorCode(err)).Inc()
		}
		invoiceNumber = ""
	}

	order, err := h.orders.GetOrder(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", event.OrderID, err)
	}

	recipient := event.RecipientEmail
	if recipient == "" {
		recipient = order.CustomerEmail
	}
	if recipient == "" {
		logger.Warn("no recipient for order confirmation, skipping")
		return nil
	}

	if err := h.mailer.SendOrderConfirmation(ctx, confirmationFor(order, invoiceNumber, recipient)); err != nil {
		return err
	}

	logger.Info("order confirmation sent", "invoice_number", invoiceNumber)
	return nil
}

func confirmationFor(order *domain.Order, invoiceNumber, recipient string) email.OrderConfirmationEmail {
	if invoiceNumber == "" {
		invoiceNumber = order.InvoiceNumber
	}

	data := email.OrderConfirmationEmail{
		To:            recipient,
		OrderID:       order.ID.String(),
		InvoiceNumber: invoiceNumber,
		Total:         order.Total,
		Items:         make([]email.OrderItem, 0, len(order.Items)),
	}
	if order.PaidAt != nil {
		data.PaidAt = *order.PaidAt
	}
	for _, line := range order.Items {
		data.Items = append(data.Items, email.OrderItem{
			ProductName:  line.ProductName,
			VariantLabel: line.VariantLabel,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			LineTotal:    line.LineTotal,
		})
	}
	return data
}
