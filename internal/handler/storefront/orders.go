package storefront

import (
	"errors"
	"net/http"

	"github.com/dukerupert/dynamite/internal/domain"
	"github.com/dukerupert/dynamite/internal/handler"
	"github.com/dukerupert/dynamite/internal/service"
)

// OrdersHandler serves the success page lookup.
type OrdersHandler struct {
	orderService service.OrderService
}

func NewOrdersHandler(orderService service.OrderService) *OrdersHandler {
	return &OrdersHandler{orderService: orderService}
}

type orderLookupResponse struct {
	Status string        `json:"status"`
	Order  *domain.Order `json:"order,omitempty"`
}

// BySession handles GET /api/orders/by-session/{ref}. A miss is a normal
// outcome while the webhook is in flight, so it answers 200 not_found.
func (h *OrdersHandler) BySession(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	order, err := h.orderService.GetOrderByCheckoutSession(r.Context(), ref)
	if errors.Is(err, service.ErrOrderNotFound) {
		handler.WriteJSON(w, http.StatusOK, orderLookupResponse{Status: "not_found"})
		return
	}
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, orderLookupResponse{Status: "ok", Order: order})
}
