package storefront

import (
	"net/http"

	"github.com/dukerupert/dynamite/internal/domain"
	"github.com/dukerupert/dynamite/internal/handler"
	"github.com/dukerupert/dynamite/internal/middleware"
	"github.com/dukerupert/dynamite/internal/service"
)

// CheckoutHandler starts hosted checkout and confirms payment on return.
type CheckoutHandler struct {
	checkoutService service.CheckoutService
	paymentService  service.PaymentService
	cartService     service.CartService
	sessions        Sessions
}

func NewCheckoutHandler(
	checkoutService service.CheckoutService,
	paymentService service.PaymentService,
	cartService service.CartService,
	sessions Sessions,
) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		paymentService:  paymentService,
		cartService:     cartService,
		sessions:        sessions,
	}
}

type createSessionResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

// CreateSession handles POST /api/checkout/create-session. The session is
// saved after success so the anti-double-click marker persists.
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Load(r)
	if err != nil {
		handler.InternalErrorResponse(w, r, err)
		return
	}

	result, err := h.checkoutService.CreateOrReuseCheckoutSession(r.Context(), sess)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := h.sessions.Save(w, r, sess); err != nil {
		handler.InternalErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(r.Context()).Info("checkout session issued",
		"order_id", result.OrderID,
		"outcome", result.Outcome,
	)

	handler.WriteJSON(w, http.StatusOK, createSessionResponse{RedirectURL: result.RedirectURL})
}

type confirmResponse struct {
	Status  string               `json:"status"`
	OrderID string               `json:"order_id,omitempty"`
	Error   *handler.ErrorDetail `json:"error,omitempty"`
}

// Confirm handles GET /api/checkout/confirm?session_id=cs_...
// externalSessionRef is accepted as an alias. The cart is emptied once the
// order is paid.
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	ref := query.Get("session_id")
	if ref == "" {
		ref = query.Get("externalSessionRef")
	}

	result, err := h.paymentService.ConfirmPayment(r.Context(), ref)
	if err != nil {
		h.confirmError(w, r, err)
		return
	}

	if result.Status == service.ConfirmStatusOK {
		if err := h.clearCart(w, r); err != nil {
			// Payment is recorded; a stale cart is cosmetic.
			middleware.GetLogger(r.Context()).Warn("failed to clear cart after payment",
				"order_id", result.OrderID,
				"error", err,
			)
		}
	}

	handler.WriteJSON(w, http.StatusOK, confirmResponse{
		Status:  result.Status,
		OrderID: result.OrderID.String(),
	})
}

func (h *CheckoutHandler) clearCart(w http.ResponseWriter, r *http.Request) error {
	sess, err := h.sessions.Load(r)
	if err != nil {
		return err
	}
	if sess.State.Cart.IsEmpty() {
		return nil
	}
	h.cartService.Clear(sess)
	return h.sessions.Save(w, r, sess)
}

// confirmError keeps the {status} shape the success page polls on while
// carrying the usual error detail and status code.
func (h *CheckoutHandler) confirmError(w http.ResponseWriter, r *http.Request, err error) {
	class := domain.ErrorCode(err)
	status := handler.ErrorCodeToHTTPStatus(class)

	code := class
	if reason := domain.ErrorReason(err); reason != "" {
		code = reason
	}

	logger := middleware.GetLogger(r.Context())
	if status >= 500 {
		logger.Error("payment confirmation failed", "error", err, "code", code)
	} else {
		logger.Info("payment confirmation rejected", "error", err, "code", code)
	}

	handler.WriteJSON(w, status, confirmResponse{
		Status: service.ConfirmStatusError,
		Error:  &handler.ErrorDetail{Code: code, Message: domain.ErrorMessage(err)},
	})
}
