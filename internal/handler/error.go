package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/dynamite/internal/domain"
	"github.com/dukerupert/dynamite/internal/middleware"
	"github.com/dukerupert/dynamite/internal/telemetry"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	// Code is the machine reason (CART_EMPTY) when the error has one, else
	// the class (invalid, not_found).
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse logs err and writes it. Internal errors are reported to
// Sentry and their details never reach the client.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	class := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(class)

	code := class
	if reason := domain.ErrorReason(err); reason != "" {
		code = reason
	}
	message := domain.ErrorMessage(err)

	logger := middleware.GetLogger(r.Context())
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"status", status,
	}
	if op := domain.ErrorOp(err); op != "" {
		attrs = append(attrs, "op", op)
	}

	if status >= 500 {
		logger.Error("request failed", attrs...)
		if status == http.StatusInternalServerError {
			telemetry.CaptureErrorFromContext(r.Context(), err, map[string]interface{}{
				"request_id": middleware.GetRequestID(r.Context()),
				"path":       r.URL.Path,
			})
		}
	} else {
		logger.Info("request rejected", attrs...)
	}

	writeError(w, r, status, ErrorDetail{Code: code, Message: message})
}

// ValidationErrorResponse writes field errors as 400. Other errors fall back
// to ErrorResponse.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	fields := domain.GetValidationFields(err)
	if fields == nil {
		ErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(r.Context()).Info("validation failed", "fields", fields)

	writeError(w, r, http.StatusBadRequest, ErrorDetail{
		Code:    domain.EINVALID,
		Message: "Invalid request",
		Fields:  fields,
	})
}

func NotFoundResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found"))
}

func UnauthorizedResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.EUNAUTHORIZED, "", "Authentication required"))
}

func ForbiddenResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.EFORBIDDEN, "", "You don't have permission to access this resource"))
}

// InternalErrorResponse wraps err (which may be nil) as an internal error.
func InternalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	ErrorResponse(w, r, domain.Internal(err, "", "An unexpected error occurred"))
}

func writeError(w http.ResponseWriter, r *http.Request, status int, detail ErrorDetail) {
	if acceptsJSON(r) {
		WriteJSON(w, status, ErrorBody{Error: detail})
		return
	}
	http.Error(w, detail.Message, status)
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorCodeToHTTPStatus maps domain error classes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EPAYMENT:
		return http.StatusPaymentRequired
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.EGONE:
		return http.StatusGone
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests
	case domain.EINTERNAL:
		return http.StatusInternalServerError
	case domain.ENOTIMPL:
		return http.StatusNotImplemented
	case domain.EUPSTREAM:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// acceptsJSON reports whether the client wants a JSON body. The whole /api
// tree is JSON.
func acceptsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasSuffix(r.URL.Path, ".json")
}
