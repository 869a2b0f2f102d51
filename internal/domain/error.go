package domain

import (
	"errors"
	"fmt"
)

// Error classes. Each maps to one HTTP status and decides whether the
// message is safe to show to the caller.
const (
	EINVALID      = "invalid"          // 400
	EUNAUTHORIZED = "unauthorized"     // 401
	EPAYMENT      = "payment_required" // 402
	EFORBIDDEN    = "forbidden"        // 403
	ENOTFOUND     = "not_found"        // 404
	ECONFLICT     = "conflict"         // 409 - stock or state conflict, caller must refetch
	EGONE         = "gone"             // 410
	ETOOLARGE     = "too_large"        // 413
	ERATELIMIT    = "rate_limit"       // 429
	EINTERNAL     = "internal"         // 500 - details hidden
	ENOTIMPL      = "not_implemented"  // 501
	EUPSTREAM     = "upstream"         // 502 - payment provider failure, retryable
)

const internalMessage = "An internal error occurred. Please try again later."

// Error is the tagged error variant used across the application.
//
// Code is the status class. Reason is an optional stable machine code such
// as CART_EMPTY that API clients switch on; it is what the JSON error body
// reports when set.
type Error struct {
	Code    string
	Reason  string
	Message string

	// Op names the operation that failed, e.g. "checkout.create". Logged only.
	Op string

	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode returns the class of err, EINTERNAL for foreign errors and ""
// for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorReason returns the machine reason of the outermost domain error that
// carries one.
func ErrorReason(err error) string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return ""
		}
		if e.Reason != "" {
			return e.Reason
		}
		err = e.Err
	}
	return ""
}

// ErrorMessage returns a caller-safe message. Internal and foreign errors
// collapse to a generic sentence.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Code != EINTERNAL {
		return e.Message
	}
	return internalMessage
}

// ErrorOp extracts the operation from an error (for logging).
func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Errorf creates a new domain error with formatted message.
func Errorf(code, op, format string, args ...interface{}) error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Reasonf creates a domain error that carries a machine reason.
// Example: domain.Reasonf(domain.EINVALID, "CART_EMPTY", "Cart is empty")
func Reasonf(code, reason, format string, args ...interface{}) error {
	return &Error{
		Code:    code,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps err with a code and operation. Returns nil if err is nil.
func WrapError(err error, code, op, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// IsCode returns true if err has the given error code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// =============================================================================
// Validation Errors
// =============================================================================

// ValidationError collects field-level failures from request decoding.
type ValidationError struct {
	Fields map[string]string
	Op     string
}

func (e *ValidationError) Error() string {
	prefix := ""
	if e.Op != "" {
		prefix = e.Op + ": "
	}
	if len(e.Fields) == 1 {
		for field, msg := range e.Fields {
			return fmt.Sprintf("%s%s: %s", prefix, field, msg)
		}
	}
	return fmt.Sprintf("%svalidation failed for %d fields", prefix, len(e.Fields))
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(op, field, message string) error {
	return &ValidationError{
		Op:     op,
		Fields: map[string]string{field: message},
	}
}

// AddFieldError adds a field to an existing ValidationError, or starts a
// new one.
func AddFieldError(err error, field, message string) error {
	var ve *ValidationError
	if err != nil && errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return &ValidationError{Fields: map[string]string{field: message}}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// GetValidationFields returns nil if err is not a ValidationError.
func GetValidationFields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// =============================================================================
// Convenience constructors
// =============================================================================

// NotFound creates a not found error for a resource.
// Example: domain.NotFound("order.get", "order", orderID.String())
func NotFound(op, resource, identifier string) error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
	}
}

func Invalid(op, message string) error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

func Conflict(op, message string) error {
	return &Error{Code: ECONFLICT, Op: op, Message: message}
}

func Forbidden(op, message string) error {
	return &Error{Code: EFORBIDDEN, Op: op, Message: message}
}

// Internal wraps err as an internal error. The message is for logs; callers
// only ever see the generic text.
func Internal(err error, op, message string) error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}
