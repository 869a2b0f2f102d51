// Package ledger validates and sums monetary amounts.
//
// The store currency has no subunits, so every amount is a non-negative
// whole number. Anything else is a tampered input or a programming defect
// and fails instead of being rounded.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidAmount is matched with errors.Is on every failure from this package.
var ErrInvalidAmount = errors.New("invalid amount")

// AmountError describes which field failed and why.
type AmountError struct {
	Field  string
	Value  any
	Reason string
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Reason, e.Value)
}

func (e *AmountError) Unwrap() error {
	return ErrInvalidAmount
}

func invalid(field string, value any, reason string) error {
	return &AmountError{Field: field, Value: value, Reason: reason}
}

// Assert coerces value to a non-negative integer amount. It accepts Go
// integer kinds, integral floats and json.Number.
func Assert(value any, field string) (int64, error) {
	switch v := value.(type) {
	case int:
		return nonNegative(int64(v), field, value)
	case int8:
		return nonNegative(int64(v), field, value)
	case int16:
		return nonNegative(int64(v), field, value)
	case int32:
		return nonNegative(int64(v), field, value)
	case int64:
		return nonNegative(v, field, value)
	case uint:
		return fromUint(uint64(v), field, value)
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return fromUint(v, field, value)
	case float32:
		return fromFloat(float64(v), field, value)
	case float64:
		return fromFloat(v, field, value)
	case json.Number:
		if n, err := strconv.ParseInt(string(v), 10, 64); err == nil {
			return nonNegative(n, field, value)
		}
		f, err := v.Float64()
		if err != nil {
			return 0, invalid(field, value, "not a number")
		}
		return fromFloat(f, field, value)
	case nil:
		return 0, invalid(field, value, "missing")
	default:
		return 0, invalid(field, value, fmt.Sprintf("unsupported type %T", value))
	}
}

func nonNegative(n int64, field string, raw any) (int64, error) {
	if n < 0 {
		return 0, invalid(field, raw, "must not be negative")
	}
	return n, nil
}

func fromUint(n uint64, field string, raw any) (int64, error) {
	if n > math.MaxInt64 {
		return 0, invalid(field, raw, "out of range")
	}
	return int64(n), nil
}

func fromFloat(f float64, field string, raw any) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, invalid(field, raw, "not a finite number")
	}
	if f != math.Trunc(f) {
		return 0, invalid(field, raw, "must be a whole number")
	}
	// 2^63 is exactly representable; anything at or above it overflows int64.
	if f >= 1<<63 || f < -(1<<63) {
		return 0, invalid(field, raw, "out of range")
	}
	return nonNegative(int64(f), field, raw)
}

// Sum adds non-negative amounts, failing on a negative term or overflow.
func Sum(values []int64) (int64, error) {
	var total int64
	for i, v := range values {
		if v < 0 {
			return 0, invalid(fmt.Sprintf("values[%d]", i), v, "must not be negative")
		}
		if total > math.MaxInt64-v {
			return 0, invalid("sum", values, "overflow")
		}
		total += v
	}
	return total, nil
}

// LineTotal returns unitPrice * quantity. Quantity must be positive.
func LineTotal(unitPrice, quantity int64) (int64, error) {
	if unitPrice < 0 {
		return 0, invalid("unit_price", unitPrice, "must not be negative")
	}
	if quantity <= 0 {
		return 0, invalid("quantity", quantity, "must be positive")
	}
	if unitPrice != 0 && quantity > math.MaxInt64/unitPrice {
		return 0, invalid("line_total", unitPrice, "overflow")
	}
	return unitPrice * quantity, nil
}
