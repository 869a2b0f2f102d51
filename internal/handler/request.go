package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/dynamite/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// DecodeJSON decodes exactly one JSON object from the request body into dst
// and validates it. Unknown fields are rejected. The body size is bounded by
// middleware.MaxBodySize upstream.
func DecodeJSON(r *http.Request, dst any) error {
	const op = "request.decode"

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError

		switch {
		case errors.Is(err, io.EOF):
			return domain.Invalid(op, "Request body is empty")
		case errors.As(err, &maxErr):
			return domain.Errorf(domain.ETOOLARGE, op, "Request body too large")
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return domain.Invalid(op, "Request body is not valid JSON")
		case errors.As(err, &typeErr):
			return domain.NewValidationError(op, typeErr.Field, fmt.Sprintf("must be a %s", typeErr.Type))
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return domain.NewValidationError(op, field, "is not allowed")
		default:
			return domain.Invalid(op, "Request body could not be decoded")
		}
	}

	if dec.More() {
		return domain.Invalid(op, "Request body must contain a single JSON object")
	}

	return Validate(dst)
}

// Validate runs struct tag validation and converts failures into a
// domain.ValidationError keyed by JSON field name.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Internal(err, "request.validate", "validation could not run")
	}

	var out error
	for _, fe := range verrs {
		out = domain.AddFieldError(out, fe.Field(), fieldMessage(fe))
	}
	var ve *domain.ValidationError
	if errors.As(out, &ve) {
		ve.Op = "request.validate"
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid", "uuid4":
		return "must be a UUID"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	default:
		return "is invalid"
	}
}
