// Package validation turns untrusted input into normalized, type-checked
// values from the types package, or rejects it with a
// *types.ValidationError. Nothing here touches storage.
//
// Field rules live as validate:"..." struct tags on the normalized input
// types and are checked with go-playground/validator.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/aanand-mishra/users-api/internal/types"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultLimit  = 10
	DefaultOffset = 0

	MinAge = 0
	MaxAge = 150
)

// emailPattern is the accepted local@domain.tld shape.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// validate is shared by every call; a *validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// RegisterValidation only fails on an empty tag or a nil func.
	_ = v.RegisterValidation("simple_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// NormalizeCreate validates a creation payload. Name and email are
// trimmed; status defaults to active when absent or empty.
func NormalizeCreate(raw types.UserPayload) (types.CreateUserInput, error) {
	in := types.CreateUserInput{
		Name:   trimmed(raw.Name),
		Email:  trimmed(raw.Email),
		Age:    raw.Age,
		Status: types.StatusActive,
	}
	if raw.Status != nil && *raw.Status != "" {
		in.Status = types.Status(*raw.Status)
	}

	if err := check(in); err != nil {
		return types.CreateUserInput{}, err
	}
	return in, nil
}

// NormalizeUpdate validates a partial update. Only supplied fields are
// checked; a payload with none of them normalizes to an empty update.
func NormalizeUpdate(raw types.UserPayload) (types.UpdateUserInput, error) {
	var in types.UpdateUserInput
	if raw.Name != nil {
		name := strings.TrimSpace(*raw.Name)
		in.Name = &name
	}
	if raw.Email != nil {
		email := strings.TrimSpace(*raw.Email)
		in.Email = &email
	}
	if raw.Age != nil {
		age := *raw.Age
		in.Age = &age
	}
	if raw.Status != nil {
		status := types.Status(*raw.Status)
		in.Status = &status
	}

	if err := check(in); err != nil {
		return types.UpdateUserInput{}, err
	}
	return in, nil
}

// NormalizeFilter builds a Filter from list query parameters.
//
// Numeric criteria that do not parse are dropped. limit falls back to
// DefaultLimit when missing, unparseable or below 1; offset falls back to
// DefaultOffset when missing, unparseable or negative. A status outside
// the enumerated values is rejected.
func NormalizeFilter(raw url.Values) (types.Filter, error) {
	f := types.Filter{
		Name:   raw.Get("name"),
		Email:  raw.Get("email"),
		AgeMin: optionalInt(raw.Get("age_min")),
		AgeMax: optionalInt(raw.Get("age_max")),
	}

	if s := raw.Get("status"); s != "" {
		f.Status = types.Status(s)
		if !f.Status.Valid() {
			return types.Filter{}, &types.ValidationError{
				Kind:    types.InvalidFormat,
				Field:   "status",
				Message: "status must be one of: active, inactive",
			}
		}
	}

	limit := DefaultLimit
	if n := optionalInt(raw.Get("limit")); n != nil && *n >= 1 {
		limit = *n
	}
	offset := DefaultOffset
	if n := optionalInt(raw.Get("offset")); n != nil && *n >= 0 {
		offset = *n
	}
	f.Limit = &limit
	f.Offset = &offset

	return f, nil
}

// ParseID parses an id path parameter.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &types.ValidationError{
			Kind:    types.InvalidFormat,
			Field:   "id",
			Message: "invalid user ID",
		}
	}
	return id, nil
}

// check runs the struct rules on v and converts the first failure into a
// *types.ValidationError.
func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validation: %w", err)
	}
	return toValidationError(verrs[0])
}

// toValidationError maps a validator tag onto the error taxonomy.
func toValidationError(fe validator.FieldError) *types.ValidationError {
	field := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required", "min":
		return &types.ValidationError{
			Kind:    types.MissingField,
			Field:   field,
			Message: fmt.Sprintf("field %s is required", field),
		}
	case "gte", "lte":
		return &types.ValidationError{
			Kind:    types.OutOfRange,
			Field:   field,
			Message: fmt.Sprintf("%s must be between %d and %d", field, MinAge, MaxAge),
		}
	case "simple_email":
		return &types.ValidationError{
			Kind:    types.InvalidFormat,
			Field:   field,
			Message: "invalid email format",
		}
	case "oneof":
		return &types.ValidationError{
			Kind:    types.InvalidFormat,
			Field:   field,
			Message: fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")),
		}
	default:
		return &types.ValidationError{
			Kind:    types.InvalidFormat,
			Field:   field,
			Message: fmt.Sprintf("field %s is invalid", field),
		}
	}
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func optionalInt(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}
