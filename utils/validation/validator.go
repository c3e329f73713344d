package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	slugRegex     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	currencyRegex = regexp.MustCompile(`^[a-z]{3}$`)

	// maxPrice is the first value a decimal(10,2) column cannot hold
	maxPrice = decimal.New(1, 8)
)

// Validator wraps the go-playground validator with the catalog's custom tags
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// slug: lowercase words joined by single hyphens
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRegex.MatchString(fl.Field().String())
	})
	// currency: ISO 4217 code in lowercase, as the payment processor expects
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return currencyRegex.MatchString(fl.Field().String())
	})
	// price: non-negative decimal below maxPrice with at most two fractional digits
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		// Bound the exponent first so the comparison never rescales a huge value
		if d.Exponent() < -2 || d.Exponent() > 8 {
			return false
		}
		return !d.IsNegative() && d.LessThan(maxPrice)
	})

	return &Validator{validate: v}
}

// ValidateStruct validates a struct and returns per-field messages, or nil when valid
func (v *Validator) ValidateStruct(s interface{}) map[string]string {
	if err := v.validate.Struct(s); err != nil {
		return FormatValidationErrors(err)
	}
	return nil
}

// FormatValidationErrors converts validation errors to a user-friendly format
func FormatValidationErrors(err error) map[string]string {
	fields := make(map[string]string)

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		fields["_"] = err.Error()
		return fields
	}

	for _, e := range validationErrs {
		field := toSnake(e.Field())
		switch e.Tag() {
		case "required":
			fields[field] = fmt.Sprintf("%s is required", field)
		case "email":
			fields[field] = "Invalid email format"
		case "min":
			fields[field] = fmt.Sprintf("%s must be at least %s characters", field, e.Param())
		case "max":
			fields[field] = fmt.Sprintf("%s must be at most %s characters", field, e.Param())
		case "oneof":
			fields[field] = fmt.Sprintf("%s must be one of: %s", field, e.Param())
		case "slug":
			fields[field] = "Slug may only contain lowercase letters, digits and single hyphens"
		case "currency":
			fields[field] = "Currency must be a three letter lowercase code"
		case "price":
			fields[field] = "Price must be a non-negative amount below 100000000 with at most two decimals"
		default:
			fields[field] = fmt.Sprintf("%s is invalid", field)
		}
	}

	return fields
}

// SanitizeString removes null bytes and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
