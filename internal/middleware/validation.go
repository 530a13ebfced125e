package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// maxBodyBytes bounds request bodies read by DecodeAndValidate
const maxBodyBytes = 1 << 20

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// report the JSON name of a field rather than its Go name
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// decimals are validated from their exact string form, never a float
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	if err := validate.RegisterValidation("money", validateMoney); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("maxbytes", validateMaxBytes); err != nil {
		panic(err)
	}
}

// Limits of a NUMERIC(12,2) column
const (
	moneyScale         = 2
	moneyIntegerDigits = 10
)

var moneyLimit = decimal.New(1, moneyIntegerDigits)

// validateMoney accepts a positive amount the price column stores exactly:
// at most two decimal places and ten integer digits
func validateMoney(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return d.IsPositive() && d.Equal(d.Truncate(moneyScale)) && d.LessThan(moneyLimit)
}

// validateMaxBytes bounds the UTF-8 length of a string, unlike max which
// counts runes
func validateMaxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// ValidateRequest validates a decoded body against its validation tags
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}

// DecodeAndValidate decodes JSON request body and validates it
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &DecodeError{Err: errors.New("request body is empty")}
		}
		return &DecodeError{Err: err}
	}
	return ValidateRequest(v)
}

// DecodeError reports a body that is not well-formed JSON for the target
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "invalid request body: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatValidationErrors converts validator errors to a readable format
func FormatValidationErrors(err error) []ValidationError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	errs := make([]ValidationError, 0, len(validationErrors))
	for _, e := range validationErrors {
		errs = append(errs, ValidationError{
			Field:   fieldPath(e),
			Message: getErrorMessage(e),
		})
	}
	return errs
}

// fieldPath drops the root struct name: "ProductInput.categories[0].id"
// becomes "categories[0].id"
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return e.Field()
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "url":
		return "Invalid URL"
	case "startswith":
		return "Value must start with " + e.Param()
	case "min":
		return fmt.Sprintf("Value must have at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("Value must have at most %s characters", e.Param())
	case "gte":
		return "Value must be greater than or equal to " + e.Param()
	case "lte":
		return "Value must be less than or equal to " + e.Param()
	case "gt":
		return "Value must be greater than " + e.Param()
	case "lt":
		return "Value must be less than " + e.Param()
	case "money":
		return fmt.Sprintf("Value must be a positive amount with at most %d integer digits and %d decimal places", moneyIntegerDigits, moneyScale)
	case "maxbytes":
		return fmt.Sprintf("Value must be at most %s bytes long", e.Param())
	default:
		return "Invalid value"
	}
}
