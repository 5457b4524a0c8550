package validator

import (
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	ierr "github.com/ridwanfathin/vetclinic-billing-service/internal/errors"
	"github.com/shopspring/decimal"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// GetValidator returns the shared validator, building it on first use.
// Field names are reported by their json tag so error details line up
// with the request body.
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		// decimals validate as their float value so gte/lte tags work on money fields
		validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
			if d, ok := v.Interface().(decimal.Decimal); ok {
				return decimalFloat(d)
			}
			return nil
		}, decimal.Decimal{})
	})
	return validate
}

// float64 overflows past 1e308 and underflows below 1e-324
const floatExponentLimit = 400

// decimalFloat converts d without expanding exponents float64 cannot
// represent anyway, so 1e1000000000 is Inf instead of a billion digit integer.
func decimalFloat(d decimal.Decimal) float64 {
	exp := int64(d.Exponent())
	switch {
	case d.IsZero():
		return 0
	case exp > floatExponentLimit:
		return math.Inf(d.Sign())
	case exp+int64(d.NumDigits()) < -floatExponentLimit:
		return 0
	}
	return d.InexactFloat64()
}

// ValidateRequest runs struct tag validation and marks failures as
// validation errors with one detail per offending field.
func ValidateRequest(req interface{}) error {
	if err := GetValidator().Struct(req); err != nil {
		details := make(map[string]any)
		var validateErrs validator.ValidationErrors
		if ierr.As(err, &validateErrs) {
			for _, fe := range validateErrs {
				details[fieldPath(fe)] = message(fe)
			}
		}
		return ierr.WithError(err).
			WithHint("Request validation failed").
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// fieldPath drops the top level struct name: "CreateInvoiceRequest.items[0].quantity" -> "items[0].quantity"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must contain at least " + fe.Param() + " entries"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	}
	return fe.Error()
}
