package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/diewo77/go-quotes/i18n"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Violations maps a field name to an error code ("required", "out_of_range").
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records code for field unless the field already has a violation.
func (v Violations) Add(field, code string) {
	if _, ok := v[field]; !ok {
		v[field] = code
	}
}

// Translate returns the violations as human messages in lang.
func (v Violations) Translate(lang string) map[string]string {
	out := make(map[string]string, len(v))
	for field, code := range v {
		out[field] = i18n.T(lang, code)
	}
	return out
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

func RequiredID(field string, id uint, v Violations) {
	if id == 0 {
		v.Add(field, "required")
	}
}

func MaxLen(field, value string, maxLen int, v Violations) {
	if len([]rune(value)) > maxLen {
		v.Add(field, "too_long")
	}
}

func NonNegativeDecimal(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v.Add(field, "must_be_positive")
	}
}

func RangeDecimal(field string, val, minVal, maxVal decimal.Decimal, v Violations) {
	if val.LessThan(minVal) || val.GreaterThan(maxVal) {
		v.Add(field, "out_of_range")
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report json names so violations line up with request bodies
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct checks `validate:"..."` tags on s and converts failures to Violations.
func Struct(s any) Violations {
	v := make(Violations)
	err := engine().Struct(s)
	if err == nil {
		return v
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.Add("_", "invalid")
		return v
	}
	for _, fe := range fieldErrs {
		v.Add(fieldPath(fe.Namespace()), codeFor(fe.Tag()))
	}
	return v
}

// fieldPath drops the root struct name: "createQuoteReq.items[0].title" -> "items[0].title".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func codeFor(tag string) string {
	switch tag {
	case "required", "required_without", "required_if":
		return "required"
	case "email":
		return "invalid_email"
	case "max":
		return "too_long"
	case "min", "gte", "lte", "gt", "lt":
		return "out_of_range"
	case "datetime":
		return "invalid_date"
	default:
		return "invalid"
	}
}
