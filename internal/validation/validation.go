// Package validation wraps go-playground/validator with the checkout's
// custom tags and converts failures into apperr validation errors.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/carecheckout/internal/apperr"
)

var (
	validate     *validator.Validate
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{9,14}$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

var usStates = map[string]struct{}{}

func init() {
	for _, code := range strings.Fields(`AL AK AZ AR CA CO CT DE DC FL GA HI ID IL IN IA KS KY LA ME MD MA MI MN MS MO
		MT NE NV NH NJ NM NY NC ND OH OK OR PA RI SC SD TN TX UT VT VA WA WV WI WY PR`) {
		usStates[code] = struct{}{}
	}

	validate = validator.New()
	validate.RegisterTagNameFunc(jsonName)
	validate.RegisterValidation("us_state", validateUSState)
	validate.RegisterValidation("phone_number", validatePhoneNumber)
	validate.RegisterValidation("zip_code", validateZipCode)
}

// Struct validates s and returns an *apperr.Error listing every failed field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("invalid_request").Wrap(err)
	}
	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{
			Field:   fieldPath(fe),
			Code:    "invalid_" + strings.ToLower(fe.Field()),
			Message: message(fe),
		})
	}
	return apperr.ValidationFields(fields...)
}

// Var validates a single value against tag.
func Var(v any, tag string) bool {
	return validate.Var(v, tag) == nil
}

// IsUSState reports whether code is a two-letter US state or territory.
func IsUSState(code string) bool {
	_, ok := usStates[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

func validateUSState(fl validator.FieldLevel) bool {
	return IsUSState(fl.Field().String())
}

func validatePhoneNumber(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}

func validateZipCode(fl validator.FieldLevel) bool {
	return zipPattern.MatchString(fl.Field().String())
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without", "required_if":
		return "is required"
	case "email":
		return "must be a valid email"
	case "us_state":
		return "must be a two-letter US state code"
	case "phone_number":
		return "must be a valid phone number"
	case "zip_code":
		return "must be a valid ZIP code"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}
