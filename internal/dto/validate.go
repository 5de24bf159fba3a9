package dto

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
)

// NewValidator returns a validator that reports JSON field names and knows
// the booking witness rule.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(BookingRequest)
		if len(req.Witnesses) >= 2 && len(req.Witnesses) <= 3 && !models.WitnessCompositionValid(req.Witnesses) {
			sl.ReportError(req.Witnesses, "witnesses", "Witnesses", "witness_composition", "")
		}
	}, BookingRequest{})
	return v
}

// FieldErrors flattens validator failures into field -> message pairs.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := fieldKey(fe.Namespace())
		if _, seen := fields[key]; seen {
			continue
		}
		fields[key] = message(fe)
	}
	return fields
}

func fieldKey(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must have at least " + fe.Param()
	case "max":
		return "must have at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "gt", "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "gtefield":
		return "must not be before " + fe.Param()
	case "numeric":
		return "must be numeric"
	case "witness_composition":
		return "must be 2 witnesses, or 3 with 2 men and 1 woman or 1 man and 2 women"
	default:
		return "is invalid"
	}
}
