package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/showsewa/seat-inventory/internal/domain"
)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("channel", validateChannel)

	return validator
}

func validateChannel(fl validator.FieldLevel) bool {
	return domain.ValidChannel(domain.Channel(fl.Field().String()))
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "channel":
		return "must be a known sales channel"
	default:
		return "is invalid"
	}
}
