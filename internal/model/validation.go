package model

import "github.com/go-playground/validator/v10"

var validUrgencies = map[string]bool{
	UrgencyLow:       true,
	UrgencyMedium:    true,
	UrgencyHigh:      true,
	UrgencyEmergency: true,
}

// RegisterValidators installs the domain validators on gin's binding engine.
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation("urgency", func(fl validator.FieldLevel) bool {
		return validUrgencies[fl.Field().String()]
	})
}
