package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/pocket-university-api/internal/models"
)

// NewValidator returns a validator aware of the portal's custom tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})
	return v
}
