package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/speaker-match-api/internal/models"
)

// newValidator returns validate, or a fresh validator, with the vocabulary tags registered.
func newValidator(validate *validator.Validate) *validator.Validate {
	if validate == nil {
		validate = validator.New()
	}
	_ = validate.RegisterValidation("grade", func(fl validator.FieldLevel) bool {
		return models.IsValidGrade(fl.Field().String())
	})
	_ = validate.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return models.IsValidLanguage(fl.Field().String())
	})
	return validate
}
