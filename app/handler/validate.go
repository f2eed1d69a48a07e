package handler

import (
	"fmt"

	"fincalendar/internal/db"
	m "fincalendar/internal/model"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterValidation("country", func(fl validator.FieldLevel) bool {
		return m.IsValidCountry(fl.Field().String())
	})
	v.RegisterValidation("kind", func(fl validator.FieldLevel) bool {
		_, err := m.ToFavoriteKind(fl.Field().String())
		return err == nil
	})

	return v
}

// validCheck reports failures as db.ErrInvalidField so they come back as 400.
func validCheck(param any) error {
	if err := validate.Struct(param); err != nil {
		return fmt.Errorf("%w: %w", db.ErrInvalidField, err)
	}
	return nil
}

func paramError(err error) error {
	return fmt.Errorf("%w: %w", db.ErrInvalidField, err)
}
