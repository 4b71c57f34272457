// Package validator adapts go-playground/validator to Echo's Validator hook.
package validator

import (
	playground "github.com/go-playground/validator/v10"

	domainerrors "coursehub/internal/domain/errors"
)

// EchoValidator wraps a validator instance for echo.Echo.Validator.
type EchoValidator struct {
	validate *playground.Validate
}

// New creates the validator used by the HTTP server.
func New() *EchoValidator {
	return &EchoValidator{validate: playground.New()}
}

// Validate implements echo.Validator. Struct tag violations surface as the
// shared validation error so the error handler renders a 400 envelope.
func (v *EchoValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}
