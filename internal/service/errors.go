package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientFunds = errors.New("insufficient wallet balance")

	ErrDiscountInvalid     = errors.New("invalid discount code")
	ErrDiscountNotYetValid = errors.New("discount code is not yet valid")
	ErrDiscountExpired     = errors.New("discount code has expired")
	ErrDiscountExhausted   = errors.New("discount code has reached maximum uses")
)

// notFound maps gorm's missing-record error onto ErrNotFound and wraps
// everything else with what.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", what, err)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
