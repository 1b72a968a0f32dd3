package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNotFound          = errors.New("not found")
	ErrPersistence       = errors.New("persistence error")
	ErrAlreadyExists     = errors.New("already exists")
)

var (
	ErrQuotationLimitReached = fmt.Errorf("%w: quotation limit reached", ErrInvalidTransition)
	ErrDuplicateQuotation    = fmt.Errorf("%w: provider already quoted this order", ErrInvalidTransition)
	ErrAlreadyRated          = fmt.Errorf("%w: order already rated by this user", ErrInvalidTransition)
	ErrTooFarFromSite        = fmt.Errorf("%w: too far from job site", ErrValidation)
	ErrLedgerDrift           = errors.New("wallet balance does not match its transactions")
)

var businessErrors = []error{
	ErrValidation,
	ErrUnauthorized,
	ErrInvalidTransition,
	ErrInsufficientFunds,
	ErrInvalidAmount,
	ErrNotFound,
	ErrPersistence,
	ErrAlreadyExists,
	ErrLedgerDrift,
}

// Classify keeps known business errors intact and tags anything else as a persistence failure.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

// Validationf builds a validation error with a human readable reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
