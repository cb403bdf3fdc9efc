package domain

import (
	"errors"
	"fmt"
)

var (
	// Party errors
	ErrPartyNotFound    = errors.New("party not found")
	ErrInvalidPartyType = errors.New("invalid party type")
	ErrInvalidStatus    = errors.New("invalid party status")

	// Transaction errors
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrUnknownTransactionType = errors.New("unknown transaction type")
	ErrUnknownPolarity        = errors.New("unknown ledger polarity")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidCompany         = errors.New("invalid company name")
	ErrInvalidWindow          = errors.New("invalid date window")

	// Auth errors
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrCompanyForbidden = errors.New("company not permitted for this operator")
)

// ValidationError is a rejected input, carrying the field it concerns so
// callers can show a form-level message. Err is the sentinel for errors.Is.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string, err error) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s", e.Field)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
