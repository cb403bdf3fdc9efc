package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidPartyName = errors.New("invalid party name")
	ErrAmountTooLarge   = errors.New("amount exceeds maximum allowed")
	ErrAmountTooSmall   = errors.New("amount below minimum allowed")
	ErrNegativeSettled  = errors.New("settled amount cannot be negative")
	ErrMissingDate      = errors.New("date is required")
	ErrDescriptionLong  = errors.New("description too long")
	ErrAmountPrecision  = errors.New("amount has too many decimal places")
)

// Validation constants
const (
	MaxPartyNameLength   = 255
	MinPartyNameLength   = 1
	MaxCompanyNameLength = 255
	MaxDescriptionLength = 1024
	MaxAmount            = "1000000000000" // 1 trillion
	MinAmount            = "0.01"
	// MaxAmountScale matches the NUMERIC(20, 2) money columns.
	MaxAmountScale = 2
)

// ValidatePartyName validates a party name.
func ValidatePartyName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinPartyNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidPartyName)
	}

	if len(name) > MaxPartyNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidPartyName, MaxPartyNameLength)
	}

	return nil
}

// ValidateCompany validates the operating company a transaction is booked to.
func ValidateCompany(company string) error {
	company = strings.TrimSpace(company)

	if company == "" {
		return fmt.Errorf("%w: company is required", ErrInvalidCompany)
	}

	if len(company) > MaxCompanyNameLength {
		return fmt.Errorf("%w: company exceeds %d characters", ErrInvalidCompany, MaxCompanyNameLength)
	}

	return nil
}

// ValidateAmount validates a payment or transaction amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	minAmount, _ := decimal.NewFromString(MinAmount)
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinAmount)
	}

	maxAmount, _ := decimal.NewFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAmount)
	}

	return ValidateScale(amount)
}

// ValidateScale rejects amounts that cannot be stored without rounding.
// Trailing zeros are fine: 10.500 is stored as 10.50.
func ValidateScale(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(MaxAmountScale)) {
		return fmt.Errorf("%w: at most %d decimal places allowed", ErrAmountPrecision, MaxAmountScale)
	}
	return nil
}

// ValidateOpeningBalance validates the balance a party is created with. It
// may be negative or zero.
func ValidateOpeningBalance(amount decimal.Decimal) error {
	maxAmount, _ := decimal.NewFromString(MaxAmount)
	if amount.Abs().GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAmount)
	}
	return ValidateScale(amount)
}

// ValidateEntry validates a sale, purchase or return before it is appended.
// Settled amounts above the face value are accepted as advances.
func ValidateEntry(t Transaction) error {
	switch t.Type {
	case TransactionTypeSale, TransactionTypePurchase, TransactionTypeReturn:
	case TransactionTypePayment:
		return NewValidationError("type", "payments are recorded through the payment endpoint", ErrUnknownTransactionType)
	default:
		return NewValidationError("type", fmt.Sprintf("unknown transaction type %q", t.Type), ErrUnknownTransactionType)
	}

	if t.Date.IsZero() {
		return NewValidationError("date", ErrMissingDate.Error(), ErrMissingDate)
	}

	if err := ValidateAmount(t.Amount); err != nil {
		return NewValidationError("amount", err.Error(), err)
	}

	if err := ValidateCompany(t.CompanyName); err != nil {
		return NewValidationError("company", err.Error(), err)
	}

	if t.PaymentReceived.IsNegative() {
		return NewValidationError("payment_received", ErrNegativeSettled.Error(), ErrNegativeSettled)
	}
	if err := ValidateScale(t.PaymentReceived); err != nil {
		return NewValidationError("payment_received", err.Error(), err)
	}

	if t.PaidAmount.IsNegative() {
		return NewValidationError("paid_amount", ErrNegativeSettled.Error(), ErrNegativeSettled)
	}
	if err := ValidateScale(t.PaidAmount); err != nil {
		return NewValidationError("paid_amount", err.Error(), err)
	}

	if len(t.Description) > MaxDescriptionLength {
		return NewValidationError("description", fmt.Sprintf("exceeds %d characters", MaxDescriptionLength), ErrDescriptionLong)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
