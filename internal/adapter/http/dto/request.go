package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/usecase"
)

// CreatePartyRequest represents a request to create a party.
type CreatePartyRequest struct {
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Phone          string          `json:"phone,omitempty"`
	Address        string          `json:"address,omitempty"`
	Status         string          `json:"status,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreatePartyRequest) ToUseCaseInput() usecase.CreatePartyInput {
	return usecase.CreatePartyInput{
		Name:           r.Name,
		Type:           domain.PartyType(r.Type),
		Phone:          r.Phone,
		Address:        r.Address,
		Status:         domain.PartyStatus(r.Status),
		OpeningBalance: r.OpeningBalance,
	}
}

// RecordPaymentRequest represents a payment against one company's balance.
type RecordPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Company     string          `json:"company"`
	Description string          `json:"description,omitempty"`
	VoucherRef  string          `json:"voucher_ref,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordPaymentRequest) ToUseCaseInput(partyID string) usecase.RecordPaymentInput {
	return usecase.RecordPaymentInput{
		PartyID: partyID,
		PaymentInput: domain.PaymentInput{
			Amount:      r.Amount,
			Company:     r.Company,
			Description: r.Description,
			VoucherRef:  r.VoucherRef,
		},
	}
}

// AddTransactionRequest represents a sale, purchase or return entered by hand.
// Date is YYYY-MM-DD.
type AddTransactionRequest struct {
	Date            string          `json:"date"`
	Type            string          `json:"type"`
	Company         string          `json:"company"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentReceived decimal.Decimal `json:"payment_received"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	Description     string          `json:"description,omitempty"`
	VoucherRef      string          `json:"voucher_ref,omitempty"`
}

// ToUseCaseInput converts to use case input. A malformed date comes back
// as a validation error on the date field.
func (r *AddTransactionRequest) ToUseCaseInput(partyID string) (usecase.AddTransactionInput, error) {
	input := usecase.AddTransactionInput{
		PartyID:         partyID,
		Type:            domain.TransactionType(r.Type),
		CompanyName:     r.Company,
		Amount:          r.Amount,
		PaymentReceived: r.PaymentReceived,
		PaidAmount:      r.PaidAmount,
		Description:     r.Description,
		VoucherRef:      r.VoucherRef,
	}

	if strings.TrimSpace(r.Date) != "" {
		date, err := domain.ParseDate(strings.TrimSpace(r.Date))
		if err != nil {
			return usecase.AddTransactionInput{}, domain.NewValidationError("date", "expected YYYY-MM-DD", domain.ErrMissingDate)
		}
		input.Date = date
	}

	return input, nil
}
