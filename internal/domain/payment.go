package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentInput is a payment against one company's balance of a party.
type PaymentInput struct {
	Amount      decimal.Decimal
	Company     string
	Description string
	VoucherRef  string
}

// Validate checks the payment before anything is touched.
func (in PaymentInput) Validate() error {
	if err := ValidateAmount(in.Amount); err != nil {
		return NewValidationError("amount", err.Error(), err)
	}
	if err := ValidateCompany(in.Company); err != nil {
		return NewValidationError("company", err.Error(), err)
	}
	return nil
}

// RecordPayment returns a copy of party with the payment appended and its
// caches rewritten. The new CurrentBalance is the refolded company balance
// minus the payment, which is exactly what a later Fold over the updated
// history yields. party itself is not modified.
func RecordPayment(party *Party, in PaymentInput, id string, on time.Time) (*Party, *Transaction, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}

	company := strings.TrimSpace(in.Company)

	current, err := Fold(SortAscending(ForCompany(party.Transactions, company)), party.OpeningBalance, party.Polarity())
	if err != nil {
		return nil, nil, err
	}

	day := Day(on)
	payment := Transaction{
		ID:          id,
		Date:        day,
		Type:        TransactionTypePayment,
		CompanyName: company,
		Amount:      in.Amount,
		Description: in.Description,
		VoucherRef:  in.VoucherRef,
	}

	updated := party.Clone()
	updated.Transactions = append(updated.Transactions, payment)
	updated.CurrentBalance = current.ClosingBalance.Sub(in.Amount)
	updated.BalanceCompany = company
	updated.TotalPayments = party.TotalPayments.Add(in.Amount)
	updated.LastTransactionDate = &day

	return updated, &payment, nil
}
