package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType discriminates the financial events in a party's history.
type TransactionType string

const (
	TransactionTypeSale     TransactionType = "sale"
	TransactionTypePurchase TransactionType = "purchase"
	TransactionTypePayment  TransactionType = "payment"
	TransactionTypeReturn   TransactionType = "return"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeSale, TransactionTypePurchase, TransactionTypePayment, TransactionTypeReturn:
		return true
	}
	return false
}

// DateLayout is the wire format of transaction dates.
const DateLayout = "2006-01-02"

// Transaction is one event in a party's history. It is immutable once
// created; the only other lifecycle step is deletion.
type Transaction struct {
	ID              string
	Date            time.Time
	Type            TransactionType
	CompanyName     string
	Amount          decimal.Decimal
	PaymentReceived decimal.Decimal
	PaidAmount      decimal.Decimal
	Description     string
	VoucherRef      string
}

// Unpaid is the part of a sale or purchase not settled at creation time.
// It goes negative on over-payment and is not clamped.
func (t Transaction) Unpaid() decimal.Decimal {
	switch t.Type {
	case TransactionTypeSale:
		return t.Amount.Sub(t.PaymentReceived)
	case TransactionTypePurchase:
		return t.Amount.Sub(t.PaidAmount)
	}
	return decimal.Zero
}

// Settled is the amount paid against the transaction at creation time.
func (t Transaction) Settled() decimal.Decimal {
	switch t.Type {
	case TransactionTypeSale:
		return t.PaymentReceived
	case TransactionTypePurchase:
		return t.PaidAmount
	}
	return decimal.Zero
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// SortAscending returns a copy of txs ordered by date, oldest first.
// Transactions on the same day keep their insertion order.
func SortAscending(txs []Transaction) []Transaction {
	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)

	sort.SliceStable(sorted, func(i, j int) bool {
		return Day(sorted[i].Date).Before(Day(sorted[j].Date))
	})

	return sorted
}

// ForCompany keeps only transactions booked against company.
func ForCompany(txs []Transaction, company string) []Transaction {
	var scoped []Transaction
	for _, t := range txs {
		if t.CompanyName == company {
			scoped = append(scoped, t)
		}
	}
	return scoped
}
