package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Totals sums what a history transacted and what was paid against it,
// across every company.
func Totals(txs []Transaction) (transacted, payments decimal.Decimal) {
	transacted, payments = decimal.Zero, decimal.Zero

	for _, t := range txs {
		switch t.Type {
		case TransactionTypeSale, TransactionTypePurchase:
			transacted = transacted.Add(t.Amount)
			payments = payments.Add(t.Settled())
		case TransactionTypePayment:
			payments = payments.Add(t.Amount)
		}
	}

	return transacted, payments
}

// Recompute rebuilds every cache of party from its history, with
// CurrentBalance taken for company. It is the fallback after any mutation
// that is not a plain payment.
func Recompute(party *Party, company string) (*Party, error) {
	ledger, err := Fold(SortAscending(ForCompany(party.Transactions, company)), party.OpeningBalance, party.Polarity())
	if err != nil {
		return nil, err
	}

	updated := party.Clone()
	updated.CurrentBalance = ledger.ClosingBalance
	updated.BalanceCompany = company
	updated.TotalPurchases, updated.TotalPayments = Totals(party.Transactions)
	updated.LastTransactionDate = lastDate(party.Transactions)

	return updated, nil
}

// AddTransaction appends a sale, purchase or return and refreshes the caches
// for its company. Payments go through RecordPayment.
func AddTransaction(party *Party, t Transaction) (*Party, error) {
	if err := ValidateEntry(t); err != nil {
		return nil, err
	}

	t.CompanyName = strings.TrimSpace(t.CompanyName)
	t.Date = Day(t.Date)

	appended := party.Clone()
	appended.Transactions = append(appended.Transactions, t)

	return Recompute(appended, t.CompanyName)
}

// RemoveTransaction returns a copy of party without the transaction with id.
// The caches are left as they were; callers follow up with Recompute or
// use ReverseTransaction.
func RemoveTransaction(party *Party, id string) (*Party, *Transaction, error) {
	idx := -1
	for i, t := range party.Transactions {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, ErrTransactionNotFound
	}

	removed := party.Transactions[idx]

	updated := party.Clone()
	updated.Transactions = append(updated.Transactions[:idx:idx], party.Transactions[idx+1:]...)

	return updated, &removed, nil
}

// ReverseTransaction removes the transaction with id and backs out exactly
// what it contributed to the caches. CurrentBalance only moves when the
// transaction belongs to BalanceCompany.
func ReverseTransaction(party *Party, id string) (*Party, *Transaction, error) {
	updated, removed, err := RemoveTransaction(party, id)
	if err != nil {
		return nil, nil, err
	}

	delta, err := Delta(*removed, party.Polarity())
	if err != nil {
		return nil, nil, err
	}

	if removed.CompanyName == party.BalanceCompany {
		updated.CurrentBalance = party.CurrentBalance.Sub(delta)
	}

	switch removed.Type {
	case TransactionTypeSale, TransactionTypePurchase:
		updated.TotalPurchases = party.TotalPurchases.Sub(removed.Amount)
		updated.TotalPayments = party.TotalPayments.Sub(removed.Settled())
	case TransactionTypePayment:
		updated.TotalPayments = party.TotalPayments.Sub(removed.Amount)
	}

	updated.LastTransactionDate = lastDate(updated.Transactions)

	return updated, removed, nil
}

func lastDate(txs []Transaction) *time.Time {
	var last *time.Time
	for _, t := range txs {
		d := Day(t.Date)
		if last == nil || d.After(*last) {
			last = &d
		}
	}
	return last
}
