package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Polarity selects the debit/credit mapping of a party ledger.
type Polarity int

const (
	// Receivable is the customer view: the balance is what the party owes us.
	Receivable Polarity = iota + 1
	// Payable is the supplier view: the balance is what we owe the party.
	Payable
)

func (p Polarity) String() string {
	switch p {
	case Receivable:
		return "receivable"
	case Payable:
		return "payable"
	}
	return fmt.Sprintf("polarity(%d)", int(p))
}

// LedgerEntry is one folded transaction.
type LedgerEntry struct {
	Transaction Transaction
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Balance     decimal.Decimal
	Description string
}

// Ledger is the result of folding a scoped, ascending transaction list.
type Ledger struct {
	Entries        []LedgerEntry
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	TotalDebit     decimal.Decimal
	TotalCredit    decimal.Decimal

	// Incomplete is set when FoldPartial had to skip transactions.
	Incomplete bool
	Rejected   []Transaction
}

// Newest returns the entries newest first. It reverses the folded order and
// never re-sorts, so both views agree on same-day ordering.
func (l *Ledger) Newest() []LedgerEntry {
	out := make([]LedgerEntry, len(l.Entries))
	for i, e := range l.Entries {
		out[len(l.Entries)-1-i] = e
	}
	return out
}

// Columns returns the debit and credit columns of t under polarity p.
func Columns(t Transaction, p Polarity) (debit, credit decimal.Decimal, err error) {
	if p != Receivable && p != Payable {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownPolarity, p)
	}

	switch t.Type {
	case TransactionTypeSale:
		return t.Unpaid(), decimal.Zero, nil
	case TransactionTypePurchase:
		return decimal.Zero, t.Unpaid(), nil
	case TransactionTypePayment, TransactionTypeReturn:
		if p == Payable {
			return t.Amount, decimal.Zero, nil
		}
		return decimal.Zero, t.Amount, nil
	}

	return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %q (transaction %s)", ErrUnknownTransactionType, t.Type, t.ID)
}

// Delta returns the signed change t applies to a running balance.
func Delta(t Transaction, p Polarity) (decimal.Decimal, error) {
	debit, credit, err := Columns(t, p)
	if err != nil {
		return decimal.Zero, err
	}

	if p == Payable {
		return credit.Sub(debit), nil
	}
	return debit.Sub(credit), nil
}

// Fold computes the running balance over txs, which must already be scoped
// to one company and sorted ascending. It fails on the first transaction of
// an unknown type.
func Fold(txs []Transaction, starting decimal.Decimal, p Polarity) (*Ledger, error) {
	if p != Receivable && p != Payable {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolarity, p)
	}

	ledger := FoldPartial(txs, starting, p)
	if len(ledger.Rejected) > 0 {
		t := ledger.Rejected[0]
		return nil, fmt.Errorf("%w: %q (transaction %s)", ErrUnknownTransactionType, t.Type, t.ID)
	}

	return ledger, nil
}

// FoldPartial is the best-effort Fold used for rendering historical data.
// Transactions it cannot interpret are left out of the balance and reported
// in Rejected.
func FoldPartial(txs []Transaction, starting decimal.Decimal, p Polarity) *Ledger {
	ledger := &Ledger{
		Entries:        make([]LedgerEntry, 0, len(txs)),
		OpeningBalance: starting,
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
	}

	balance := starting
	for _, t := range txs {
		debit, credit, err := Columns(t, p)
		if err != nil {
			ledger.Rejected = append(ledger.Rejected, t)
			continue
		}

		if p == Payable {
			balance = balance.Add(credit).Sub(debit)
		} else {
			balance = balance.Add(debit).Sub(credit)
		}

		ledger.TotalDebit = ledger.TotalDebit.Add(debit)
		ledger.TotalCredit = ledger.TotalCredit.Add(credit)
		ledger.Entries = append(ledger.Entries, LedgerEntry{
			Transaction: t,
			Debit:       debit,
			Credit:      credit,
			Balance:     balance,
			Description: describe(t),
		})
	}

	ledger.ClosingBalance = balance
	ledger.Incomplete = len(ledger.Rejected) > 0

	return ledger
}

func describe(t Transaction) string {
	if t.Description != "" {
		return t.Description
	}

	switch t.Type {
	case TransactionTypeSale:
		return "Sale"
	case TransactionTypePurchase:
		return "Purchase"
	case TransactionTypePayment:
		return "Payment"
	case TransactionTypeReturn:
		return "Return"
	}
	return string(t.Type)
}
