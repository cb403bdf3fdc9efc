package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Window bounds a ledger report. Both ends are inclusive calendar dates;
// a nil end is unbounded.
type Window struct {
	From *time.Time
	To   *time.Time
}

// Validate rejects windows that end before they start.
func (w Window) Validate() error {
	if w.From != nil && w.To != nil && Day(*w.From).After(Day(*w.To)) {
		return NewValidationError("window", "from date is after to date", ErrInvalidWindow)
	}
	return nil
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d time.Time) bool {
	day := Day(d)
	if w.From != nil && day.Before(Day(*w.From)) {
		return false
	}
	if w.To != nil && day.After(Day(*w.To)) {
		return false
	}
	return true
}

// Scoped is a company-scoped view of a party's history.
type Scoped struct {
	Transactions            []Transaction
	EffectiveOpeningBalance decimal.Decimal

	// Rejected lists pre-window transactions ScopePartial could not fold.
	Rejected []Transaction
}

// Scope narrows txs to one company and window. With a From date the opening
// balance is rebuilt by folding every earlier transaction of the company
// into opening, so the window agrees with the unwindowed history.
func Scope(txs []Transaction, company string, opening decimal.Decimal, p Polarity, w Window) (*Scoped, error) {
	if p != Receivable && p != Payable {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolarity, p)
	}

	scoped, err := ScopePartial(txs, company, opening, p, w)
	if err != nil {
		return nil, err
	}

	if len(scoped.Rejected) > 0 {
		t := scoped.Rejected[0]
		return nil, fmt.Errorf("%w: %q (transaction %s)", ErrUnknownTransactionType, t.Type, t.ID)
	}

	return scoped, nil
}

// ScopePartial is Scope for best-effort reports: pre-window transactions of
// unknown type are skipped instead of failing the whole view.
func ScopePartial(txs []Transaction, company string, opening decimal.Decimal, p Polarity, w Window) (*Scoped, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	ascending := SortAscending(ForCompany(txs, company))
	if w.From == nil {
		var visible []Transaction
		for _, t := range ascending {
			if w.Contains(t.Date) {
				visible = append(visible, t)
			}
		}
		return &Scoped{Transactions: visible, EffectiveOpeningBalance: opening}, nil
	}

	from := Day(*w.From)

	var before, visible []Transaction
	for _, t := range ascending {
		switch {
		case Day(t.Date).Before(from):
			before = append(before, t)
		case w.Contains(t.Date):
			visible = append(visible, t)
		}
	}

	prior := FoldPartial(before, opening, p)

	return &Scoped{
		Transactions:            visible,
		EffectiveOpeningBalance: prior.ClosingBalance,
		Rejected:                prior.Rejected,
	}, nil
}
