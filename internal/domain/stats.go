package domain

import "github.com/shopspring/decimal"

// Stats are the detail-view figures of one party for one company, always
// recomputed from the transaction history.
type Stats struct {
	Balance         decimal.Decimal
	TotalTransacted decimal.Decimal
	TotalPayments   decimal.Decimal
}

// ListStats are the list-view figures across many parties, read from the
// cached fields without touching transactions.
type ListStats struct {
	TotalBalance decimal.Decimal
	ActiveCount  int
	TotalCount   int
}

// RecomputedStats folds the whole company-scoped history of party from its
// stored opening balance.
func RecomputedStats(party *Party, company string) (Stats, error) {
	scoped := SortAscending(ForCompany(party.Transactions, company))

	ledger, err := Fold(scoped, party.OpeningBalance, party.Polarity())
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Balance:         ledger.ClosingBalance,
		TotalTransacted: decimal.Zero,
		TotalPayments:   decimal.Zero,
	}

	for _, t := range scoped {
		switch t.Type {
		case TransactionTypeSale, TransactionTypePurchase:
			stats.TotalTransacted = stats.TotalTransacted.Add(t.Amount)
			stats.TotalPayments = stats.TotalPayments.Add(t.Settled())
		case TransactionTypePayment:
			stats.TotalPayments = stats.TotalPayments.Add(t.Amount)
		}
	}

	return stats, nil
}

// CachedStats aggregates the cached balances of parties for list views.
func CachedStats(parties []*Party) ListStats {
	stats := ListStats{TotalBalance: decimal.Zero}

	for _, p := range parties {
		if p == nil {
			continue
		}

		stats.TotalCount++
		stats.TotalBalance = stats.TotalBalance.Add(p.CurrentBalance)
		if p.Status == PartyStatusActive {
			stats.ActiveCount++
		}
	}

	return stats
}
