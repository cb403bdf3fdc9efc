package domain_test

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/partyledger/internal/domain"
)

func TestRecomputedStats_Customer(t *testing.T) {
	party := &domain.Party{
		ID:             "party-1",
		Type:           domain.PartyTypeCustomer,
		OpeningBalance: dec("100"),
		Transactions: []domain.Transaction{
			sale("s1", "2024-01-01", "ACME", "1000", "300"),
			payment("p1", "2024-02-01", "ACME", "200"),
			refund("r1", "2024-02-10", "ACME", "50"),
			sale("g1", "2024-01-05", "Globex", "9999", "0"),
		},
	}

	stats, err := domain.RecomputedStats(party, "ACME")
	require.NoError(t, err)

	assertDecimal(t, "550", stats.Balance)
	assertDecimal(t, "1000", stats.TotalTransacted)
	assertDecimal(t, "500", stats.TotalPayments)
}

func TestRecomputedStats_Supplier(t *testing.T) {
	party := &domain.Party{
		Type: domain.PartyTypeSupplier,
		Transactions: []domain.Transaction{
			purchase("b1", "2024-01-01", "ACME", "2000", "500"),
			payment("p1", "2024-01-10", "ACME", "1500"),
		},
	}

	stats, err := domain.RecomputedStats(party, "ACME")
	require.NoError(t, err)

	assertDecimal(t, "0", stats.Balance)
	assertDecimal(t, "2000", stats.TotalTransacted)
	assertDecimal(t, "2000", stats.TotalPayments)
}

func TestRecomputedStats_Idempotent(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	party := &domain.Party{
		Type:           domain.PartyTypeCustomer,
		OpeningBalance: dec("12.34"),
		Transactions:   randomHistory(r, 80),
	}
	before := party.Clone()

	first, err := domain.RecomputedStats(party, "ACME")
	require.NoError(t, err)
	second, err := domain.RecomputedStats(party, "ACME")
	require.NoError(t, err)

	assert.True(t, first.Balance.Equal(second.Balance))
	assert.True(t, first.TotalTransacted.Equal(second.TotalTransacted))
	assert.True(t, first.TotalPayments.Equal(second.TotalPayments))
	assert.Equal(t, before.Transactions, party.Transactions, "input history must not be reordered")
}

func TestCachedStats(t *testing.T) {
	parties := []*domain.Party{
		{ID: "a", Status: domain.PartyStatusActive, CurrentBalance: dec("100")},
		{ID: "b", Status: domain.PartyStatusInactive, CurrentBalance: dec("-40")},
		nil,
		{ID: "c", Status: domain.PartyStatusActive, CurrentBalance: dec("0.5")},
	}

	stats := domain.CachedStats(parties)

	assertDecimal(t, "60.5", stats.TotalBalance)
	assert.Equal(t, 2, stats.ActiveCount)
	assert.Equal(t, 3, stats.TotalCount)

	again := domain.CachedStats(parties)
	assert.True(t, stats.TotalBalance.Equal(again.TotalBalance))
	assert.Equal(t, stats.ActiveCount, again.ActiveCount)
}

func TestCachedStats_Empty(t *testing.T) {
	stats := domain.CachedStats(nil)
	assert.True(t, stats.TotalBalance.Equal(decimal.Zero))
	assert.Zero(t, stats.TotalCount)
}
