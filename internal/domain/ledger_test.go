package domain_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/partyledger/internal/domain"
)

func TestFold_SaleLeavesUnpaidBalance(t *testing.T) {
	ledger, err := domain.Fold([]domain.Transaction{
		sale("s1", "2024-01-01", "ACME", "1000", "300"),
	}, decimal.Zero, domain.Receivable)
	require.NoError(t, err)

	require.Len(t, ledger.Entries, 1)
	entry := ledger.Entries[0]
	assertDecimal(t, "700", entry.Debit)
	assertDecimal(t, "0", entry.Credit)
	assertDecimal(t, "700", entry.Balance)
	assertDecimal(t, "700", ledger.ClosingBalance)
}

func TestFold_PaymentSettlesSale(t *testing.T) {
	ledger, err := domain.Fold([]domain.Transaction{
		sale("s1", "2024-01-01", "ACME", "1000", "300"),
		payment("p1", "2024-02-01", "ACME", "700"),
	}, decimal.Zero, domain.Receivable)
	require.NoError(t, err)

	require.Len(t, ledger.Entries, 2)
	second := ledger.Entries[1]
	assertDecimal(t, "0", second.Debit)
	assertDecimal(t, "700", second.Credit)
	assertDecimal(t, "0", second.Balance)
	assertDecimal(t, "0", ledger.ClosingBalance)
	assertDecimal(t, "700", ledger.TotalDebit)
	assertDecimal(t, "700", ledger.TotalCredit)
}

func TestFold_SupplierPolarity(t *testing.T) {
	ledger, err := domain.Fold([]domain.Transaction{
		purchase("b1", "2024-01-01", "ACME", "2000", "500"),
		payment("p1", "2024-01-10", "ACME", "1500"),
	}, decimal.Zero, domain.Payable)
	require.NoError(t, err)

	require.Len(t, ledger.Entries, 2)
	assertDecimal(t, "1500", ledger.Entries[0].Credit)
	assertDecimal(t, "0", ledger.Entries[0].Debit)
	assertDecimal(t, "1500", ledger.Entries[0].Balance)

	assertDecimal(t, "1500", ledger.Entries[1].Debit)
	assertDecimal(t, "0", ledger.Entries[1].Credit)
	assertDecimal(t, "0", ledger.Entries[1].Balance)
	assertDecimal(t, "0", ledger.ClosingBalance)
}

func TestFold_PolarityMismatchChangesSign(t *testing.T) {
	txs := []domain.Transaction{purchase("b1", "2024-01-01", "ACME", "2000", "500")}

	payable, err := domain.Fold(txs, decimal.Zero, domain.Payable)
	require.NoError(t, err)
	receivable, err := domain.Fold(txs, decimal.Zero, domain.Receivable)
	require.NoError(t, err)

	assertDecimal(t, "1500", payable.ClosingBalance)
	assertDecimal(t, "-1500", receivable.ClosingBalance)
}

func TestFold_ReturnReducesBalance(t *testing.T) {
	tests := []struct {
		name     string
		polarity domain.Polarity
		txs      []domain.Transaction
		want     string
	}{
		{
			name:     "customer return",
			polarity: domain.Receivable,
			txs: []domain.Transaction{
				sale("s1", "2024-01-01", "ACME", "1000", "0"),
				refund("r1", "2024-01-05", "ACME", "250"),
			},
			want: "750",
		},
		{
			name:     "purchase return takes full amount",
			polarity: domain.Payable,
			txs: []domain.Transaction{
				purchase("b1", "2024-01-01", "ACME", "1000", "0"),
				refund("r1", "2024-01-05", "ACME", "400"),
			},
			want: "600",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, err := domain.Fold(tt.txs, decimal.Zero, tt.polarity)
			require.NoError(t, err)
			assertDecimal(t, tt.want, ledger.ClosingBalance)
		})
	}
}

func TestFold_MissingAmountsCountAsZero(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "s1", Date: day("2024-01-01"), Type: domain.TransactionTypeSale, CompanyName: "ACME"},
		{ID: "s2", Date: day("2024-01-02"), Type: domain.TransactionTypeSale, CompanyName: "ACME", Amount: dec("100")},
		{ID: "p1", Date: day("2024-01-03"), Type: domain.TransactionTypePayment, CompanyName: "ACME"},
	}

	ledger, err := domain.Fold(txs, dec("50"), domain.Receivable)
	require.NoError(t, err)

	assertDecimal(t, "50", ledger.Entries[0].Balance)
	assertDecimal(t, "150", ledger.Entries[1].Balance)
	assertDecimal(t, "150", ledger.ClosingBalance)
}

func TestFold_OverpaymentIsNotClamped(t *testing.T) {
	ledger, err := domain.Fold([]domain.Transaction{
		sale("s1", "2024-01-01", "ACME", "100", "150"),
	}, decimal.Zero, domain.Receivable)
	require.NoError(t, err)

	assertDecimal(t, "-50", ledger.Entries[0].Debit)
	assertDecimal(t, "-50", ledger.ClosingBalance)
}

func TestFold_UnknownTypeFails(t *testing.T) {
	txs := []domain.Transaction{
		sale("s1", "2024-01-01", "ACME", "100", "0"),
		{ID: "x1", Date: day("2024-01-02"), Type: "barter", CompanyName: "ACME", Amount: dec("10")},
	}

	_, err := domain.Fold(txs, decimal.Zero, domain.Receivable)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownTransactionType)
	assert.Contains(t, err.Error(), "x1")
}

func TestFold_UnknownPolarityFails(t *testing.T) {
	_, err := domain.Fold(nil, decimal.Zero, domain.Polarity(0))
	assert.ErrorIs(t, err, domain.ErrUnknownPolarity)
}

func TestFoldPartial_SkipsAndFlags(t *testing.T) {
	txs := []domain.Transaction{
		sale("s1", "2024-01-01", "ACME", "100", "0"),
		{ID: "x1", Date: day("2024-01-02"), Type: "barter", CompanyName: "ACME", Amount: dec("10")},
		payment("p1", "2024-01-03", "ACME", "40"),
	}

	ledger := domain.FoldPartial(txs, decimal.Zero, domain.Receivable)

	assert.True(t, ledger.Incomplete)
	require.Len(t, ledger.Rejected, 1)
	assert.Equal(t, "x1", ledger.Rejected[0].ID)
	require.Len(t, ledger.Entries, 2)
	assertDecimal(t, "60", ledger.ClosingBalance)
}

func TestFold_EmptyHistoryKeepsStartingBalance(t *testing.T) {
	ledger, err := domain.Fold(nil, dec("125.50"), domain.Payable)
	require.NoError(t, err)

	assert.Empty(t, ledger.Entries)
	assertDecimal(t, "125.50", ledger.OpeningBalance)
	assertDecimal(t, "125.50", ledger.ClosingBalance)
	assertDecimal(t, "0", ledger.TotalDebit)
}

func TestFold_BalanceIdentity(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		txs := domain.SortAscending(domain.ForCompany(randomHistory(r, 40), "ACME"))
		opening := decimal.New(r.Int63n(100000), -2)

		for _, polarity := range []domain.Polarity{domain.Receivable, domain.Payable} {
			full, err := domain.Fold(txs, opening, polarity)
			require.NoError(t, err)

			sum := opening
			for _, tx := range txs {
				delta, err := domain.Delta(tx, polarity)
				require.NoError(t, err)
				sum = sum.Add(delta)
			}
			assertDecimal(t, sum.String(), full.ClosingBalance, "round", round)

			split := r.Intn(len(txs) + 1)
			first, err := domain.Fold(txs[:split], opening, polarity)
			require.NoError(t, err)
			second, err := domain.Fold(txs[split:], first.ClosingBalance, polarity)
			require.NoError(t, err)
			assertDecimal(t, full.ClosingBalance.String(), second.ClosingBalance, "round", round, "split", split)
		}
	}
}

func TestFold_NewestReversesWithoutResorting(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	txs := domain.SortAscending(domain.ForCompany(randomHistory(r, 60), "Globex"))

	ledger, err := domain.Fold(txs, decimal.Zero, domain.Receivable)
	require.NoError(t, err)

	newest := ledger.Newest()
	require.Len(t, newest, len(ledger.Entries))

	type point struct {
		id      string
		day     string
		balance string
	}
	ascending := make(map[point]int)
	for _, e := range ledger.Entries {
		ascending[point{e.Transaction.ID, e.Transaction.Date.Format(domain.DateLayout), e.Balance.String()}]++
	}
	for i, e := range newest {
		p := point{e.Transaction.ID, e.Transaction.Date.Format(domain.DateLayout), e.Balance.String()}
		assert.Positive(t, ascending[p])
		ascending[p]--
		assert.Equal(t, ledger.Entries[len(newest)-1-i].Transaction.ID, e.Transaction.ID)
	}
}

func TestSortAscending_StableOnSameDay(t *testing.T) {
	txs := []domain.Transaction{
		sale("c", "2024-03-01", "ACME", "1", "0"),
		sale("a", "2024-01-01", "ACME", "1", "0"),
		sale("d", "2024-03-01", "ACME", "1", "0"),
		sale("b", "2024-01-01", "ACME", "1", "0"),
	}
	// same calendar day, different clock time
	txs[2].Date = txs[2].Date.Add(5 * time.Hour)

	sorted := domain.SortAscending(txs)

	ids := make([]string, 0, len(sorted))
	for _, tx := range sorted {
		ids = append(ids, tx.ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
	assert.Equal(t, "c", txs[0].ID, "input must not be reordered")
}
