package usecase_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/partyledger/internal/adapter/repository/memory"
	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/infrastructure/idgen"
	"github.com/iho/partyledger/internal/usecase"
)

type memoryStack struct {
	parties      *usecase.PartyUseCase
	payments     *usecase.PaymentUseCase
	transactions *usecase.TransactionUseCase
	ledger       *usecase.LedgerUseCase
	stats        *usecase.StatsUseCase
	reconcile    *usecase.ReconciliationUseCase
}

func newMemoryStack() memoryStack {
	store := memory.NewStore()
	partyRepo := memory.NewPartyRepository(store)
	txRepo := memory.NewTransactionRepository(store)
	txMgr := memory.NewTxManager(store)
	ids := idgen.NewULIDGenerator()
	log := zerolog.Nop()

	return memoryStack{
		parties:      usecase.NewPartyUseCase(partyRepo, ids, nil, nil, nil, log),
		payments:     usecase.NewPaymentUseCase(txMgr, partyRepo, txRepo, ids, nil, nil, nil, nil, log),
		transactions: usecase.NewTransactionUseCase(txMgr, partyRepo, txRepo, ids, nil, nil, nil, nil, log),
		ledger:       usecase.NewLedgerUseCase(partyRepo, nil, log),
		stats:        usecase.NewStatsUseCase(partyRepo, nil, 0, nil, log),
		reconcile:    usecase.NewReconciliationUseCase(partyRepo, nil, log),
	}
}

// Every write path must leave the cached balance equal to a fresh fold of
// the stored history for the cached company.
func TestCachesMatchHistoryAfterRandomWrites(t *testing.T) {
	for _, partyType := range []domain.PartyType{domain.PartyTypeCustomer, domain.PartyTypeSupplier} {
		t.Run(string(partyType), func(t *testing.T) {
			ctx := context.Background()
			s := newMemoryStack()
			r := rand.New(rand.NewSource(7))
			companies := []string{"ACME", "Globex", "Initech"}

			party, err := s.parties.CreateParty(ctx, usecase.CreatePartyInput{
				Name:           "Random " + string(partyType),
				Type:           partyType,
				OpeningBalance: dec("125.50"),
			})
			require.NoError(t, err)

			var live []string
			for i := 0; i < 200; i++ {
				company := companies[r.Intn(len(companies))]
				amount := decimal.New(r.Int63n(100000)+1, -2)

				switch op := r.Intn(10); {
				case op < 4:
					res, err := s.transactions.AddTransaction(ctx, usecase.AddTransactionInput{
						PartyID:         party.ID,
						Date:            day("2024-01-01").AddDate(0, 0, r.Intn(200)),
						Type:            []domain.TransactionType{domain.TransactionTypeSale, domain.TransactionTypePurchase, domain.TransactionTypeReturn}[r.Intn(3)],
						CompanyName:     company,
						Amount:          amount,
						PaymentReceived: decimal.New(r.Int63n(amount.Shift(2).IntPart()+1), -2),
						PaidAmount:      decimal.New(r.Int63n(amount.Shift(2).IntPart()+1), -2),
					})
					require.NoError(t, err)
					live = append(live, res.Transaction.ID)
				case op < 8:
					res, err := s.payments.RecordPayment(ctx, usecase.RecordPaymentInput{
						PartyID:      party.ID,
						PaymentInput: domain.PaymentInput{Amount: amount, Company: company},
					})
					require.NoError(t, err)
					live = append(live, res.Payment.ID)
				default:
					if len(live) == 0 {
						continue
					}
					idx := r.Intn(len(live))
					_, err := s.transactions.DeleteTransaction(ctx, party.ID, live[idx])
					require.NoError(t, err)
					live = append(live[:idx], live[idx+1:]...)
				}

				stored, err := s.parties.GetParty(ctx, party.ID)
				require.NoError(t, err)
				require.Len(t, stored.Transactions, len(live))

				result, err := s.reconcile.ReconcileParty(ctx, party.ID, "")
				require.NoError(t, err)
				require.True(t, result.IsReconciled, "step %d: cached %s, recomputed %s", i, result.CachedBalance, result.RecomputedBalance)

				if stored.BalanceCompany == "" {
					continue
				}

				report, err := s.ledger.Report(ctx, usecase.ReportInput{PartyID: party.ID, Company: stored.BalanceCompany})
				require.NoError(t, err)
				require.True(t, report.Ledger.ClosingBalance.Equal(stored.CurrentBalance), fmt.Sprintf("step %d", i))

				stats, err := s.stats.PartyStats(ctx, party.ID, "")
				require.NoError(t, err)
				require.True(t, stats.Balance.Equal(stored.CurrentBalance))
			}
		})
	}
}

func TestListStatsOverMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStack()

	for i, opening := range []string{"10", "-4", "20.5"} {
		_, err := s.parties.CreateParty(ctx, usecase.CreatePartyInput{
			Name:           fmt.Sprintf("Customer %d", i),
			Type:           domain.PartyTypeCustomer,
			OpeningBalance: dec(opening),
		})
		require.NoError(t, err)
	}
	_, err := s.parties.CreateParty(ctx, usecase.CreatePartyInput{
		Name:           "Dormant supplier",
		Type:           domain.PartyTypeSupplier,
		Status:         domain.PartyStatusInactive,
		OpeningBalance: dec("1000"),
	})
	require.NoError(t, err)

	customers, err := s.stats.ListStats(ctx, domain.PartyFilter{Type: domain.PartyTypeCustomer})
	require.NoError(t, err)
	assert.Equal(t, 3, customers.TotalCount)
	assert.Equal(t, 3, customers.ActiveCount)
	assert.True(t, dec("26.5").Equal(customers.TotalBalance))

	all, err := s.stats.ListStats(ctx, domain.PartyFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, all.TotalCount)
	assert.Equal(t, 3, all.ActiveCount)
}
