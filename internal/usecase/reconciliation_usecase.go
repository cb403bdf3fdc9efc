package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/infrastructure/metrics"
)

// ReconciliationUseCase compares cached party figures with their history.
type ReconciliationUseCase struct {
	partyRepo PartyRepository
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(partyRepo PartyRepository, metrics *metrics.Metrics, logger zerolog.Logger) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		partyRepo: partyRepo,
		metrics:   metrics,
		logger:    logger,
	}
}

// ReconciliationResult represents the result of a reconciliation check.
// The balance is only compared when Company is the company the cached
// balance belongs to; the totals always are.
type ReconciliationResult struct {
	PartyID             string
	Company             string
	BalanceCompared     bool
	CachedBalance       decimal.Decimal
	RecomputedBalance   decimal.Decimal
	Difference          decimal.Decimal
	CachedPurchases     decimal.Decimal
	RecomputedPurchases decimal.Decimal
	CachedPayments      decimal.Decimal
	RecomputedPayments  decimal.Decimal
	Unreadable          int
	IsReconciled        bool
	LastChecked         time.Time
}

// ReconcileParty refolds the party's history for company and compares it
// with the cached fields. An empty company checks the cached balance company.
func (uc *ReconciliationUseCase) ReconcileParty(ctx context.Context, partyID, company string) (*ReconciliationResult, error) {
	party, err := uc.partyRepo.GetByID(ctx, partyID)
	if err != nil {
		return nil, err
	}

	result := reconcile(party, company)
	uc.record(result)

	return result, nil
}

func reconcile(party *domain.Party, company string) *ReconciliationResult {
	company = strings.TrimSpace(company)
	if company == "" {
		company = party.BalanceCompany
	}

	ledger := domain.FoldPartial(
		domain.SortAscending(domain.ForCompany(party.Transactions, company)),
		party.OpeningBalance,
		party.Polarity(),
	)
	purchases, payments := domain.Totals(party.Transactions)

	result := &ReconciliationResult{
		PartyID:             party.ID,
		Company:             company,
		BalanceCompared:     company == party.BalanceCompany,
		CachedBalance:       party.CurrentBalance,
		RecomputedBalance:   ledger.ClosingBalance,
		Difference:          decimal.Zero,
		CachedPurchases:     party.TotalPurchases,
		RecomputedPurchases: purchases,
		CachedPayments:      party.TotalPayments,
		RecomputedPayments:  payments,
		Unreadable:          len(ledger.Rejected),
		LastChecked:         time.Now().UTC(),
	}

	if result.BalanceCompared {
		result.Difference = party.CurrentBalance.Sub(ledger.ClosingBalance)
	}

	result.IsReconciled = result.Difference.IsZero() &&
		purchases.Equal(party.TotalPurchases) &&
		payments.Equal(party.TotalPayments) &&
		result.Unreadable == 0

	return result
}

func (uc *ReconciliationUseCase) record(result *ReconciliationResult) {
	outcome := "reconciled"
	if !result.IsReconciled {
		outcome = "drift"

		uc.logger.Warn().
			Str("party_id", result.PartyID).
			Str("company", result.Company).
			Str("cached_balance", result.CachedBalance.String()).
			Str("recomputed_balance", result.RecomputedBalance.String()).
			Int("unreadable", result.Unreadable).
			Msg("party caches disagree with history")
	}

	if uc.metrics != nil {
		uc.metrics.ReconciliationChecks.WithLabelValues(outcome).Inc()
	}
}

// ReconcileAllParties reconciles every party against its cached balance company.
func (uc *ReconciliationUseCase) ReconcileAllParties(ctx context.Context) ([]*ReconciliationResult, error) {
	var results []*ReconciliationResult

	for offset := 0; ; offset += ReconcileBatchSize {
		parties, err := uc.partyRepo.List(ctx, domain.PartyFilter{Limit: ReconcileBatchSize, Offset: offset})
		if err != nil {
			return nil, err
		}

		for _, p := range parties {
			result, err := uc.ReconcileParty(ctx, p.ID, "")
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile party %s: %w", p.ID, err)
			}
			results = append(results, result)
		}

		if len(parties) < ReconcileBatchSize {
			break
		}
	}

	return results, nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalParties      int
	ReconciledParties int
	Discrepancies     []*ReconciliationResult
	CheckedAt         time.Time
}

// GenerateReconciliationReport generates a comprehensive reconciliation report
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	results, err := uc.ReconcileAllParties(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalParties:  len(results),
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     time.Now().UTC(),
	}

	for _, result := range results {
		if result.IsReconciled {
			report.ReconciledParties++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	return report, nil
}
