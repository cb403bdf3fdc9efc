package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/infrastructure/metrics"
)

// LedgerUseCase renders running-balance ledgers for one party and company.
type LedgerUseCase struct {
	partyRepo PartyRepository
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(partyRepo PartyRepository, metrics *metrics.Metrics, logger zerolog.Logger) *LedgerUseCase {
	return &LedgerUseCase{
		partyRepo: partyRepo,
		metrics:   metrics,
		logger:    logger,
	}
}

// ReportInput selects the ledger to render.
type ReportInput struct {
	PartyID     string
	Company     string
	Window      domain.Window
	NewestFirst bool
}

// LedgerReport is a rendered ledger together with the party it belongs to.
type LedgerReport struct {
	Party   *domain.Party
	Company string
	Window  domain.Window
	Ledger  *domain.Ledger
}

// Report folds the party's history for one company and window. Unreadable
// historical rows do not fail the report: they are left out and the ledger
// is flagged Incomplete.
func (uc *LedgerUseCase) Report(ctx context.Context, input ReportInput) (*LedgerReport, error) {
	company := strings.TrimSpace(input.Company)
	if err := domain.ValidateCompany(company); err != nil {
		return nil, domain.NewValidationError("company", err.Error(), err)
	}

	if err := input.Window.Validate(); err != nil {
		return nil, err
	}

	party, err := uc.partyRepo.GetByID(ctx, input.PartyID)
	if err != nil {
		return nil, err
	}

	scoped, err := domain.ScopePartial(party.Transactions, company, party.OpeningBalance, party.Polarity(), input.Window)
	if err != nil {
		return nil, err
	}

	ledger := domain.FoldPartial(scoped.Transactions, scoped.EffectiveOpeningBalance, party.Polarity())
	if len(scoped.Rejected) > 0 {
		ledger.Rejected = append(scoped.Rejected, ledger.Rejected...)
		ledger.Incomplete = true
	}

	if input.NewestFirst {
		ledger.Entries = ledger.Newest()
	}

	uc.record(party, company, ledger)

	return &LedgerReport{
		Party:   party,
		Company: company,
		Window:  input.Window,
		Ledger:  ledger,
	}, nil
}

func (uc *LedgerUseCase) record(party *domain.Party, company string, ledger *domain.Ledger) {
	outcome := "complete"
	if ledger.Incomplete {
		outcome = "incomplete"

		ids := make([]string, 0, len(ledger.Rejected))
		for _, t := range ledger.Rejected {
			ids = append(ids, t.ID)
		}

		uc.logger.Warn().
			Str("party_id", party.ID).
			Str("company", company).
			Strs("rejected_transactions", ids).
			Msg("ledger rendered without unreadable transactions")
	}

	if uc.metrics != nil {
		uc.metrics.LedgerReports.WithLabelValues(outcome).Inc()
		uc.metrics.LedgerRejectedTotal.Add(float64(len(ledger.Rejected)))
	}
}
