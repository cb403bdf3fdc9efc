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

// PartyUseCase handles party lifecycle.
type PartyUseCase struct {
	partyRepo PartyRepository
	idGen     IDGenerator
	retrier   Retrier
	cache     Cache
	events    eventEmitter
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewPartyUseCase creates a new PartyUseCase.
func NewPartyUseCase(
	partyRepo PartyRepository,
	idGen IDGenerator,
	notifier Notifier,
	cache Cache,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *PartyUseCase {
	return &PartyUseCase{
		partyRepo: partyRepo,
		idGen:     idGen,
		cache:     cache,
		events:    eventEmitter{notifier: notifier, idGen: idGen, logger: logger},
		metrics:   metrics,
		logger:    logger,
	}
}

// WithRetrier retries party inserts that lose the race for the next party number.
func (uc *PartyUseCase) WithRetrier(r Retrier) *PartyUseCase {
	uc.retrier = r
	return uc
}

// CreatePartyInput represents input for creating a party.
type CreatePartyInput struct {
	Name           string
	Type           domain.PartyType
	Phone          string
	Address        string
	Status         domain.PartyStatus
	OpeningBalance decimal.Decimal
}

// CreateParty creates a new party. Its cached balance starts at the opening balance.
func (uc *PartyUseCase) CreateParty(ctx context.Context, input CreatePartyInput) (*domain.Party, error) {
	if err := domain.ValidatePartyName(input.Name); err != nil {
		return nil, domain.NewValidationError("name", err.Error(), err)
	}

	if !input.Type.Valid() {
		return nil, domain.NewValidationError("type", fmt.Sprintf("unknown party type %q", input.Type), domain.ErrInvalidPartyType)
	}

	if err := domain.ValidateOpeningBalance(input.OpeningBalance); err != nil {
		return nil, domain.NewValidationError("opening_balance", err.Error(), err)
	}

	status := input.Status
	if status == "" {
		status = domain.PartyStatusActive
	}
	if status != domain.PartyStatusActive && status != domain.PartyStatusInactive {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", status), domain.ErrInvalidStatus)
	}

	party := &domain.Party{
		ID:             uc.idGen.Generate(),
		Name:           strings.TrimSpace(input.Name),
		Type:           input.Type,
		Phone:          strings.TrimSpace(input.Phone),
		Address:        strings.TrimSpace(input.Address),
		Status:         status,
		OpeningBalance: input.OpeningBalance,
		CurrentBalance: input.OpeningBalance,
		TotalPurchases: decimal.Zero,
		TotalPayments:  decimal.Zero,
		CreatedDate:    time.Now().UTC(),
	}

	create := func() error { return uc.partyRepo.Create(ctx, party) }
	if uc.retrier != nil {
		if err := uc.retrier.Retry(ctx, create); err != nil {
			return nil, err
		}
	} else if err := create(); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PartiesCreated.WithLabelValues(string(party.Type)).Inc()
	}

	invalidateListStats(ctx, uc.cache, uc.logger)
	uc.events.emit(ctx, domain.EventTypePartyCreated, party, "", "")

	return party, nil
}

// GetParty retrieves a party with its transaction history.
func (uc *PartyUseCase) GetParty(ctx context.Context, id string) (*domain.Party, error) {
	return uc.partyRepo.GetByID(ctx, id)
}

// ListParties lists parties with pagination. Transactions are not loaded.
func (uc *PartyUseCase) ListParties(ctx context.Context, filter domain.PartyFilter) ([]*domain.Party, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, domain.NewValidationError("type", fmt.Sprintf("unknown party type %q", filter.Type), domain.ErrInvalidPartyType)
	}

	filter.Limit, filter.Offset, _ = domain.ValidatePagination(filter.Limit, filter.Offset)

	return uc.partyRepo.List(ctx, filter)
}

// Companies lists the operating companies a party has traded with.
func (uc *PartyUseCase) Companies(ctx context.Context, id string) ([]string, error) {
	party, err := uc.partyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	companies := party.Companies()
	if companies == nil {
		companies = []string{}
	}

	return companies, nil
}
