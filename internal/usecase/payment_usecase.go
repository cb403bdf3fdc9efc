package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/infrastructure/metrics"
)

// PaymentUseCase records payments against a party's company balance.
type PaymentUseCase struct {
	txManager TransactionManager
	partyRepo PartyRepository
	txRepo    LedgerTransactionRepository
	idGen     IDGenerator
	retrier   Retrier
	cache     Cache
	events    eventEmitter
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	clock     func() time.Time
}

// NewPaymentUseCase creates a new PaymentUseCase. retrier, cache and notifier may be nil.
func NewPaymentUseCase(
	txManager TransactionManager,
	partyRepo PartyRepository,
	txRepo LedgerTransactionRepository,
	idGen IDGenerator,
	retrier Retrier,
	notifier Notifier,
	cache Cache,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *PaymentUseCase {
	return &PaymentUseCase{
		txManager: txManager,
		partyRepo: partyRepo,
		txRepo:    txRepo,
		idGen:     idGen,
		retrier:   retrier,
		cache:     cache,
		events:    eventEmitter{notifier: notifier, idGen: idGen, logger: logger},
		metrics:   metrics,
		logger:    logger,
		clock:     time.Now,
	}
}

// RecordPaymentInput represents input for recording a payment.
type RecordPaymentInput struct {
	PartyID string
	domain.PaymentInput
}

// PaymentResult is the stored payment and the party as it stands afterwards.
type PaymentResult struct {
	Party   *domain.Party
	Payment *domain.Transaction
}

// RecordPayment appends a payment dated today and rewrites the party caches
// in one database transaction. The party row is locked for the duration, so
// concurrent payments against the same party serialize.
func (uc *PaymentUseCase) RecordPayment(ctx context.Context, input RecordPaymentInput) (*PaymentResult, error) {
	start := time.Now()

	// Validate inputs before starting transaction
	if err := input.Validate(); err != nil {
		uc.recordError("validation")
		return nil, err
	}

	var result *PaymentResult
	op := func() error {
		var err error
		result, err = uc.recordPayment(ctx, input)
		return err
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, op)
	} else {
		err = op()
	}
	if err != nil {
		uc.recordError(errorType(err))
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PaymentsRecorded.WithLabelValues(string(result.Party.Type)).Inc()
		uc.metrics.PaymentAmount.Observe(result.Payment.Amount.InexactFloat64())
		uc.metrics.PaymentDuration.Observe(time.Since(start).Seconds())
	}

	uc.logger.Info().
		Str("party_id", result.Party.ID).
		Str("company", result.Payment.CompanyName).
		Str("payment_id", result.Payment.ID).
		Str("amount", result.Payment.Amount.String()).
		Str("balance", result.Party.CurrentBalance.String()).
		Msg("payment recorded")

	invalidateListStats(ctx, uc.cache, uc.logger)
	uc.events.emit(ctx, domain.EventTypePaymentRecorded, result.Party, result.Payment.CompanyName, result.Payment.ID)

	return result, nil
}

func (uc *PaymentUseCase) recordPayment(ctx context.Context, input RecordPaymentInput) (*PaymentResult, error) {
	// Add transaction timeout
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	party, err := uc.partyRepo.GetByIDForUpdate(txCtx, tx, input.PartyID)
	if err != nil {
		return nil, err
	}

	updated, payment, err := domain.RecordPayment(party, input.PaymentInput, uc.idGen.Generate(), uc.clock())
	if err != nil {
		return nil, err
	}

	if err := uc.txRepo.Create(txCtx, tx, party.ID, payment); err != nil {
		return nil, err
	}

	if err := uc.partyRepo.UpdateCaches(txCtx, tx, updated); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return &PaymentResult{Party: updated, Payment: payment}, nil
}

func (uc *PaymentUseCase) recordError(kind string) {
	if uc.metrics != nil {
		uc.metrics.PaymentErrors.WithLabelValues(kind).Inc()
	}
}

func errorType(err error) string {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		return "validation"
	case errors.Is(err, domain.ErrPartyNotFound):
		return "party_not_found"
	case errors.Is(err, domain.ErrUnknownTransactionType):
		return "unreadable_history"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal"
	}
}
