package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/infrastructure/metrics"
)

// TransactionUseCase handles manual entry and deletion of sales, purchases
// and returns. Every write refolds the party history before the caches are
// stored.
type TransactionUseCase struct {
	txManager TransactionManager
	partyRepo PartyRepository
	txRepo    LedgerTransactionRepository
	idGen     IDGenerator
	retrier   Retrier
	cache     Cache
	events    eventEmitter
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	partyRepo PartyRepository,
	txRepo LedgerTransactionRepository,
	idGen IDGenerator,
	retrier Retrier,
	notifier Notifier,
	cache Cache,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *TransactionUseCase {
	return &TransactionUseCase{
		txManager: txManager,
		partyRepo: partyRepo,
		txRepo:    txRepo,
		idGen:     idGen,
		retrier:   retrier,
		cache:     cache,
		events:    eventEmitter{notifier: notifier, idGen: idGen, logger: logger},
		metrics:   metrics,
		logger:    logger,
	}
}

// AddTransactionInput represents input for entering a transaction.
type AddTransactionInput struct {
	PartyID         string
	Date            time.Time
	Type            domain.TransactionType
	CompanyName     string
	Amount          decimal.Decimal
	PaymentReceived decimal.Decimal
	PaidAmount      decimal.Decimal
	Description     string
	VoucherRef      string
}

// TransactionResult is the affected transaction and the party afterwards.
type TransactionResult struct {
	Party       *domain.Party
	Transaction *domain.Transaction
}

// AddTransaction appends a sale, purchase or return.
func (uc *TransactionUseCase) AddTransaction(ctx context.Context, input AddTransactionInput) (*TransactionResult, error) {
	entry := domain.Transaction{
		Date:            input.Date,
		Type:            input.Type,
		CompanyName:     input.CompanyName,
		Amount:          input.Amount,
		PaymentReceived: input.PaymentReceived,
		PaidAmount:      input.PaidAmount,
		Description:     input.Description,
		VoucherRef:      input.VoucherRef,
	}

	// Validate inputs before starting transaction
	if err := domain.ValidateEntry(entry); err != nil {
		return nil, err
	}
	entry.ID = uc.idGen.Generate()

	var result *TransactionResult
	err := uc.retry(ctx, func() error {
		var err error
		result, err = uc.inTx(ctx, input.PartyID, func(txCtx context.Context, tx Transaction, party *domain.Party) (*TransactionResult, error) {
			updated, err := domain.AddTransaction(party, entry)
			if err != nil {
				return nil, err
			}

			stored := updated.Transactions[len(updated.Transactions)-1]
			if err := uc.txRepo.Create(txCtx, tx, party.ID, &stored); err != nil {
				return nil, err
			}

			return &TransactionResult{Party: updated, Transaction: &stored}, nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsAdded.WithLabelValues(string(result.Transaction.Type)).Inc()
	}

	invalidateListStats(ctx, uc.cache, uc.logger)
	uc.events.emit(ctx, domain.EventTypeTransactionAdded, result.Party, result.Transaction.CompanyName, result.Transaction.ID)

	return result, nil
}

// DeleteTransaction removes a transaction and rebuilds the caches from the
// remaining history. The cached balance stays on the company it was last
// written for unless that company no longer has any transactions.
func (uc *TransactionUseCase) DeleteTransaction(ctx context.Context, partyID, transactionID string) (*TransactionResult, error) {
	var result *TransactionResult
	err := uc.retry(ctx, func() error {
		var err error
		result, err = uc.inTx(ctx, partyID, func(txCtx context.Context, tx Transaction, party *domain.Party) (*TransactionResult, error) {
			remaining, removed, err := domain.RemoveTransaction(party, transactionID)
			if err != nil {
				return nil, err
			}

			company := party.BalanceCompany
			if len(domain.ForCompany(remaining.Transactions, company)) == 0 {
				company = removed.CompanyName
			}

			updated, err := domain.Recompute(remaining, company)
			if err != nil {
				return nil, err
			}

			if err := uc.txRepo.Delete(txCtx, tx, party.ID, transactionID); err != nil {
				return nil, err
			}

			return &TransactionResult{Party: updated, Transaction: removed}, nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsDeleted.Inc()
	}

	uc.logger.Info().
		Str("party_id", partyID).
		Str("transaction_id", transactionID).
		Str("balance", result.Party.CurrentBalance.String()).
		Msg("transaction deleted")

	invalidateListStats(ctx, uc.cache, uc.logger)
	uc.events.emit(ctx, domain.EventTypeTransactionDeleted, result.Party, result.Transaction.CompanyName, result.Transaction.ID)

	return result, nil
}

// inTx locks the party, runs mutate and stores the resulting caches.
func (uc *TransactionUseCase) inTx(
	ctx context.Context,
	partyID string,
	mutate func(txCtx context.Context, tx Transaction, party *domain.Party) (*TransactionResult, error),
) (*TransactionResult, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	party, err := uc.partyRepo.GetByIDForUpdate(txCtx, tx, partyID)
	if err != nil {
		return nil, err
	}

	result, err := mutate(txCtx, tx, party)
	if err != nil {
		return nil, err
	}

	if err := uc.partyRepo.UpdateCaches(txCtx, tx, result.Party); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return result, nil
}

func (uc *TransactionUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}
