package postgres

import (
	"context"

	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/infrastructure/postgres/generated"
	"github.com/iho/partyledger/internal/usecase"
)

// TransactionRepository implements usecase.LedgerTransactionRepository.
// Both operations run inside a caller's transaction.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{}
}

// Create stores t as the next transaction of the party.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, partyID string, t *domain.Transaction) error {
	q, err := queriesFor(tx)
	if err != nil {
		return err
	}

	return q.CreatePartyTransaction(ctx, generated.CreatePartyTransactionParams{
		ID:              t.ID,
		PartyID:         partyID,
		TxDate:          dateToPgDate(&t.Date),
		TxType:          string(t.Type),
		CompanyName:     t.CompanyName,
		Amount:          decimalToNumeric(t.Amount),
		PaymentReceived: decimalToNumeric(t.PaymentReceived),
		PaidAmount:      decimalToNumeric(t.PaidAmount),
		Description:     t.Description,
		VoucherRef:      t.VoucherRef,
	})
}

// Delete removes one transaction of the party.
func (r *TransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, partyID, id string) error {
	q, err := queriesFor(tx)
	if err != nil {
		return err
	}

	n, err := q.DeletePartyTransaction(ctx, generated.DeletePartyTransactionParams{
		PartyID: partyID,
		ID:      id,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}
