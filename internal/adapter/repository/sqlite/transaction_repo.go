package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/usecase"
)

// TransactionRepository implements usecase.LedgerTransactionRepository.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
// Every method runs inside a transaction, so it holds no handle of its own.
func NewTransactionRepository(_ *Store) *TransactionRepository {
	return &TransactionRepository{}
}

// Create appends t to the party's history inside tx.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, partyID string, t *domain.Transaction) error {
	q, err := sqlTx(tx)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO party_transactions (
			id, party_id, transaction_date, transaction_type, company_name,
			amount, payment_received, paid_amount, description, voucher_ref
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		partyID,
		t.Date.Format(domain.DateLayout),
		string(t.Type),
		t.CompanyName,
		t.Amount.String(),
		t.PaymentReceived.String(),
		t.PaidAmount.String(),
		t.Description,
		t.VoucherRef,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// Delete removes a transaction of the party inside tx.
func (r *TransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, partyID, id string) error {
	q, err := sqlTx(tx)
	if err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `DELETE FROM party_transactions WHERE party_id = ? AND id = ?`, partyID, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

func listTransactions(ctx context.Context, q querier, partyID string) ([]domain.Transaction, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, transaction_date, transaction_type, company_name,
			amount, payment_received, paid_amount, description, voucher_ref
		FROM party_transactions
		WHERE party_id = ?
		ORDER BY seq`, partyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}

	return txs, rows.Err()
}

func scanTransaction(rows *sql.Rows) (domain.Transaction, error) {
	var (
		t                      domain.Transaction
		date, txType           string
		amount, received, paid string
	)

	err := rows.Scan(
		&t.ID,
		&date,
		&txType,
		&t.CompanyName,
		&amount,
		&received,
		&paid,
		&t.Description,
		&t.VoucherRef,
	)
	if err != nil {
		return t, err
	}

	t.Type = domain.TransactionType(txType)
	if t.Date, err = parseDate(date); err != nil {
		return t, err
	}
	if t.Amount, err = parseDecimal(amount); err != nil {
		return t, err
	}
	if t.PaymentReceived, err = parseDecimal(received); err != nil {
		return t, err
	}
	if t.PaidAmount, err = parseDecimal(paid); err != nil {
		return t, err
	}

	return t, nil
}
