package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/usecase"
)

const partyColumns = `id, party_number, name, party_type, phone, address, status,
	opening_balance, current_balance, balance_company, total_purchases,
	total_payments, created_date, last_transaction_date`

// PartyRepository implements usecase.PartyRepository.
type PartyRepository struct {
	db *sql.DB
}

// NewPartyRepository creates a new PartyRepository.
func NewPartyRepository(store *Store) *PartyRepository {
	return &PartyRepository{db: store.db}
}

// Create inserts a party and assigns the next number for its type.
func (r *PartyRepository) Create(ctx context.Context, party *domain.Party) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO parties (`+partyColumns+`)
		VALUES (?, (SELECT COALESCE(MAX(party_number), 0) + 1 FROM parties WHERE party_type = ?),
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING party_number`,
		party.ID,
		string(party.Type),
		party.Name,
		string(party.Type),
		party.Phone,
		party.Address,
		string(party.Status),
		party.OpeningBalance.String(),
		party.CurrentBalance.String(),
		party.BalanceCompany,
		party.TotalPurchases.String(),
		party.TotalPayments.String(),
		party.CreatedDate.UTC().Format(timestampLayout),
		formatDate(party.LastTransactionDate),
	).Scan(&party.PartyNumber)
	if err != nil {
		return fmt.Errorf("failed to create party: %w", err)
	}

	return nil
}

// GetByID retrieves a party with its history.
func (r *PartyRepository) GetByID(ctx context.Context, id string) (*domain.Party, error) {
	return getParty(ctx, r.db, id)
}

// GetByIDForUpdate retrieves a party inside tx. The immediate transaction
// already holds the write lock.
func (r *PartyRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Party, error) {
	q, err := sqlTx(tx)
	if err != nil {
		return nil, err
	}
	return getParty(ctx, q, id)
}

// UpdateCaches stores the cached fields of party inside tx.
func (r *PartyRepository) UpdateCaches(ctx context.Context, tx usecase.Transaction, party *domain.Party) error {
	q, err := sqlTx(tx)
	if err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		UPDATE parties
		SET current_balance = ?, balance_company = ?, total_purchases = ?,
			total_payments = ?, last_transaction_date = ?
		WHERE id = ?`,
		party.CurrentBalance.String(),
		party.BalanceCompany,
		party.TotalPurchases.String(),
		party.TotalPayments.String(),
		formatDate(party.LastTransactionDate),
		party.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update party caches: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrPartyNotFound
	}

	return nil
}

// List returns parties ordered by type and number, without transactions.
func (r *PartyRepository) List(ctx context.Context, filter domain.PartyFilter) ([]*domain.Party, error) {
	var (
		where []string
		args  []any
	)
	if filter.Type != "" {
		where = append(where, "party_type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + partyColumns + ` FROM parties`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY party_type, party_number LIMIT ? OFFSET ?`

	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list parties: %w", err)
	}
	defer rows.Close()

	parties := make([]*domain.Party, 0)
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		parties = append(parties, p)
	}

	return parties, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanParty(row scanner) (*domain.Party, error) {
	var (
		p                                     domain.Party
		partyType, status, created            string
		opening, current, purchases, payments string
		lastDate                              sql.NullString
	)

	err := row.Scan(
		&p.ID,
		&p.PartyNumber,
		&p.Name,
		&partyType,
		&p.Phone,
		&p.Address,
		&status,
		&opening,
		&current,
		&p.BalanceCompany,
		&purchases,
		&payments,
		&created,
		&lastDate,
	)
	if err != nil {
		return nil, err
	}

	p.Type = domain.PartyType(partyType)
	p.Status = domain.PartyStatus(status)

	if p.OpeningBalance, err = parseDecimal(opening); err != nil {
		return nil, err
	}
	if p.CurrentBalance, err = parseDecimal(current); err != nil {
		return nil, err
	}
	if p.TotalPurchases, err = parseDecimal(purchases); err != nil {
		return nil, err
	}
	if p.TotalPayments, err = parseDecimal(payments); err != nil {
		return nil, err
	}
	if p.CreatedDate, err = time.Parse(timestampLayout, created); err != nil {
		return nil, fmt.Errorf("invalid stored timestamp %q: %w", created, err)
	}
	if lastDate.Valid {
		d, err := parseDate(lastDate.String)
		if err != nil {
			return nil, err
		}
		p.LastTransactionDate = &d
	}

	return &p, nil
}

func getParty(ctx context.Context, q querier, id string) (*domain.Party, error) {
	row := q.QueryRowContext(ctx, `SELECT `+partyColumns+` FROM parties WHERE id = ?`, id)

	party, err := scanParty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPartyNotFound
		}
		return nil, fmt.Errorf("failed to get party: %w", err)
	}

	party.Transactions, err = listTransactions(ctx, q, id)
	if err != nil {
		return nil, err
	}

	return party, nil
}
