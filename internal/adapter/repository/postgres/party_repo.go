package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/infrastructure/postgres/generated"
	"github.com/iho/partyledger/internal/usecase"
)

type dbPool interface {
	generated.DBTX
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// PartyRepository implements usecase.PartyRepository.
type PartyRepository struct {
	pool    dbPool
	queries *generated.Queries
}

// NewPartyRepository creates a new PartyRepository.
func NewPartyRepository(pool *pgxpool.Pool) *PartyRepository {
	return newPartyRepositoryWithPool(pool)
}

func newPartyRepositoryWithPool(pool dbPool) *PartyRepository {
	return &PartyRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Create creates a new party and fills in its assigned number.
func (r *PartyRepository) Create(ctx context.Context, party *domain.Party) error {
	row, err := r.queries.CreateParty(ctx, generated.CreatePartyParams{
		ID:             party.ID,
		Name:           party.Name,
		PartyType:      string(party.Type),
		Phone:          party.Phone,
		Address:        party.Address,
		Status:         string(party.Status),
		OpeningBalance: decimalToNumeric(party.OpeningBalance),
		CurrentBalance: decimalToNumeric(party.CurrentBalance),
		CreatedAt:      timeToPgTimestamptz(party.CreatedDate),
	})
	if err != nil {
		return err
	}

	party.PartyNumber = row.PartyNumber

	return nil
}

// GetByID retrieves a party and its history from one consistent snapshot.
func (r *PartyRepository) GetByID(ctx context.Context, id string) (*domain.Party, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	party, err := loadParty(ctx, generated.New(tx), id, false)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return party, nil
}

// GetByIDForUpdate retrieves a party and locks its row until tx ends.
func (r *PartyRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Party, error) {
	q, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	return loadParty(ctx, q, id, true)
}

// UpdateCaches stores the cached fields of party inside tx.
func (r *PartyRepository) UpdateCaches(ctx context.Context, tx usecase.Transaction, party *domain.Party) error {
	q, err := queriesFor(tx)
	if err != nil {
		return err
	}

	n, err := q.UpdatePartyCaches(ctx, generated.UpdatePartyCachesParams{
		ID:                  party.ID,
		CurrentBalance:      decimalToNumeric(party.CurrentBalance),
		BalanceCompany:      party.BalanceCompany,
		TotalPurchases:      decimalToNumeric(party.TotalPurchases),
		TotalPayments:       decimalToNumeric(party.TotalPayments),
		LastTransactionDate: dateToPgDate(party.LastTransactionDate),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrPartyNotFound
	}

	return nil
}

// List returns parties without their transactions. A zero limit lists all.
func (r *PartyRepository) List(ctx context.Context, filter domain.PartyFilter) ([]*domain.Party, error) {
	limit := int32(filter.Limit)
	if filter.Limit <= 0 || filter.Limit > math.MaxInt32 {
		limit = math.MaxInt32
	}

	rows, err := r.queries.ListParties(ctx, generated.ListPartiesParams{
		PartyType: string(filter.Type),
		Status:    string(filter.Status),
		Limit:     limit,
		Offset:    int32(filter.Offset),
	})
	if err != nil {
		return nil, err
	}

	parties := make([]*domain.Party, len(rows))
	for i, row := range rows {
		parties[i] = rowToParty(row)
	}

	return parties, nil
}

func loadParty(ctx context.Context, q *generated.Queries, id string, forUpdate bool) (*domain.Party, error) {
	get := q.GetPartyByID
	if forUpdate {
		get = q.GetPartyByIDForUpdate
	}

	row, err := get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPartyNotFound
		}

		return nil, err
	}

	txRows, err := q.ListPartyTransactions(ctx, id)
	if err != nil {
		return nil, err
	}

	party := rowToParty(row)
	if len(txRows) > 0 {
		party.Transactions = make([]domain.Transaction, len(txRows))
		for i, t := range txRows {
			party.Transactions[i] = rowToTransaction(t)
		}
	}

	return party, nil
}
