package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/infrastructure/postgres"
	"github.com/iho/partyledger/internal/infrastructure/postgres/generated"
)

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool    *pgxpool.Pool
	Queries *generated.Queries
	t       *testing.T
}

// NewTestDB connects to DATABASE_URL and migrates it. The test is skipped
// when DATABASE_URL is not set.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	// Tests run from their package directory.
	migrationsPath := "migrations"
	for _, candidate := range []string{"../migrations", "../../migrations"} {
		if _, err := os.Stat(migrationsPath); err == nil {
			break
		}
		migrationsPath = candidate
	}

	if err := postgres.NewMigrator(dbURL, migrationsPath, zerolog.Nop()).Up(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dbURL, 20, 2)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	return &TestDB{
		Pool:    pool,
		Queries: generated.New(pool),
		t:       t,
	}
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `TRUNCATE TABLE party_transactions, parties CASCADE`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// CreateTestParty inserts an active party whose cached balance is its
// opening balance.
func (db *TestDB) CreateTestParty(ctx context.Context, name string, partyType domain.PartyType, opening decimal.Decimal) *domain.Party {
	db.t.Helper()

	now := time.Now().UTC()

	var numeric pgtype.Numeric
	_ = numeric.Scan(opening.String())

	row, err := db.Queries.CreateParty(ctx, generated.CreatePartyParams{
		ID:             GenerateID(),
		Name:           name,
		PartyType:      string(partyType),
		Status:         string(domain.PartyStatusActive),
		OpeningBalance: numeric,
		CurrentBalance: numeric,
		CreatedAt:      pgtype.Timestamptz{Time: now, Valid: true},
	})
	if err != nil {
		db.t.Fatalf("failed to create test party: %v", err)
	}

	return &domain.Party{
		ID:             row.ID,
		PartyNumber:    row.PartyNumber,
		Name:           name,
		Type:           partyType,
		Status:         domain.PartyStatusActive,
		OpeningBalance: opening,
		CurrentBalance: opening,
		TotalPurchases: decimal.Zero,
		TotalPayments:  decimal.Zero,
		CreatedDate:    now,
	}
}

// InsertRawTransaction writes a history row without touching the party
// caches, as imported or legacy data would.
func (db *TestDB) InsertRawTransaction(ctx context.Context, partyID string, date time.Time, txType, company string, amount decimal.Decimal) string {
	db.t.Helper()

	id := GenerateID()
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO party_transactions (id, party_id, tx_date, tx_type, company_name, amount) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, partyID, date, txType, company, amount.String())
	if err != nil {
		db.t.Fatalf("failed to insert transaction: %v", err)
	}

	return id
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return ulid.Make().String()
}
