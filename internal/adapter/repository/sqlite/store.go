// Package sqlite stores parties in a single SQLite file.
//
// The schema is created on open. Connections are capped at one, so a write
// transaction holds the database until it ends and ":memory:" databases are
// shared by every repository built on the same Store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/usecase"
)

const timestampLayout = time.RFC3339Nano

// ErrForeignTransaction is returned when a repository receives a transaction
// that was not started by a TxManager of this package.
var ErrForeignTransaction = errors.New("transaction does not belong to this store")

// Store owns the database handle.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path.
// Use ":memory:" for a throwaway database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_txlock=immediate&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS parties (
		id TEXT PRIMARY KEY,
		party_number INTEGER NOT NULL,
		name TEXT NOT NULL,
		party_type TEXT NOT NULL CHECK (party_type IN ('customer', 'supplier')),
		phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		opening_balance TEXT NOT NULL,
		current_balance TEXT NOT NULL,
		balance_company TEXT NOT NULL DEFAULT '',
		total_purchases TEXT NOT NULL,
		total_payments TEXT NOT NULL,
		created_date TEXT NOT NULL,
		last_transaction_date TEXT,
		UNIQUE (party_type, party_number)
	);

	CREATE INDEX IF NOT EXISTS idx_parties_type_status
		ON parties(party_type, status);

	CREATE TABLE IF NOT EXISTS party_transactions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		party_id TEXT NOT NULL REFERENCES parties(id) ON DELETE CASCADE,
		transaction_date TEXT NOT NULL,
		transaction_type TEXT NOT NULL,
		company_name TEXT NOT NULL,
		amount TEXT NOT NULL,
		payment_received TEXT NOT NULL,
		paid_amount TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		voucher_ref TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_party_transactions_party
		ON party_transactions(party_id, seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{db: store.db}
}

// Begin starts an immediate transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx wraps *sql.Tx to implement usecase.Transaction.
type Tx struct {
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit(_ context.Context) error {
	return t.tx.Commit()
}

// Rollback rolls back the transaction.
func (t *Tx) Rollback(_ context.Context) error {
	return t.tx.Rollback()
}

func sqlTx(tx usecase.Transaction) (*sql.Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, ErrForeignTransaction
	}
	return t.tx, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func formatDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(domain.DateLayout), Valid: true}
}

func parseDate(s string) (time.Time, error) {
	d, err := domain.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored date %q: %w", s, err)
	}
	return d, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid stored amount %q: %w", s, err)
	}
	return d, nil
}
