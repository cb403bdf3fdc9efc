package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/partyledger/internal/domain"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// IdempotencyPending marks a key claimed by a request still in flight.
var IdempotencyPending = []byte("processing")

// PartyRepository defines data access for parties.
// GetByID and GetByIDForUpdate return the party with its full transaction history.
type PartyRepository interface {
	Create(ctx context.Context, party *domain.Party) error
	GetByID(ctx context.Context, id string) (*domain.Party, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Party, error)
	UpdateCaches(ctx context.Context, tx Transaction, party *domain.Party) error
	List(ctx context.Context, filter domain.PartyFilter) ([]*domain.Party, error)
}

// LedgerTransactionRepository defines data access for the transactions of a party.
type LedgerTransactionRepository interface {
	Create(ctx context.Context, tx Transaction, partyID string, t *domain.Transaction) error
	Delete(ctx context.Context, tx Transaction, partyID, id string) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Notifier tells the outside world a party changed. Delivery is best-effort
// and happens after commit.
type Notifier interface {
	Publish(ctx context.Context, event domain.PartyEvent) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a pending claim so the request can be retried.
	Release(ctx context.Context, key string) error
}
