package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// ListStatsTTL is how long list-view aggregates stay cached between writes
	ListStatsTTL = 30 * time.Second

	// ReconcileBatchSize is the page size used when reconciling every party
	ReconcileBatchSize = 500
)
