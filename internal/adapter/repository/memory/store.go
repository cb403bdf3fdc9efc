// Package memory keeps parties and their transactions in process memory.
// It backs tests and the single-process "memory" store driver.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/usecase"
)

// ErrForeignTransaction is returned when a repository receives a transaction
// that was not started by the same Store.
var ErrForeignTransaction = errors.New("transaction does not belong to this store")

// Store holds all data. A write transaction holds the store lock from Begin
// until Commit or Rollback, so writers serialize the way row locks would.
type Store struct {
	mu           sync.RWMutex
	parties      map[string]domain.Party
	transactions map[string][]domain.Transaction
	numbers      map[domain.PartyType]int64
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		parties:      make(map[string]domain.Party),
		transactions: make(map[string][]domain.Transaction),
		numbers:      make(map[domain.PartyType]int64),
	}
}

type snapshot struct {
	parties      map[string]domain.Party
	transactions map[string][]domain.Transaction
	numbers      map[domain.PartyType]int64
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		parties:      make(map[string]domain.Party, len(s.parties)),
		transactions: make(map[string][]domain.Transaction, len(s.transactions)),
		numbers:      make(map[domain.PartyType]int64, len(s.numbers)),
	}
	for k, v := range s.parties {
		snap.parties[k] = v
	}
	for k, v := range s.transactions {
		snap.transactions[k] = append([]domain.Transaction(nil), v...)
	}
	for k, v := range s.numbers {
		snap.numbers[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.parties = snap.parties
	s.transactions = snap.transactions
	s.numbers = snap.numbers
}

// loadLocked returns a detached copy of the party with its history.
func (s *Store) loadLocked(id string) (*domain.Party, error) {
	p, ok := s.parties[id]
	if !ok {
		return nil, domain.ErrPartyNotFound
	}

	party := p
	party.Transactions = append([]domain.Transaction(nil), s.transactions[id]...)
	return party.Clone(), nil
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin locks the store and remembers its state for Rollback.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.store.mu.Lock()
	return &Tx{store: m.store, snap: m.store.snapshot()}, nil
}

// Tx is a memory transaction.
type Tx struct {
	store *Store
	snap  snapshot
	done  bool
}

// Commit keeps the writes and releases the store.
func (t *Tx) Commit(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

// Rollback restores the state seen at Begin. It is a no-op after Commit.
func (t *Tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.restore(t.snap)
	t.store.mu.Unlock()
	return nil
}

func (s *Store) ownTx(tx usecase.Transaction) error {
	mt, ok := tx.(*Tx)
	if !ok || mt.store != s || mt.done {
		return ErrForeignTransaction
	}
	return nil
}

// PartyRepository implements usecase.PartyRepository.
type PartyRepository struct {
	store *Store
}

// NewPartyRepository creates a new PartyRepository.
func NewPartyRepository(store *Store) *PartyRepository {
	return &PartyRepository{store: store}
}

// Create stores a new party and assigns the next number for its type.
func (r *PartyRepository) Create(_ context.Context, party *domain.Party) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.numbers[party.Type]++
	party.PartyNumber = r.store.numbers[party.Type]

	stored := *party.Clone()
	stored.Transactions = nil
	r.store.parties[party.ID] = stored
	r.store.transactions[party.ID] = append([]domain.Transaction(nil), party.Transactions...)

	return nil
}

// GetByID retrieves a party with its history.
func (r *PartyRepository) GetByID(_ context.Context, id string) (*domain.Party, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.loadLocked(id)
}

// GetByIDForUpdate retrieves a party inside tx. The store is already locked.
func (r *PartyRepository) GetByIDForUpdate(_ context.Context, tx usecase.Transaction, id string) (*domain.Party, error) {
	if err := r.store.ownTx(tx); err != nil {
		return nil, err
	}

	return r.store.loadLocked(id)
}

// UpdateCaches stores the cached fields of party inside tx.
func (r *PartyRepository) UpdateCaches(_ context.Context, tx usecase.Transaction, party *domain.Party) error {
	if err := r.store.ownTx(tx); err != nil {
		return err
	}

	stored, ok := r.store.parties[party.ID]
	if !ok {
		return domain.ErrPartyNotFound
	}

	stored.CurrentBalance = party.CurrentBalance
	stored.BalanceCompany = party.BalanceCompany
	stored.TotalPurchases = party.TotalPurchases
	stored.TotalPayments = party.TotalPayments
	stored.LastTransactionDate = nil
	if party.LastTransactionDate != nil {
		d := *party.LastTransactionDate
		stored.LastTransactionDate = &d
	}
	r.store.parties[party.ID] = stored

	return nil
}

// List returns parties ordered by type and number, without transactions.
func (r *PartyRepository) List(_ context.Context, filter domain.PartyFilter) ([]*domain.Party, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	parties := make([]*domain.Party, 0, len(r.store.parties))
	for _, p := range r.store.parties {
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		parties = append(parties, p.Clone())
	}

	sort.Slice(parties, func(i, j int) bool {
		if parties[i].Type != parties[j].Type {
			return parties[i].Type < parties[j].Type
		}
		return parties[i].PartyNumber < parties[j].PartyNumber
	})

	if filter.Offset >= len(parties) {
		return []*domain.Party{}, nil
	}
	parties = parties[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(parties) {
		parties = parties[:filter.Limit]
	}

	return parties, nil
}

// TransactionRepository implements usecase.LedgerTransactionRepository.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// Create appends t to the party's history inside tx.
func (r *TransactionRepository) Create(_ context.Context, tx usecase.Transaction, partyID string, t *domain.Transaction) error {
	if err := r.store.ownTx(tx); err != nil {
		return err
	}

	if _, ok := r.store.parties[partyID]; !ok {
		return domain.ErrPartyNotFound
	}

	r.store.transactions[partyID] = append(r.store.transactions[partyID], *t)
	return nil
}

// Delete removes a transaction from the party's history inside tx.
func (r *TransactionRepository) Delete(_ context.Context, tx usecase.Transaction, partyID, id string) error {
	if err := r.store.ownTx(tx); err != nil {
		return err
	}

	txs := r.store.transactions[partyID]
	for i, t := range txs {
		if t.ID == id {
			r.store.transactions[partyID] = append(txs[:i:i], txs[i+1:]...)
			return nil
		}
	}

	return domain.ErrTransactionNotFound
}

// Seed stores a party together with history exactly as given, caches
// included. It exists to load snapshots and fixtures.
func (s *Store) Seed(party *domain.Party) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if party.PartyNumber > s.numbers[party.Type] {
		s.numbers[party.Type] = party.PartyNumber
	}

	stored := *party.Clone()
	stored.Transactions = nil
	s.parties[party.ID] = stored
	s.transactions[party.ID] = append([]domain.Transaction(nil), party.Transactions...)
}
