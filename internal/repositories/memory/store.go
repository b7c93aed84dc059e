// Package memory keeps every collection in process memory. It backs local
// development and the test suites, and honours the same transaction contract
// as the MongoDB implementation.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
)

// Compile-time check to ensure Store implements Transactor
var _ repositories.Transactor = (*Store)(nil)

type txKey struct{}

// Store holds all collections behind one mutex
type Store struct {
	mu        sync.Mutex
	lotteries map[string]*models.Lottery
	entries   map[string]*models.Entry
	accounts  map[string]*models.Account
	assets    map[string]*models.AssetHolding
	users     map[string]*models.User
}

type snapshot struct {
	lotteries map[string]*models.Lottery
	entries   map[string]*models.Entry
	accounts  map[string]*models.Account
	assets    map[string]*models.AssetHolding
	users     map[string]*models.User
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		lotteries: make(map[string]*models.Lottery),
		entries:   make(map[string]*models.Entry),
		accounts:  make(map[string]*models.Account),
		assets:    make(map[string]*models.AssetHolding),
		users:     make(map[string]*models.User),
	}
}

// WithTransaction holds the store lock for the whole of fn and restores the
// previous contents if fn fails.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTransaction(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) inTransaction(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock takes the store lock unless ctx already runs inside a transaction
func (s *Store) lock(ctx context.Context) func() {
	if s.inTransaction(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Records are replaced, never mutated in place, so a shallow copy of each map
// is a consistent snapshot.
func (s *Store) snapshot() snapshot {
	return snapshot{
		lotteries: maps.Clone(s.lotteries),
		entries:   maps.Clone(s.entries),
		accounts:  maps.Clone(s.accounts),
		assets:    maps.Clone(s.assets),
		users:     maps.Clone(s.users),
	}
}

func (s *Store) restore(snap snapshot) {
	s.lotteries = snap.lotteries
	s.entries = snap.entries
	s.accounts = snap.accounts
	s.assets = snap.assets
	s.users = snap.users
}

func page[T any](items []T, page, limit int) []T {
	skip, size := repositories.Pagination(page, limit)
	if skip >= len(items) {
		return []T{}
	}
	end := skip + size
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end]
}
