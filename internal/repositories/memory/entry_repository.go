package memory

import (
	"context"
	"sort"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
)

// EntryRepository implements repositories.EntryRepository in memory
type EntryRepository struct {
	store *Store
}

// NewEntryRepository creates a new EntryRepository
func NewEntryRepository(store *Store) repositories.EntryRepository {
	return &EntryRepository{store: store}
}

// Create stores a new entry. Entries are unique by id and by
// (lottery, entry number).
func (r *EntryRepository) Create(ctx context.Context, entry *models.Entry) error {
	defer r.store.lock(ctx)()
	if _, exists := r.store.entries[entry.ID]; exists {
		return repositories.ErrDuplicate
	}
	for _, e := range r.store.entries {
		if e.LotteryID == entry.LotteryID && e.EntryNumber == entry.EntryNumber {
			return repositories.ErrDuplicate
		}
	}
	stored := *entry
	r.store.entries[entry.ID] = &stored
	return nil
}

// FindByID finds an entry by ID
func (r *EntryRepository) FindByID(ctx context.Context, id string) (*models.Entry, error) {
	defer r.store.lock(ctx)()
	entry, ok := r.store.entries[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	found := *entry
	return &found, nil
}

// FindByLotteryAndNumber finds the entry holding a given number
func (r *EntryRepository) FindByLotteryAndNumber(ctx context.Context, lotteryID string, entryNumber uint64) (*models.Entry, error) {
	defer r.store.lock(ctx)()
	for _, e := range r.store.entries {
		if e.LotteryID == lotteryID && e.EntryNumber == entryNumber {
			found := *e
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// FindByLottery lists the entries of a lottery ordered by entry number
func (r *EntryRepository) FindByLottery(ctx context.Context, lotteryID string, p, limit int) ([]*models.Entry, error) {
	return r.filter(ctx, func(e *models.Entry) bool { return e.LotteryID == lotteryID }, p, limit), nil
}

// FindByOwner lists the entries bought by owner
func (r *EntryRepository) FindByOwner(ctx context.Context, owner string, p, limit int) ([]*models.Entry, error) {
	return r.filter(ctx, func(e *models.Entry) bool { return e.Owner == owner }, p, limit), nil
}

func (r *EntryRepository) filter(ctx context.Context, keep func(*models.Entry) bool, p, limit int) []*models.Entry {
	defer r.store.lock(ctx)()
	var entries []*models.Entry
	for _, e := range r.store.entries {
		if keep(e) {
			found := *e
			entries = append(entries, &found)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LotteryID != entries[j].LotteryID {
			return entries[i].LotteryID < entries[j].LotteryID
		}
		return entries[i].EntryNumber < entries[j].EntryNumber
	})
	return page(entries, p, limit)
}
