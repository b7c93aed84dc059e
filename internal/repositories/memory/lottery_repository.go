package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
)

// LotteryRepository implements repositories.LotteryRepository in memory
type LotteryRepository struct {
	store *Store
}

// NewLotteryRepository creates a new LotteryRepository
func NewLotteryRepository(store *Store) repositories.LotteryRepository {
	return &LotteryRepository{store: store}
}

// Create stores a new lottery
func (r *LotteryRepository) Create(ctx context.Context, lottery *models.Lottery) error {
	defer r.store.lock(ctx)()
	if _, exists := r.store.lotteries[lottery.ID]; exists {
		return repositories.ErrDuplicate
	}
	now := time.Now()
	lottery.CreatedAt = now
	lottery.UpdatedAt = now
	r.store.lotteries[lottery.ID] = lottery.Clone()
	return nil
}

// FindByID finds a lottery by ID
func (r *LotteryRepository) FindByID(ctx context.Context, id string) (*models.Lottery, error) {
	defer r.store.lock(ctx)()
	lottery, ok := r.store.lotteries[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return lottery.Clone(), nil
}

// FindAll lists lotteries, newest first, optionally filtered by status
func (r *LotteryRepository) FindAll(ctx context.Context, status models.LotteryStatus, p, limit int) ([]*models.Lottery, error) {
	defer r.store.lock(ctx)()
	lotteries := make([]*models.Lottery, 0, len(r.store.lotteries))
	for _, l := range r.store.lotteries {
		if status != "" && l.Status != status {
			continue
		}
		lotteries = append(lotteries, l.Clone())
	}
	sort.Slice(lotteries, func(i, j int) bool {
		if lotteries[i].CreatedAt.Equal(lotteries[j].CreatedAt) {
			return lotteries[i].ID < lotteries[j].ID
		}
		return lotteries[i].CreatedAt.After(lotteries[j].CreatedAt)
	})
	return page(lotteries, p, limit), nil
}

// IncrementTicketsSold bumps the sold counter if it still equals expected
func (r *LotteryRepository) IncrementTicketsSold(ctx context.Context, id string, expected uint64) error {
	defer r.store.lock(ctx)()
	current, ok := r.store.lotteries[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if current.TicketsSold != expected || current.Status != models.LotteryStatusActive {
		return repositories.ErrConflict
	}
	next := current.Clone()
	next.TicketsSold++
	next.UpdatedAt = time.Now()
	r.store.lotteries[id] = next
	return nil
}

// SetWinner records the winner and completes the lottery
func (r *LotteryRepository) SetWinner(ctx context.Context, id string, winner string) error {
	defer r.store.lock(ctx)()
	current, ok := r.store.lotteries[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if current.Winner != nil || current.Status != models.LotteryStatusActive {
		return repositories.ErrConflict
	}
	next := current.Clone()
	next.Winner = &winner
	next.Status = models.LotteryStatusCompleted
	next.UpdatedAt = time.Now()
	r.store.lotteries[id] = next
	return nil
}

// SetStatus moves the lottery from one status to another
func (r *LotteryRepository) SetStatus(ctx context.Context, id string, from, to models.LotteryStatus) error {
	defer r.store.lock(ctx)()
	current, ok := r.store.lotteries[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if current.Status != from {
		return repositories.ErrConflict
	}
	next := current.Clone()
	next.Status = to
	next.UpdatedAt = time.Now()
	r.store.lotteries[id] = next
	return nil
}
