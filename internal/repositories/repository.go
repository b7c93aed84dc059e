package repositories

import (
	"context"
	"errors"

	"github.com/ArowuTest/raffle-backend/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a record with the same key already exists
	ErrDuplicate = errors.New("record already exists")
	// ErrConflict is returned when a conditional write found the record changed
	ErrConflict = errors.New("record was modified concurrently")
)

// Transactor runs fn as one all-or-nothing unit. Repository calls made with
// the ctx handed to fn join the transaction. Nested calls reuse the outer
// transaction. fn may be retried and must not keep side effects outside it.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// LotteryRepository defines the interface for lottery data operations
type LotteryRepository interface {
	Create(ctx context.Context, lottery *models.Lottery) error
	FindByID(ctx context.Context, id string) (*models.Lottery, error)
	FindAll(ctx context.Context, status models.LotteryStatus, page, limit int) ([]*models.Lottery, error)
	// IncrementTicketsSold bumps ticketsSold by one if it still equals expected
	// and the lottery is still active. Returns ErrConflict otherwise.
	IncrementTicketsSold(ctx context.Context, id string, expected uint64) error
	// SetWinner records the winner and completes the lottery if no winner was
	// recorded yet. Returns ErrConflict otherwise.
	SetWinner(ctx context.Context, id string, winner string) error
	// SetStatus moves the lottery from one status to another.
	// Returns ErrConflict if the current status is not from.
	SetStatus(ctx context.Context, id string, from, to models.LotteryStatus) error
}

// EntryRepository defines the interface for entry data operations
type EntryRepository interface {
	Create(ctx context.Context, entry *models.Entry) error
	FindByID(ctx context.Context, id string) (*models.Entry, error)
	FindByLotteryAndNumber(ctx context.Context, lotteryID string, entryNumber uint64) (*models.Entry, error)
	FindByLottery(ctx context.Context, lotteryID string, page, limit int) ([]*models.Entry, error)
	FindByOwner(ctx context.Context, owner string, page, limit int) ([]*models.Entry, error)
}

// AccountRepository defines the interface for ledger account operations
type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	Save(ctx context.Context, account *models.Account) error
}

// AssetRepository defines the interface for asset holding operations
type AssetRepository interface {
	FindByID(ctx context.Context, assetID string) (*models.AssetHolding, error)
	FindByAccount(ctx context.Context, account string) ([]*models.AssetHolding, error)
	Save(ctx context.Context, holding *models.AssetHolding) error
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Pagination clamps page and limit to sane values and returns the skip count
func Pagination(page, limit int) (skip, size int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return (page - 1) * limit, limit
}
