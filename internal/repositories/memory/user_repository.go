package memory

import (
	"context"
	"strings"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
)

// UserRepository implements repositories.UserRepository in memory
type UserRepository struct {
	store *Store
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(store *Store) repositories.UserRepository {
	return &UserRepository{store: store}
}

// Create stores a new user. Emails are unique, case-insensitively.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	defer r.store.lock(ctx)()
	if _, exists := r.store.users[user.ID]; exists {
		return repositories.ErrDuplicate
	}
	for _, u := range r.store.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repositories.ErrDuplicate
		}
	}
	stored := *user
	r.store.users[user.ID] = &stored
	return nil
}

// FindByEmail finds a user by email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	defer r.store.lock(ctx)()
	for _, u := range r.store.users {
		if strings.EqualFold(u.Email, email) {
			found := *u
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	defer r.store.lock(ctx)()
	user, ok := r.store.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	found := *user
	return &found, nil
}
