package memory

import (
	"context"
	"sort"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
)

// AccountRepository implements repositories.AccountRepository in memory
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(store *Store) repositories.AccountRepository {
	return &AccountRepository{store: store}
}

// FindByID finds an account by ID
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	defer r.store.lock(ctx)()
	account, ok := r.store.accounts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	found := *account
	return &found, nil
}

// Save inserts or replaces an account
func (r *AccountRepository) Save(ctx context.Context, account *models.Account) error {
	defer r.store.lock(ctx)()
	stored := *account
	r.store.accounts[account.ID] = &stored
	return nil
}

// AssetRepository implements repositories.AssetRepository in memory
type AssetRepository struct {
	store *Store
}

// NewAssetRepository creates a new AssetRepository
func NewAssetRepository(store *Store) repositories.AssetRepository {
	return &AssetRepository{store: store}
}

// FindByID finds the holding of an asset
func (r *AssetRepository) FindByID(ctx context.Context, assetID string) (*models.AssetHolding, error) {
	defer r.store.lock(ctx)()
	holding, ok := r.store.assets[assetID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	found := *holding
	return &found, nil
}

// FindByAccount lists the assets held by an account
func (r *AssetRepository) FindByAccount(ctx context.Context, account string) ([]*models.AssetHolding, error) {
	defer r.store.lock(ctx)()
	holdings := []*models.AssetHolding{}
	for _, h := range r.store.assets {
		if h.Account == account {
			found := *h
			holdings = append(holdings, &found)
		}
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].AssetID < holdings[j].AssetID })
	return holdings, nil
}

// Save inserts or replaces an asset holding
func (r *AssetRepository) Save(ctx context.Context, holding *models.AssetHolding) error {
	defer r.store.lock(ctx)()
	stored := *holding
	r.store.assets[holding.AssetID] = &stored
	return nil
}
