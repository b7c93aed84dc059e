package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
)

var (
	_ repositories.AccountRepository = (*AccountRepository)(nil)
	_ repositories.AssetRepository   = (*AssetRepository)(nil)
)

// AccountRepository handles MongoDB operations for ledger accounts
type AccountRepository struct {
	collection *mongo.Collection
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{
		collection: db.Collection(accountsCollection),
	}
}

// FindByID finds an account by ID
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&account); err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

// Save inserts or replaces an account
func (r *AccountRepository) Save(ctx context.Context, account *models.Account) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": account.ID}, account, opts)
	return translateError(err)
}

// AssetRepository handles MongoDB operations for asset holdings
type AssetRepository struct {
	collection *mongo.Collection
}

// NewAssetRepository creates a new AssetRepository
func NewAssetRepository(db *mongo.Database) *AssetRepository {
	return &AssetRepository{
		collection: db.Collection(assetsCollection),
	}
}

// FindByID finds the holding of an asset
func (r *AssetRepository) FindByID(ctx context.Context, assetID string) (*models.AssetHolding, error) {
	var holding models.AssetHolding
	if err := r.collection.FindOne(ctx, bson.M{"_id": assetID}).Decode(&holding); err != nil {
		return nil, translateError(err)
	}
	return &holding, nil
}

// FindByAccount lists the assets held by an account
func (r *AssetRepository) FindByAccount(ctx context.Context, account string) ([]*models.AssetHolding, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"account": account}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	holdings := []*models.AssetHolding{}
	if err := cursor.All(ctx, &holdings); err != nil {
		return nil, err
	}
	return holdings, nil
}

// Save inserts or replaces an asset holding
func (r *AssetRepository) Save(ctx context.Context, holding *models.AssetHolding) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": holding.AssetID}, holding, opts)
	return translateError(err)
}
