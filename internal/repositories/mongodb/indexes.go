package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	lotteriesCollection = "lotteries"
	entriesCollection   = "entries"
	accountsCollection  = "accounts"
	assetsCollection    = "asset_holdings"
	usersCollection     = "users"
)

// EnsureIndexes creates the indexes the repositories rely on. The unique
// (lotteryId, entryNumber) index backs the one-entry-per-number rule.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		entriesCollection: {
			{
				Keys:    bson.D{{Key: "lotteryId", Value: 1}, {Key: "entryNumber", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		lotteriesCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		assetsCollection: {
			{Keys: bson.D{{Key: "account", Value: 1}}},
		},
		usersCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}
