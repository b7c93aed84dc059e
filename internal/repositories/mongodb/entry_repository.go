package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
)

// Compile-time check to ensure EntryRepository implements the interface
var _ repositories.EntryRepository = (*EntryRepository)(nil)

// EntryRepository handles MongoDB operations for Entry
type EntryRepository struct {
	collection *mongo.Collection
}

// NewEntryRepository creates a new EntryRepository
func NewEntryRepository(db *mongo.Database) *EntryRepository {
	return &EntryRepository{
		collection: db.Collection(entriesCollection),
	}
}

// Create inserts a new entry
func (r *EntryRepository) Create(ctx context.Context, entry *models.Entry) error {
	_, err := r.collection.InsertOne(ctx, entry)
	return translateError(err)
}

// FindByID finds an entry by ID
func (r *EntryRepository) FindByID(ctx context.Context, id string) (*models.Entry, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByLotteryAndNumber finds the entry holding a given number
func (r *EntryRepository) FindByLotteryAndNumber(ctx context.Context, lotteryID string, entryNumber uint64) (*models.Entry, error) {
	return r.findOne(ctx, bson.M{"lotteryId": lotteryID, "entryNumber": entryNumber})
}

// FindByLottery lists the entries of a lottery ordered by entry number
func (r *EntryRepository) FindByLottery(ctx context.Context, lotteryID string, page, limit int) ([]*models.Entry, error) {
	return r.find(ctx, bson.M{"lotteryId": lotteryID}, page, limit)
}

// FindByOwner lists the entries bought by owner
func (r *EntryRepository) FindByOwner(ctx context.Context, owner string, page, limit int) ([]*models.Entry, error) {
	return r.find(ctx, bson.M{"owner": owner}, page, limit)
}

func (r *EntryRepository) findOne(ctx context.Context, filter bson.M) (*models.Entry, error) {
	var entry models.Entry
	if err := r.collection.FindOne(ctx, filter).Decode(&entry); err != nil {
		return nil, translateError(err)
	}
	return &entry, nil
}

func (r *EntryRepository) find(ctx context.Context, filter bson.M, page, limit int) ([]*models.Entry, error) {
	skip, size := repositories.Pagination(page, limit)
	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(size)).
		SetSort(bson.D{{Key: "lotteryId", Value: 1}, {Key: "entryNumber", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []*models.Entry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
