package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
)

// Compile-time check to ensure LotteryRepository implements the interface
var _ repositories.LotteryRepository = (*LotteryRepository)(nil)

// LotteryRepository handles MongoDB operations for Lottery
type LotteryRepository struct {
	collection *mongo.Collection
}

// NewLotteryRepository creates a new LotteryRepository
func NewLotteryRepository(db *mongo.Database) *LotteryRepository {
	return &LotteryRepository{
		collection: db.Collection(lotteriesCollection),
	}
}

// Create inserts a new lottery
func (r *LotteryRepository) Create(ctx context.Context, lottery *models.Lottery) error {
	lottery.CreatedAt = time.Now()
	lottery.UpdatedAt = lottery.CreatedAt
	_, err := r.collection.InsertOne(ctx, lottery)
	return translateError(err)
}

// FindByID finds a lottery by ID
func (r *LotteryRepository) FindByID(ctx context.Context, id string) (*models.Lottery, error) {
	var lottery models.Lottery
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&lottery)
	if err != nil {
		return nil, translateError(err)
	}
	return &lottery, nil
}

// FindAll lists lotteries, newest first, optionally filtered by status
func (r *LotteryRepository) FindAll(ctx context.Context, status models.LotteryStatus, page, limit int) ([]*models.Lottery, error) {
	skip, size := repositories.Pagination(page, limit)
	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(size)).
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	lotteries := []*models.Lottery{}
	if err := cursor.All(ctx, &lotteries); err != nil {
		return nil, err
	}
	return lotteries, nil
}

// IncrementTicketsSold bumps ticketsSold if it still equals expected
func (r *LotteryRepository) IncrementTicketsSold(ctx context.Context, id string, expected uint64) error {
	filter := bson.M{
		"_id":         id,
		"ticketsSold": expected,
		"status":      models.LotteryStatusActive,
	}
	update := bson.M{
		"$inc": bson.M{"ticketsSold": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	return r.conditionalUpdate(ctx, id, filter, update)
}

// SetWinner records the winner and completes the lottery
func (r *LotteryRepository) SetWinner(ctx context.Context, id string, winner string) error {
	filter := bson.M{
		"_id":    id,
		"winner": nil,
		"status": models.LotteryStatusActive,
	}
	update := bson.M{"$set": bson.M{
		"winner":    winner,
		"status":    models.LotteryStatusCompleted,
		"updatedAt": time.Now(),
	}}
	return r.conditionalUpdate(ctx, id, filter, update)
}

// SetStatus moves the lottery from one status to another
func (r *LotteryRepository) SetStatus(ctx context.Context, id string, from, to models.LotteryStatus) error {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}}
	return r.conditionalUpdate(ctx, id, filter, update)
}

// conditionalUpdate applies update when filter matches. A miss is reported as
// ErrNotFound when the lottery is gone and ErrConflict otherwise.
func (r *LotteryRepository) conditionalUpdate(ctx context.Context, id string, filter, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return translateError(err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if count == 0 {
		return repositories.ErrNotFound
	}
	return repositories.ErrConflict
}
