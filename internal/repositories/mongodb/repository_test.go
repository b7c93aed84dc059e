package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
)

func toDoc(t *testing.T, v interface{}) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func sampleLottery() *models.Lottery {
	return &models.Lottery{
		ID:             "lottery-1",
		Creator:        "creator-1",
		TicketPrice:    100,
		StartTime:      1000,
		EndTime:        2000,
		CorrelationTag: models.CorrelationTag{1, 2, 3},
		PrizeReference: "prize-1",
		TicketsSold:    3,
		Status:         models.LotteryStatusActive,
		CreatedAt:      time.Unix(1000, 0).UTC(),
		UpdatedAt:      time.Unix(1000, 0).UTC(),
	}
}

func TestLotteryRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find by id decodes lottery", func(mt *mtest.T) {
		repo := NewLotteryRepository(mt.DB)
		want := sampleLottery()
		ns := mt.DB.Name() + "." + lotteriesCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(t, want)))

		got, err := repo.FindByID(context.Background(), want.ID)
		require.NoError(t, err)
		assert.Equal(t, want.CorrelationTag, got.CorrelationTag)
		assert.Equal(t, want.TicketsSold, got.TicketsSold)
		assert.Equal(t, models.LotteryStatusActive, got.Status)
		assert.Nil(t, got.Winner)
	})

	mt.Run("find by id maps missing document", func(mt *mtest.T) {
		repo := NewLotteryRepository(mt.DB)
		ns := mt.DB.Name() + "." + lotteriesCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByID(context.Background(), "missing")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	mt.Run("create maps duplicate key", func(mt *mtest.T) {
		repo := NewLotteryRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.Create(context.Background(), sampleLottery())
		assert.ErrorIs(t, err, repositories.ErrDuplicate)
	})

	mt.Run("increment succeeds when counter matches", func(mt *mtest.T) {
		repo := NewLotteryRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		require.NoError(t, repo.IncrementTicketsSold(context.Background(), "lottery-1", 3))
	})

	mt.Run("increment reports conflict when counter moved", func(mt *mtest.T) {
		repo := NewLotteryRepository(mt.DB)
		ns := mt.DB.Name() + "." + lotteriesCollection
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)

		err := repo.IncrementTicketsSold(context.Background(), "lottery-1", 2)
		assert.ErrorIs(t, err, repositories.ErrConflict)
	})

	mt.Run("set winner reports not found for unknown lottery", func(mt *mtest.T) {
		repo := NewLotteryRepository(mt.DB)
		ns := mt.DB.Name() + "." + lotteriesCollection
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: 0}}),
		)

		err := repo.SetWinner(context.Background(), "missing", "winner-1")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestEntryRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("list by lottery", func(mt *mtest.T) {
		repo := NewEntryRepository(mt.DB)
		ns := mt.DB.Name() + "." + entriesCollection
		first := models.Entry{ID: "e0", Owner: "alice", LotteryID: "lottery-1", EntryNumber: 0}
		second := models.Entry{ID: "e1", Owner: "bob", LotteryID: "lottery-1", EntryNumber: 1}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(t, first), toDoc(t, second)))

		entries, err := repo.FindByLottery(context.Background(), "lottery-1", 1, 20)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "bob", entries[1].Owner)
		assert.Equal(t, uint64(1), entries[1].EntryNumber)
	})

	mt.Run("duplicate entry number is rejected", func(mt *mtest.T) {
		repo := NewEntryRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.Create(context.Background(), &models.Entry{ID: "e2", LotteryID: "lottery-1", EntryNumber: 1})
		assert.ErrorIs(t, err, repositories.ErrDuplicate)
	})
}

func TestAccountRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("save upserts", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "alice"}}}},
		))

		err := repo.Save(context.Background(), &models.Account{ID: "alice", Controller: "alice", Balance: 500})
		require.NoError(t, err)
	})

	mt.Run("find by id", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)
		ns := mt.DB.Name() + "." + accountsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			toDoc(t, models.Account{ID: "alice", Controller: "alice", Balance: 500})))

		account, err := repo.FindByID(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, uint64(500), account.Balance)
	})
}
