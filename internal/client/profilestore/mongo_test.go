package profilestore

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get found", func(mt *mtest.T) {
		store := NewMongoWithCollection(mt.Coll)
		ts := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1"},
			{Key: "uid", Value: "u1"},
			{Key: "firstName", Value: "Ann"},
			{Key: "birthday", Value: bson.D{{Key: "day", Value: int32(3)}}},
			{Key: "interests", Value: bson.A{"go", "chess"}},
			{Key: "createdAt", Value: primitive.NewDateTimeFromTime(ts)},
			{Key: "updatedAt", Value: primitive.NewDateTimeFromTime(ts)},
		}))

		p, err := store.Get(context.Background(), "u1")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Ann", p.Fields.String("firstName"))
		assert.Equal(t, map[string]any{"day": int32(3)}, p.Fields["birthday"])
		assert.Equal(t, []any{"go", "chess"}, p.Fields["interests"])
		assert.NotContains(t, p.Fields, "_id")
		assert.NotContains(t, p.Fields, "createdAt")
		assert.True(t, ts.Equal(p.CreatedAt))
	})

	mt.Run("get missing", func(mt *mtest.T) {
		store := NewMongoWithCollection(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		p, err := store.Get(context.Background(), "ghost")
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	mt.Run("create", func(mt *mtest.T) {
		store := NewMongoWithCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "u1"}}}},
		))

		err := store.Create(context.Background(), "u1", models.Fields{"firstName": "Ann"})
		require.NoError(t, err)

		ev := mt.GetStartedEvent()
		require.NotNil(t, ev)
		assert.Equal(t, "update", ev.CommandName)
		assert.True(t, ev.Command.Lookup("updates", "0", "upsert").Boolean())
		assert.Equal(t, "Ann", ev.Command.Lookup("updates", "0", "u", "$set", "firstName").StringValue())
		_, err = ev.Command.LookupErr("updates", "0", "u", "$setOnInsert", "createdAt")
		assert.NoError(t, err)
	})

	mt.Run("update", func(mt *mtest.T) {
		store := NewMongoWithCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		require.NoError(t, store.Update(context.Background(), "u1", models.Fields{"username": "ann"}))
	})

	mt.Run("update missing", func(mt *mtest.T) {
		store := NewMongoWithCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := store.Update(context.Background(), "u1", models.Fields{"username": "ann"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	mt.Run("update server error", func(mt *mtest.T) {
		store := NewMongoWithCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Message: "boom",
		}))

		err := store.Update(context.Background(), "u1", models.Fields{"username": "ann"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}
