package store

import (
	"context"
	"testing"

	"github.com/shrutimovaliya24/softcool/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get existing", func(mt *mtest.T) {
		s := NewMongoStore(mt.Coll, metrics.NewNoop())
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "softcool.kv_store", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "device:1:favorites"},
			{Key: "value", Value: "[1,2]"},
		}))

		got, err := s.Get(context.Background(), "device:1:favorites")
		require.NoError(mt, err)
		assert.Equal(mt, "[1,2]", string(got))
	})

	mt.Run("get missing", func(mt *mtest.T) {
		s := NewMongoStore(mt.Coll, metrics.NewNoop())
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "softcool.kv_store", mtest.FirstBatch))

		_, err := s.Get(context.Background(), "device:1:user")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("set and delete", func(mt *mtest.T) {
		s := NewMongoStore(mt.Coll, metrics.NewNoop())
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		require.NoError(mt, s.Set(context.Background(), "device:1:cart", []byte("[]")))
		require.NoError(mt, s.Delete(context.Background(), "device:1:cart"))
	})

	mt.Run("write error", func(mt *mtest.T) {
		s := NewMongoStore(mt.Coll, metrics.NewNoop())
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad value",
			Name:    "BadValue",
		}))

		assert.Error(mt, s.Set(context.Background(), "device:1:cart", []byte("[]")))
	})
}
