package store

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoBackend(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	const ns = "fitly.client_state"

	mt.Run("get found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: CartKey},
			{Key: "data", Value: []byte(`{"items":[]}`)},
		}))
		b := NewMongoBackend(mt.Client, "fitly", "client_state")

		data, found, err := b.Get(CartKey)
		require.NoError(mt, err)
		require.True(mt, found)
		require.JSONEq(mt, `{"items":[]}`, string(data))
	})

	mt.Run("get missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		b := NewMongoBackend(mt.Client, "fitly", "client_state")

		data, found, err := b.Get(SessionKey)
		require.NoError(mt, err)
		require.False(mt, found)
		require.Nil(mt, data)
	})

	mt.Run("set and delete", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)
		b := NewMongoBackend(mt.Client, "fitly", "client_state")

		require.NoError(mt, b.Set(SessionKey, []byte(`{"access":"a"}`)))
		require.NoError(mt, b.Delete(SessionKey))
	})

	mt.Run("set error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "not authorized on fitly",
		}))
		b := NewMongoBackend(mt.Client, "fitly", "client_state")

		err := b.Set(CartKey, []byte(`{}`))
		require.ErrorContains(mt, err, "upsert "+CartKey)
	})
}
