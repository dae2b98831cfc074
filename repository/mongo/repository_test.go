package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"parkwatch-be/repository"
	"parkwatch-be/repository/repositorytest"
)

// TestRepository runs against a live server; set MONGODB_TEST_URI to enable it
func TestRepository(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	require.NoError(t, client.Ping(ctx, nil))

	repositorytest.Run(t, func(t *testing.T) repository.Repository {
		db := client.Database("parkwatch_test_" + primitive.NewObjectID().Hex())
		t.Cleanup(func() { _ = db.Drop(context.Background()) })
		repo := New(db)
		require.NoError(t, repo.EnsureIndexes(context.Background()))
		return repo
	})
}
