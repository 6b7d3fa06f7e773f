package repository_test

import (
	"context"
	"testing"
	"time"

	"typerace/internal/model"
	"typerace/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func setupMongo(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping mongodb integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcmongo.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	return client.Database("typerace_test")
}

func TestUserRepo(t *testing.T) {
	db := setupMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := repository.NewUserRepo(db)
	require.NoError(t, repo.EnsureIndexes(ctx))

	user := &model.User{Username: "alice", PasswordHash: "hash", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("get by username", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("missing user", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := repo.Create(ctx, &model.User{Username: "alice", PasswordHash: "other"})
		assert.ErrorIs(t, err, model.ErrUsernameTaken)
	})
}
