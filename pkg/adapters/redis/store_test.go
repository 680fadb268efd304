package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/halu886/warehouse/pkg/adapters/redis"
	"github.com/halu886/warehouse/pkg/domain"
	"github.com/halu886/warehouse/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunDocumentStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	id := "doc-ttl"

	err := store.Save(ctx, id, domain.Document{"_id": id, "foo": "bar"})
	require.NoError(t, err)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, id)

	// Key expiration in miniredis follows its own clock.
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, id)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	// Index pruning compares against time.Now().
	time.Sleep(1200 * time.Millisecond)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:users:"))
	ctx := context.Background()

	err := store.Save(ctx, "index", domain.Document{"_id": "index"})
	require.NoError(t, err)

	assert.True(t, mr.Exists("custom:users:doc:index"), "Expected document key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:users:index"), "Expected index with custom prefix to exist")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"index"}, ids, "an id named like the index key must not collide with it")
}

func TestRedisStore_EmptyID(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	err := store.Save(context.Background(), "", domain.Document{})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
