package ports

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/halu886/warehouse/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDocumentStoreContract runs a suite of tests to verify that a DocumentStore
// implementation adheres to the defined interface contract.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	id := "contract-doc-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		doc := domain.Document{
			"_id":   id,
			"name":  "bar",
			"count": 42.0,
			"tags":  []any{"a", "b"},
			"owner": map[string]any{"email": "x@example.com"},
		}

		err := store.Save(ctx, id, doc)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "bar", loaded["name"])
		// JSON-backed stores hand numbers back as float64.
		assert.Equal(t, 42.0, loaded["count"])
		assert.Equal(t, []any{"a", "b"}, loaded["tags"])
		assert.Equal(t, map[string]any{"email": "x@example.com"}, loaded["owner"])
		assert.Equal(t, id, loaded.ID())
	})

	t.Run("Load is isolated from the caller", func(t *testing.T) {
		doc := domain.Document{"_id": id, "tags": []any{"a"}}
		require.NoError(t, store.Save(ctx, id, doc))
		doc["tags"].([]any)[0] = "mutated"

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []any{"a"}, loaded["tags"])

		loaded["tags"] = nil
		again, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []any{"a"}, again["tags"])
	})

	t.Run("Save overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, id, domain.Document{"_id": id, "v": 1.0}))
		require.NoError(t, store.Save(ctx, id, domain.Document{"_id": id, "v": 2.0}))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 2.0, loaded["v"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, id, domain.Document{"_id": id})
		require.NoError(t, err)

		err = store.Delete(ctx, id)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound, "Load after Delete should return ErrDocumentNotFound")

		assert.NoError(t, store.Delete(ctx, id), "Delete of a missing id is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := id + "-1"
		id2 := id + "-2"
		_ = store.Save(ctx, id1, domain.Document{"_id": id1})
		_ = store.Save(ctx, id2, domain.Document{"_id": id2})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunLockerContract runs a suite of tests to verify that a DistributedLocker
// implementation provides mutual exclusion.
func RunLockerContract(t *testing.T, locker DistributedLocker) {
	ctx := context.Background()

	t.Run("Lock and Unlock", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, "contract-a", time.Second)
		require.NoError(t, err)
		require.NotNil(t, unlock)
		require.NoError(t, unlock(ctx))

		unlock, err = locker.Lock(ctx, "contract-a", time.Second)
		require.NoError(t, err, "lock should be free after unlock")
		require.NoError(t, unlock(ctx))
	})

	t.Run("Contention times out", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, "contract-b", 5*time.Second)
		require.NoError(t, err)
		defer func() { _ = unlock(ctx) }()

		waitCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(waitCtx, "contract-b", 5*time.Second)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Independent keys", func(t *testing.T) {
		unlockA, err := locker.Lock(ctx, "contract-c", time.Second)
		require.NoError(t, err)
		defer func() { _ = unlockA(ctx) }()

		unlockB, err := locker.Lock(ctx, "contract-d", time.Second)
		require.NoError(t, err)
		require.NoError(t, unlockB(ctx))
	})

	t.Run("Mutual exclusion", func(t *testing.T) {
		var (
			wg      sync.WaitGroup
			inside  atomic.Int32
			overlap atomic.Bool
		)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := locker.Lock(ctx, "contract-e", 5*time.Second)
				if err != nil {
					return
				}
				if inside.Add(1) > 1 {
					overlap.Store(true)
				}
				time.Sleep(10 * time.Millisecond)
				inside.Add(-1)
				_ = unlock(ctx)
			}()
		}
		wg.Wait()
		assert.False(t, overlap.Load(), "two holders were inside the critical section")
	})
}
