package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/halu886/warehouse/pkg/adapters/memory"
	"github.com/halu886/warehouse/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_Contract(t *testing.T) {
	ports.RunLockerContract(t, memory.NewLocker())
}

func TestMemoryLocker_Expires(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	_, err := locker.Lock(ctx, "k", 50*time.Millisecond)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	start := time.Now()
	unlock, err := locker.Lock(waitCtx, "k", time.Second)
	require.NoError(t, err, "an expired lock should be taken over")
	assert.Less(t, time.Since(start), time.Second)
	require.NoError(t, unlock(ctx))
}

func TestMemoryLocker_StaleUnlock(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	stale, err := locker.Lock(ctx, "k", 20*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond)

	fresh, err := locker.Lock(ctx, "k", time.Second)
	require.NoError(t, err)

	// Releasing the expired lease must not free the new holder.
	require.NoError(t, stale(ctx))
	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "k", time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, fresh(ctx))
}
