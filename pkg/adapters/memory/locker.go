package memory

import (
	"context"
	"sync"
	"time"

	"github.com/halu886/warehouse/pkg/ports"
)

// Locker implements ports.DistributedLocker within a single process.
// Locks expire after their ttl like the Redis implementation.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*lease
}

type lease struct {
	released chan struct{}
	expires  time.Time
}

// NewLocker creates a new in-process locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*lease)}
}

// Lock blocks until key is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	for {
		l.mu.Lock()
		held, busy := l.locks[key]
		if busy && !held.expires.IsZero() && time.Now().After(held.expires) {
			l.releaseLocked(key, held)
			busy = false
		}
		if !busy {
			mine := &lease{released: make(chan struct{})}
			if ttl > 0 {
				mine.expires = time.Now().Add(ttl)
			}
			l.locks[key] = mine
			l.mu.Unlock()

			var once sync.Once
			return func(context.Context) error {
				once.Do(func() {
					l.mu.Lock()
					defer l.mu.Unlock()
					if l.locks[key] == mine {
						l.releaseLocked(key, mine)
					}
				})
				return nil
			}, nil
		}
		l.mu.Unlock()

		var (
			timer  *time.Timer
			expiry <-chan time.Time
		)
		if !held.expires.IsZero() {
			timer = time.NewTimer(time.Until(held.expires))
			expiry = timer.C
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			return nil, ctx.Err()
		case <-held.released:
		case <-expiry:
		}
		stopTimer(timer)
	}
}

func (l *Locker) releaseLocked(key string, held *lease) {
	delete(l.locks, key)
	close(held.released)
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}
