package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/bankmatch/internal/apperrors"
	"github.com/nkiryanov/bankmatch/internal/repository"
	"github.com/nkiryanov/bankmatch/internal/repository/memory"
)

// getPutStore hides CompareAndSwap of the memory store
type getPutStore struct {
	s *memory.Store
}

func (g getPutStore) Get(ctx context.Context, key string) ([]byte, error) {
	return g.s.Get(ctx, key)
}

func (g getPutStore) Put(ctx context.Context, key string, value []byte) error {
	return g.s.Put(ctx, key, value)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestGate(t *testing.T) {
	stores := map[string]func() repository.Store{
		"compare and swap": func() repository.Store { return memory.NewStore() },
		"get put only":     func() repository.Store { return getPutStore{s: memory.NewStore()} },
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			t.Run("first call passes", func(t *testing.T) {
				c := &clock{now: time.Unix(1_700_000_000, 0)}
				store := newStore()
				g := New(store, 30*time.Second, WithClock(c.Now))

				err := g.Acquire(t.Context())

				require.NoError(t, err)
				raw, err := store.Get(t.Context(), repository.RateLimitKey)
				require.NoError(t, err)
				require.Equal(t, "1700000000000", string(raw), "timestamp stored in milliseconds")
			})

			t.Run("immediate second call rejected", func(t *testing.T) {
				c := &clock{now: time.Unix(1_700_000_000, 0)}
				g := New(newStore(), 30*time.Second, WithClock(c.Now))
				require.NoError(t, g.Acquire(t.Context()))

				err := g.Acquire(t.Context())

				var rlErr *apperrors.RateLimitError
				require.ErrorAs(t, err, &rlErr)
				require.False(t, rlErr.Upstream)
				require.Equal(t, 30*time.Second, rlErr.Wait)
				require.Equal(t, 30, rlErr.WaitSeconds())
			})

			t.Run("wait rounded up", func(t *testing.T) {
				c := &clock{now: time.Unix(1_700_000_000, 0)}
				g := New(newStore(), 30*time.Second, WithClock(c.Now))
				require.NoError(t, g.Acquire(t.Context()))
				c.Advance(10*time.Second + 500*time.Millisecond)

				err := g.Acquire(t.Context())

				var rlErr *apperrors.RateLimitError
				require.ErrorAs(t, err, &rlErr)
				require.Equal(t, 20, rlErr.WaitSeconds())
			})

			t.Run("call after window passes", func(t *testing.T) {
				c := &clock{now: time.Unix(1_700_000_000, 0)}
				g := New(newStore(), 30*time.Second, WithClock(c.Now))
				require.NoError(t, g.Acquire(t.Context()))
				c.Advance(30 * time.Second)

				err := g.Acquire(t.Context())

				require.NoError(t, err)
			})

			t.Run("rejected call does not move timestamp", func(t *testing.T) {
				c := &clock{now: time.Unix(1_700_000_000, 0)}
				g := New(newStore(), 30*time.Second, WithClock(c.Now))
				require.NoError(t, g.Acquire(t.Context()))
				c.Advance(20 * time.Second)
				require.Error(t, g.Acquire(t.Context()))
				c.Advance(10 * time.Second)

				err := g.Acquire(t.Context())

				require.NoError(t, err, "window counts from the last accepted call")
			})

			t.Run("clock skew never waits longer than window", func(t *testing.T) {
				c := &clock{now: time.Unix(1_700_000_000, 0)}
				g := New(newStore(), 30*time.Second, WithClock(c.Now))
				require.NoError(t, g.Acquire(t.Context()))
				c.Advance(-time.Hour)

				err := g.Acquire(t.Context())

				var rlErr *apperrors.RateLimitError
				require.ErrorAs(t, err, &rlErr)
				require.Equal(t, 30*time.Second, rlErr.Wait)
			})
		})
	}

	t.Run("corrupted state", func(t *testing.T) {
		store := memory.NewStore()
		require.NoError(t, store.Put(t.Context(), repository.RateLimitKey, []byte("yesterday")))
		g := New(store, 30*time.Second)

		err := g.Acquire(t.Context())

		require.Error(t, err)
		require.NotErrorIs(t, err, apperrors.ErrRateLimited)
	})

	t.Run("default window", func(t *testing.T) {
		g := New(memory.NewStore(), 0)

		require.Equal(t, DefaultWindow, g.Window())
	})

	t.Run("single caller passes under concurrency with compare and swap", func(t *testing.T) {
		g := New(memory.NewStore(), time.Minute)
		var passed atomic.Int32
		var wg sync.WaitGroup

		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if g.Acquire(context.Background()) == nil {
					passed.Add(1)
				}
			}()
		}
		wg.Wait()

		require.Equal(t, int32(1), passed.Load())
	})
}
