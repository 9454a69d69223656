// Package ratelimit guards the transaction feed with a global minimum interval between calls.
//
// The timestamp of the last call lives in the shared record store so every
// process and every caller sees the same state. With a store that supports
// compare-and-swap the gate is race free. With plain get/put two callers
// reading the state at the same instant may both pass, the upstream
// overload response is the fallback in that case.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nkiryanov/bankmatch/internal/apperrors"
	"github.com/nkiryanov/bankmatch/internal/repository"
)

// Fio allows one request per token every 30 seconds
const DefaultWindow = 30 * time.Second

type Gate struct {
	store  repository.Store
	key    string
	window time.Duration
	now    func() time.Time
}

type Option func(*Gate)

func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

func WithKey(key string) Option {
	return func(g *Gate) { g.key = key }
}

func New(store repository.Store, window time.Duration, opts ...Option) *Gate {
	if window <= 0 {
		window = DefaultWindow
	}

	g := &Gate{
		store:  store,
		key:    repository.RateLimitKey,
		window: window,
		now:    time.Now,
	}
	for _, o := range opts {
		o(g)
	}

	return g
}

func (g *Gate) Window() time.Duration {
	return g.window
}

// Acquire records a new call timestamp if the window since the last call has elapsed.
// The timestamp is written before the caller talks to the feed.
// Returns *apperrors.RateLimitError with remaining wait if the gate is cooling down.
func (g *Gate) Acquire(ctx context.Context) error {
	raw, err := g.store.Get(ctx, g.key)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		raw = nil
	case err != nil:
		return fmt.Errorf("can't read rate limit state: %w", err)
	}

	now := g.now()
	if raw != nil {
		last, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("corrupted rate limit state %q: %w", raw, err)
		}

		elapsed := now.Sub(time.UnixMilli(last))
		if elapsed < g.window {
			return &apperrors.RateLimitError{Wait: min(g.window-elapsed, g.window)}
		}
	}

	next := []byte(strconv.FormatInt(now.UnixMilli(), 10))

	swapper, ok := g.store.(repository.Swapper)
	if !ok {
		if err := g.store.Put(ctx, g.key, next); err != nil {
			return fmt.Errorf("can't write rate limit state: %w", err)
		}
		return nil
	}

	swapped, err := swapper.CompareAndSwap(ctx, g.key, raw, next)
	switch {
	case err != nil:
		return fmt.Errorf("can't write rate limit state: %w", err)
	case !swapped:
		// Someone else acquired the gate between our read and write
		return &apperrors.RateLimitError{Wait: g.window}
	default:
		return nil
	}
}
