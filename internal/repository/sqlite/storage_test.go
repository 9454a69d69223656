package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/bankmatch/internal/repository"
)

var _ repository.Swapper = (*Storage)(nil)

func openTemp(t *testing.T) *Storage {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err, "sqlite db should be opened in temp dir")
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStorage(t *testing.T) {
	t.Run("get missing", func(t *testing.T) {
		s := openTemp(t)

		_, err := s.Get(t.Context(), "missing")

		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("put overwrites", func(t *testing.T) {
		s := openTemp(t)

		require.NoError(t, s.Put(t.Context(), "k", []byte("v1")))
		require.NoError(t, s.Put(t.Context(), "k", []byte("v2")))

		got, err := s.Get(t.Context(), "k")
		require.NoError(t, err)
		require.Equal(t, []byte("v2"), got)
	})

	t.Run("data survives reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "records.db")
		s, err := Open(path)
		require.NoError(t, err)
		require.NoError(t, s.Put(t.Context(), "k", []byte("v1")))
		require.NoError(t, s.Close())

		s, err = Open(path)
		require.NoError(t, err)
		defer s.Close() // nolint:errcheck

		got, err := s.Get(t.Context(), "k")
		require.NoError(t, err)
		require.Equal(t, []byte("v1"), got)
	})

	t.Run("compare and swap", func(t *testing.T) {
		s := openTemp(t)

		ok, err := s.CompareAndSwap(t.Context(), "k", nil, []byte("1000"))
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.CompareAndSwap(t.Context(), "k", nil, []byte("2000"))
		require.NoError(t, err)
		require.False(t, ok, "existing key must not be recreated")

		ok, err = s.CompareAndSwap(t.Context(), "k", []byte("999"), []byte("2000"))
		require.NoError(t, err)
		require.False(t, ok, "stale old value must not swap")

		ok, err = s.CompareAndSwap(t.Context(), "k", []byte("1000"), []byte("2000"))
		require.NoError(t, err)
		require.True(t, ok)

		got, err := s.Get(t.Context(), "k")
		require.NoError(t, err)
		require.Equal(t, []byte("2000"), got)
	})
}
