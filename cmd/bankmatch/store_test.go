package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/bankmatch/internal/repository"
	"github.com/nkiryanov/bankmatch/internal/repository/memory"
	"github.com/nkiryanov/bankmatch/internal/repository/sqlite"
)

func Test_openStore(t *testing.T) {
	t.Run("memory by default", func(t *testing.T) {
		for _, dsn := range []string{"", "memory://"} {
			s, closeFn, err := openStore(t.Context(), dsn)
			require.NoError(t, err)
			t.Cleanup(closeFn)

			require.IsType(t, &memory.Store{}, s)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "records.db")

		s, closeFn, err := openStore(t.Context(), "sqlite://"+path)
		require.NoError(t, err)
		t.Cleanup(closeFn)

		require.IsType(t, &sqlite.Storage{}, s)

		err = s.Put(t.Context(), "payment:1", []byte(`{}`))
		require.NoError(t, err)
		_, isSwapper := s.(repository.Swapper)
		require.True(t, isSwapper, "sqlite store must support compare and swap")
	})

	t.Run("dynamodb without table", func(t *testing.T) {
		_, _, err := openStore(t.Context(), "dynamodb://")

		require.ErrorContains(t, err, "table name is required")
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		_, _, err := openStore(t.Context(), "redis://localhost:6379")

		require.ErrorContains(t, err, "unsupported record store")
	})
}
