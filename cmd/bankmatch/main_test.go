package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/bankmatch/internal/testutil"
)

func Test_run(t *testing.T) {
	port, err := testutil.RandomPort()
	require.NoError(t, err, "failed to get random port to start server")
	listenAddr := fmt.Sprintf("localhost:%d", port)

	noenv := func(string) string { return "" }
	getwd := func() (string, error) { return t.TempDir(), nil }

	t.Run("stop with signal", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond) // Half Second
		t.Cleanup(cancel)

		err := run(ctx, noenv, getwd, []string{
			"--address", listenAddr,
			"--log-level", "debug",
			"--secret-key", "secret",
		})

		require.NoError(t, err, "on correct stop should not return error")
	})

	t.Run("sqlite store and watcher", func(t *testing.T) {
		dir := t.TempDir()
		campaigns := filepath.Join(dir, "campaigns.yaml")
		require.NoError(t, os.WriteFile(campaigns, []byte("campaigns:\n  - event_id: spring\n    variable_symbol: \"38472916\"\n"), 0o600))

		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		t.Cleanup(cancel)

		err := run(ctx, noenv, getwd, []string{
			"--address", listenAddr,
			"--database", "sqlite://" + filepath.Join(dir, "bankmatch.db"),
			"--secret-key", "secret",
			"--campaigns", campaigns,
			"--watch-interval", "50ms",
		})

		require.NoError(t, err)
	})

	t.Run("fail without secret key", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		t.Cleanup(cancel)

		err := run(ctx, noenv, getwd, []string{
			"--address", listenAddr,
		})

		require.Error(t, err, "secret key is required")
	})

	t.Run("fail with unknown store", func(t *testing.T) {
		err := run(t.Context(), noenv, getwd, []string{
			"--address", listenAddr,
			"--secret-key", "secret",
			"--database", "mysql://localhost",
		})

		require.ErrorContains(t, err, "unsupported record store")
	})

	t.Run("fail with telegram token but no chat", func(t *testing.T) {
		err := run(t.Context(), noenv, getwd, []string{
			"--secret-key", "secret",
			"--telegram-token", "123:abc",
		})

		require.Error(t, err)
	})
}

func Test_run_Postgres(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	port, err := testutil.RandomPort()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	t.Cleanup(cancel)

	err = run(ctx, func(string) string { return "" }, os.Getwd, []string{
		"--address", fmt.Sprintf("localhost:%d", port),
		"--database", pg.DSN,
		"--secret-key", "secret",
	})

	require.NoError(t, err)
}
