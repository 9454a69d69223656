package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/nkiryanov/bankmatch/internal/db"
	"github.com/nkiryanov/bankmatch/internal/repository"
	"github.com/nkiryanov/bankmatch/internal/repository/dynamo"
	"github.com/nkiryanov/bankmatch/internal/repository/memory"
	"github.com/nkiryanov/bankmatch/internal/repository/postgres"
	"github.com/nkiryanov/bankmatch/internal/repository/sqlite"
)

// openStore picks the record store by DSN scheme. The returned func releases its resources.
func openStore(ctx context.Context, dsn string) (repository.Store, func(), error) {
	noop := func() {}

	switch {
	case dsn == "" || dsn == "memory://":
		return memory.NewStore(), noop, nil

	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		pool, err := db.ConnectAndMigrate(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("error while connecting to db. Err: %w", err)
		}
		return postgres.NewStorage(pool), pool.Close, nil

	case strings.HasPrefix(dsn, "sqlite://"):
		s, err := sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil

	case strings.HasPrefix(dsn, "dynamodb://"):
		table := strings.TrimPrefix(dsn, "dynamodb://")
		if table == "" {
			return nil, nil, fmt.Errorf("dynamodb table name is required")
		}
		s, err := dynamo.Connect(ctx, table)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	default:
		return nil, nil, fmt.Errorf("unsupported record store %q", dsn)
	}
}
