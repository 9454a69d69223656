package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/bankmatch/internal/repository"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Storage keeps records in the 'records' table created by db migrations
type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) *Storage {
	return &Storage{db: db}
}

const getRecord = `-- name: GetRecord
SELECT value FROM records
WHERE key = $1
`

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(ctx, getRecord, key).Scan(&value)

	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, pgx.ErrNoRows):
		return nil, repository.ErrNotFound
	default:
		return nil, dbError(err)
	}
}

const putRecord = `-- name: PutRecord
INSERT INTO records (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`

func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.Exec(ctx, putRecord, key, value)
	if err != nil {
		return dbError(err)
	}

	return nil
}

const insertRecord = `-- name: InsertRecord
INSERT INTO records (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO NOTHING
`

const swapRecord = `-- name: SwapRecord
UPDATE records
SET value = $3, updated_at = now()
WHERE key = $1 AND value = $2
`

func (s *Storage) CompareAndSwap(ctx context.Context, key string, oldValue []byte, newValue []byte) (bool, error) {
	var (
		tag pgconn.CommandTag
		err error
	)

	if oldValue == nil {
		tag, err = s.db.Exec(ctx, insertRecord, key, newValue)
	} else {
		tag, err = s.db.Exec(ctx, swapRecord, key, oldValue, newValue)
	}
	if err != nil {
		return false, dbError(err)
	}

	return tag.RowsAffected() == 1, nil
}

func dbError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return fmt.Errorf("records table not found, were migrations applied? Err: %w", err)
	}

	return fmt.Errorf("db error: %w", err)
}
