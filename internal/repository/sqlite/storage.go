package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nkiryanov/bankmatch/internal/repository"
)

const schema = `CREATE TABLE IF NOT EXISTS records (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Storage keeps records in a local sqlite file
type Storage struct {
	db *sql.DB
}

// Open opens (or creates) the database file and prepares the schema
func Open(path string) (*Storage, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cant open sqlite db. Err: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cant prepare sqlite schema. Err: %w", err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM records WHERE key = ?`, key).Scan(&value)

	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, repository.ErrNotFound
	default:
		return nil, fmt.Errorf("db error: %w", err)
	}
}

func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (s *Storage) CompareAndSwap(ctx context.Context, key string, oldValue []byte, newValue []byte) (bool, error) {
	var (
		result sql.Result
		err    error
	)

	now := time.Now().UnixMilli()
	if oldValue == nil {
		result, err = s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO records (key, value, updated_at) VALUES (?, ?, ?)`,
			key, newValue, now,
		)
	} else {
		result, err = s.db.ExecContext(ctx,
			`UPDATE records SET value = ?, updated_at = ? WHERE key = ? AND value = ?`,
			newValue, now, key, oldValue,
		)
	}
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return rows == 1, nil
}
