package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/nkiryanov/bankmatch/internal/repository"
)

// Store keeps records in process memory. Data is lost on restart,
// so it fits tests and single instance deployments without a database.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return bytes.Clone(v), nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = bytes.Clone(value)
	return nil
}

func (s *Store) CompareAndSwap(_ context.Context, key string, oldValue []byte, newValue []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.data[key]
	switch {
	case oldValue == nil && ok:
		return false, nil
	case oldValue != nil && (!ok || !bytes.Equal(current, oldValue)):
		return false, nil
	}

	s.data[key] = bytes.Clone(newValue)
	return true, nil
}
