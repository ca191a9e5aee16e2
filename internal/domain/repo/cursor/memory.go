package cursor

import (
	"context"
	"sync"
)

// MemoryStore keeps cursors for the lifetime of the process.
type MemoryStore struct {
	cursors *sync.Map
}

func NewMemoryStore() MemoryStore {
	return MemoryStore{
		cursors: &sync.Map{},
	}
}

func (s MemoryStore) GetCursor(_ context.Context, kind string) (string, error) {
	ret, found := s.cursors.Load(kind)
	if !found {
		return "", nil
	}

	return ret.(string), nil
}

func (s MemoryStore) SetCursor(_ context.Context, kind string, cursor string) error {
	if cursor == "" {
		s.cursors.Delete(kind)

		return nil
	}

	s.cursors.Store(kind, cursor)

	return nil
}
