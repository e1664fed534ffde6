package pagelog

import (
	"context"
	"sync"
)

// memStore is an in-memory Store with failure injection.
type memStore struct {
	mu     sync.Mutex
	cursor *Cursor
	pages  map[uint64][]byte

	putErr  func(index uint64) error
	saveErr error
	puts    int
}

func newMemStore() *memStore {
	return &memStore{pages: map[uint64][]byte{}}
}

func (s *memStore) LoadCursor(context.Context) (Cursor, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor == nil {
		return Cursor{}, false, nil
	}
	return s.cursor.clone(), true, nil
}

func (s *memStore) SaveCursor(_ context.Context, c Cursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	c = c.clone()
	s.cursor = &c
	return nil
}

func (s *memStore) GetPage(_ context.Context, index uint64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[index]
	if !ok {
		return nil, ErrPageNotFound
	}
	return append([]byte(nil), p...), nil
}

func (s *memStore) PutPage(_ context.Context, index uint64, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		if err := s.putErr(index); err != nil {
			return err
		}
	}
	s.puts++
	s.pages[index] = append([]byte(nil), data...)
	return nil
}
