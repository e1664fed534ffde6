package pagelog

import (
	"context"
	"errors"
	"fmt"

	pebblestore "github.com/colinclerk/sr/internal/storage/pebble"
)

// Store persists the pages and the write cursor of a single log.
type Store interface {
	// LoadCursor returns the persisted cursor. ok is false when the log was
	// never created.
	LoadCursor(ctx context.Context) (c Cursor, ok bool, err error)
	SaveCursor(ctx context.Context, c Cursor) error
	// GetPage returns ErrPageNotFound when the page was never written.
	GetPage(ctx context.Context, index uint64) ([]byte, error)
	PutPage(ctx context.Context, index uint64, data []byte) error
}

// PebbleStore keeps one session's log under the rec/{session}/ keyspace.
type PebbleStore struct {
	db      *pebblestore.DB
	session string
}

// NewPebbleStore returns a Store scoped to session.
func NewPebbleStore(db *pebblestore.DB, session string) *PebbleStore {
	return &PebbleStore{db: db, session: session}
}

func (s *PebbleStore) LoadCursor(ctx context.Context) (Cursor, bool, error) {
	if err := ctx.Err(); err != nil {
		return Cursor{}, false, err
	}
	raw, err := s.db.Get(KeyCursor(s.session))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return Cursor{}, false, nil
	}
	if err != nil {
		return Cursor{}, false, fmt.Errorf("load cursor: %w", err)
	}
	c, err := DecodeCursor(raw)
	if err != nil {
		return Cursor{}, false, err
	}
	return c, true, nil
}

func (s *PebbleStore) SaveCursor(ctx context.Context, c Cursor) error {
	return s.db.SetContext(ctx, KeyCursor(s.session), EncodeCursor(c))
}

func (s *PebbleStore) GetPage(ctx context.Context, index uint64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := s.db.Get(KeyPage(s.session, index))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return nil, ErrPageNotFound
	}
	return b, err
}

func (s *PebbleStore) PutPage(ctx context.Context, index uint64, data []byte) error {
	return s.db.SetContext(ctx, KeyPage(s.session, index), data)
}
