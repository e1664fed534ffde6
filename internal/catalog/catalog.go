package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pebblestore "github.com/colinclerk/sr/internal/storage/pebble"
)

// ErrNotFound is returned when no recording has the requested id.
var ErrNotFound = errors.New("catalog: recording not found")

// ErrConflict is returned when an id is registered twice for different sessions.
var ErrConflict = errors.New("catalog: recording registered to another session")

// Entry describes one recording.
type Entry struct {
	ID          string `json:"id"`
	Session     string `json:"session"`
	CreatedAtMs int64  `json:"createdAtMs"`
	// Bucketed is set once the recording has been exported to bucket storage.
	Bucketed bool `json:"bucketed"`
}

var (
	recMetaPrefix = []byte("recmeta/")
)

// recMetaKey builds the metadata key for a recording.
func recMetaKey(id string) []byte {
	k := make([]byte, 0, len(recMetaPrefix)+len(id))
	k = append(k, recMetaPrefix...)
	k = append(k, id...)
	return k
}

// Catalog lists the recordings known to this node.
type Catalog struct {
	db  *pebblestore.DB
	now func() time.Time
}

// New returns a Catalog backed by db.
func New(db *pebblestore.DB) *Catalog {
	return &Catalog{db: db, now: time.Now}
}

// Register creates the entry for id if absent. Registering the same id for
// the same session again is a no-op.
func (c *Catalog) Register(ctx context.Context, id, session string) error {
	if id == "" {
		return errors.New("catalog: empty id")
	}
	existing, err := c.Get(id)
	switch {
	case err == nil:
		if existing.Session != session {
			return fmt.Errorf("%w: %s belongs to %q", ErrConflict, id, existing.Session)
		}
		return nil
	case !errors.Is(err, ErrNotFound):
		return err
	}
	e := Entry{ID: id, Session: session, CreatedAtMs: c.now().UnixMilli()}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.db.SetContext(ctx, recMetaKey(id), b)
}

// Get returns the entry for id.
func (c *Catalog) Get(id string) (Entry, error) {
	b, err := c.db.Get(recMetaKey(id))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, fmt.Errorf("catalog: decode %s: %w", id, err)
	}
	return e, nil
}

// ListOptions filters List.
type ListOptions struct {
	// Session restricts results to one session when non-empty.
	Session string
	// Limit caps the number of entries; zero means no limit.
	Limit int
}

// List returns entries in id order, which is creation order for
// time-sortable ids.
func (c *Catalog) List(opts ListOptions) ([]Entry, error) {
	var (
		out     []Entry
		scanErr error
	)
	err := c.db.ScanPrefix(recMetaPrefix, func(k, v []byte) bool {
		var e Entry
		if err := json.Unmarshal(v, &e); err != nil {
			scanErr = fmt.Errorf("catalog: decode %s: %w", k[len(recMetaPrefix):], err)
			return false
		}
		if opts.Session != "" && e.Session != opts.Session {
			return true
		}
		out = append(out, e)
		return opts.Limit <= 0 || len(out) < opts.Limit
	})
	if err != nil {
		return nil, err
	}
	return out, scanErr
}
