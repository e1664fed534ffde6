package recorder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/colinclerk/sr/internal/pagelog"
	logpkg "github.com/colinclerk/sr/pkg/log"
)

var (
	// ErrBatchTooLarge is returned for batches above the configured limit.
	ErrBatchTooLarge = errors.New("recorder: batch too large")
	// ErrInvalidFilter wraps CEL compile errors.
	ErrInvalidFilter = errors.New("recorder: invalid filter")
)

// Connection is one live ingest connection attached to a session.
type Connection struct {
	ID            string `json:"id"`
	Transport     string `json:"transport"`
	Remote        string `json:"remote"`
	ConnectedAtMs int64  `json:"connectedAtMs"`
}

// Recorder owns the log of one session. Appends are serialized; reads may
// run concurrently with each other but not with an append.
type Recorder struct {
	session  string
	log      *pagelog.Log
	maxBatch int
	newID    func() string
	logger   logpkg.Logger

	mu sync.RWMutex

	connMu sync.Mutex
	conns  map[string]Connection
}

func newRecorder(session string, log *pagelog.Log, maxBatch int, newID func() string, logger logpkg.Logger) *Recorder {
	return &Recorder{
		session:  session,
		log:      log,
		maxBatch: maxBatch,
		newID:    newID,
		logger:   logger.With(logpkg.Session(session)),
		conns:    map[string]Connection{},
	}
}

// Session returns the session name.
func (r *Recorder) Session() string { return r.session }

// Append commits one batch to the session log.
func (r *Recorder) Append(ctx context.Context, buf []byte) (pagelog.AppendResult, error) {
	if r.maxBatch > 0 && len(buf) > r.maxBatch {
		return pagelog.AppendResult{}, fmt.Errorf("%w: %d bytes, limit %d", ErrBatchTooLarge, len(buf), r.maxBatch)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	res, err := r.log.Append(ctx, buf)
	if err != nil {
		r.logger.Error("append failed", logpkg.Int("bytes", len(buf)), logpkg.Err(err))
		return pagelog.AppendResult{}, err
	}
	r.logger.Debug("batch committed",
		logpkg.Int("bytes", len(buf)),
		logpkg.Uint64("page", res.Boundary.Page),
		logpkg.Int("offset", res.Boundary.Offset))
	return res, nil
}

// ReadCurrent reconstructs the session's segments. A non-empty filter is a
// CEL expression applied to each event; segments left empty are dropped.
func (r *Recorder) ReadCurrent(ctx context.Context, filter string) ([]pagelog.Segment, error) {
	f, err := newCELFilter(filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	r.mu.RLock()
	segs, err := r.log.ReadAll(ctx)
	r.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if !f.enabled {
		return segs, nil
	}
	out := make([]pagelog.Segment, 0, len(segs))
	for i, seg := range segs {
		var kept pagelog.Segment
		for _, ev := range seg {
			if f.Eval(i, ev) {
				kept = append(kept, ev)
			}
		}
		if len(kept) > 0 {
			out = append(out, kept)
		}
	}
	return out, nil
}

// Batches returns the raw committed batches.
func (r *Recorder) Batches(ctx context.Context) ([][]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.log.Batches(ctx)
}

// Cursor returns the persisted write cursor.
func (r *Recorder) Cursor(ctx context.Context) (pagelog.Cursor, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.log.Cursor(ctx)
}

// Accept registers a live connection and returns its handle.
func (r *Recorder) Accept(transport, remote string) Connection {
	c := Connection{ID: r.newID(), Transport: transport, Remote: remote, ConnectedAtMs: time.Now().UnixMilli()}
	r.connMu.Lock()
	r.conns[c.ID] = c
	n := len(r.conns)
	r.connMu.Unlock()
	r.logger.Info("connection accepted", logpkg.Str("conn", c.ID), logpkg.Str("transport", transport), logpkg.Int("open", n))
	return c
}

// Release removes a connection. Releasing an unknown id is a no-op.
func (r *Recorder) Release(id string) {
	r.connMu.Lock()
	_, ok := r.conns[id]
	delete(r.conns, id)
	n := len(r.conns)
	r.connMu.Unlock()
	if ok {
		r.logger.Info("connection released", logpkg.Str("conn", id), logpkg.Int("open", n))
	}
}

// Connections lists live connections ordered by id.
func (r *Recorder) Connections() []Connection {
	r.connMu.Lock()
	out := make([]Connection, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	r.connMu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
