package pagelog

import (
	"context"
	"errors"
	"fmt"

	"github.com/colinclerk/sr/internal/batch"
	logpkg "github.com/colinclerk/sr/pkg/log"
)

// DefaultPageSize is the page size used when Options.PageSize is zero.
const DefaultPageSize = 1024

// DefaultSegmentStartMarker is the rrweb Meta event type. Options does not
// apply it implicitly because 0 is a valid marker.
const DefaultSegmentStartMarker = 4

// Decoder turns one committed batch into its events.
type Decoder interface {
	Decode(b []byte) ([]batch.Event, error)
}

// Registrar records a newly created log in an external catalog.
type Registrar interface {
	Register(ctx context.Context, logID, session string) error
}

// RegistrarFunc adapts a function to Registrar.
type RegistrarFunc func(ctx context.Context, logID, session string) error

func (f RegistrarFunc) Register(ctx context.Context, logID, session string) error {
	return f(ctx, logID, session)
}

// Options configures a Log.
type Options struct {
	// Session names the owner of the log. It is passed to the Registrar.
	Session string
	// PageSize applies to logs created by this handle. Existing logs keep
	// the page size stored in their cursor.
	PageSize int
	// SegmentStartMarker is the event type that starts a segment. It is used
	// as given, including 0.
	SegmentStartMarker int
	// Decoder defaults to a gzip batch.Codec.
	Decoder Decoder
	// Registrar is called once, when the first append creates the log. Optional.
	Registrar Registrar
	// NewID generates log identities. Required.
	NewID  func() string
	Logger logpkg.Logger
}

// Log appends opaque batches into fixed-size pages and reads them back
// as segments. A Log does no locking: callers serialize Append calls for
// the same store.
type Log struct {
	store   Store
	opts    Options
	decoder Decoder
	logger  logpkg.Logger

	// pending is a log id already registered whose creating cursor was
	// never saved. The next creating Append reuses it.
	pending string
}

// Open validates opts and the persisted cursor, if any.
func Open(ctx context.Context, store Store, opts Options) (*Log, error) {
	if store == nil {
		return nil, errors.New("pagelog: nil store")
	}
	if opts.NewID == nil {
		return nil, errors.New("pagelog: Options.NewID is required")
	}
	if opts.PageSize == 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.PageSize < 0 {
		return nil, fmt.Errorf("pagelog: invalid page size %d", opts.PageSize)
	}
	l := &Log{store: store, opts: opts, decoder: opts.Decoder, logger: opts.Logger}
	if l.decoder == nil {
		l.decoder = batch.DefaultCodec()
	}
	if l.logger == nil {
		l.logger = logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	}
	l.logger = l.logger.With(logpkg.Component("pagelog"), logpkg.Session(opts.Session))

	c, ok, err := store.LoadCursor(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		if c.PageSize != opts.PageSize {
			l.logger.Warn("existing log keeps its page size",
				logpkg.Int("stored", c.PageSize), logpkg.Int("configured", opts.PageSize))
		}
		l.logger.Debug("log resumed",
			logpkg.Str("log_id", c.LogID),
			logpkg.Uint64("open_page", c.OpenPage),
			logpkg.Int("fill", c.Fill),
			logpkg.Int("batches", len(c.Boundaries)))
	}
	return l, nil
}

// Cursor returns the persisted cursor. ok is false if the log does not exist yet.
func (l *Log) Cursor(ctx context.Context) (Cursor, bool, error) {
	return l.store.LoadCursor(ctx)
}

// AppendResult describes a committed append.
type AppendResult struct {
	LogID string
	// Created is true when this append created the log.
	Created bool
	// Boundary is the end position of the batch. When nothing was recorded it
	// is the end of the last committed batch, or zero for a log without one.
	Boundary Boundary
	// Recorded is false for empty batches.
	Recorded bool
	// Sealed counts the pages filled to capacity by this append.
	Sealed int
	// Size is the number of committed bytes in the log after the append.
	Size uint64
}

// Append writes buf after the last committed byte, sealing pages as they
// reach the page size, and persists the cursor with one new boundary.
//
// Pages are written before the cursor. If anything fails before the cursor
// is saved, the batch is not committed and the next Append overwrites the
// partially written bytes.
func (l *Log) Append(ctx context.Context, buf []byte) (AppendResult, error) {
	cur, ok, err := l.store.LoadCursor(ctx)
	if err != nil {
		return AppendResult{}, err
	}
	var res AppendResult
	registered := false
	if !ok {
		cur = Cursor{LogID: l.pending, PageSize: l.opts.PageSize}
		registered = cur.LogID != ""
		if !registered {
			cur.LogID = l.opts.NewID()
		}
		res.Created = true
	}
	res.LogID = cur.LogID
	if n := len(cur.Boundaries); n > 0 {
		res.Boundary = cur.Boundaries[n-1]
	}

	if len(buf) == 0 && !res.Created {
		res.Size = cur.Size()
		return res, nil
	}

	page, err := l.openPage(ctx, cur)
	if err != nil {
		return AppendResult{}, err
	}

	remaining := buf
	for len(remaining) > 0 {
		available := cur.PageSize - cur.Fill
		if available >= len(remaining) {
			page = append(page, remaining...)
			if err := l.store.PutPage(ctx, cur.OpenPage, page); err != nil {
				return AppendResult{}, fmt.Errorf("write page %d: %w", cur.OpenPage, err)
			}
			cur.Fill += len(remaining)
			res.Boundary = Boundary{Page: cur.OpenPage, Offset: cur.Fill}
			res.Recorded = true
			cur.Boundaries = append(cur.Boundaries, res.Boundary)
			remaining = nil
			if cur.Fill == cur.PageSize {
				cur.OpenPage++
				cur.Fill = 0
				res.Sealed++
			}
			break
		}
		if available > 0 {
			page = append(page, remaining[:available]...)
			if err := l.store.PutPage(ctx, cur.OpenPage, page); err != nil {
				return AppendResult{}, fmt.Errorf("write page %d: %w", cur.OpenPage, err)
			}
			remaining = remaining[available:]
		}
		cur.OpenPage++
		cur.Fill = 0
		res.Sealed++
		page = make([]byte, 0, cur.PageSize)
	}

	if res.Created && !registered && l.opts.Registrar != nil {
		if err := l.opts.Registrar.Register(ctx, cur.LogID, l.opts.Session); err != nil {
			l.logger.Error("log registration failed", logpkg.Str("log_id", cur.LogID), logpkg.Err(err))
			return AppendResult{}, fmt.Errorf("%w: %w", ErrRegister, err)
		}
		l.pending = cur.LogID
	}
	if err := l.store.SaveCursor(ctx, cur); err != nil {
		return AppendResult{}, fmt.Errorf("save cursor: %w", err)
	}
	l.pending = ""
	res.Size = cur.Size()
	if res.Created {
		l.logger.Info("log created", logpkg.Str("log_id", cur.LogID), logpkg.Int("page_size", cur.PageSize))
	}
	if res.Sealed > 0 {
		l.logger.Debug("pages sealed", logpkg.Int("count", res.Sealed), logpkg.Uint64("open_page", cur.OpenPage))
	}
	return res, nil
}

// openPage returns the committed prefix of the open page in a buffer with
// room for a full page. Bytes past the fill are an uncommitted tail and are
// dropped.
func (l *Log) openPage(ctx context.Context, c Cursor) ([]byte, error) {
	page := make([]byte, 0, c.PageSize)
	if c.Fill == 0 {
		return page, nil
	}
	stored, err := l.store.GetPage(ctx, c.OpenPage)
	if err != nil {
		return nil, pageErr(c.OpenPage, err)
	}
	if len(stored) < c.Fill {
		return nil, fmt.Errorf("%w: open page %d has %d bytes, cursor fill is %d", ErrCorrupt, c.OpenPage, len(stored), c.Fill)
	}
	return append(page, stored[:c.Fill]...), nil
}

func pageErr(index uint64, err error) error {
	if errors.Is(err, ErrPageNotFound) {
		return fmt.Errorf("%w: page %d: %w", ErrCorrupt, index, err)
	}
	return fmt.Errorf("read page %d: %w", index, err)
}
