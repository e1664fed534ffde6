package runtime

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/colinclerk/sr/internal/batch"
	"github.com/colinclerk/sr/internal/catalog"
	cfgpkg "github.com/colinclerk/sr/internal/config"
	"github.com/colinclerk/sr/internal/pagelog"
	pebblestore "github.com/colinclerk/sr/internal/storage/pebble"
	"github.com/colinclerk/sr/pkg/id"
	logpkg "github.com/colinclerk/sr/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	Logger        logpkg.Logger
}

// Runtime wires storage, config, and facades for a single-node instance.
type Runtime struct {
	db      *pebblestore.DB
	stats   *pebblestore.Counters
	config  cfgpkg.Config
	codec   batch.Codec
	catalog *catalog.Catalog
	ids     *id.Generator
	logger  logpkg.Logger
}

// ErrInvalidSession is returned for session names that cannot be used as keys.
var ErrInvalidSession = errors.New("invalid session name")

var sessionRe = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)

// ValidateSession checks that name is usable as a session key.
func ValidateSession(name string) error {
	if !sessionRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidSession, name)
	}
	return nil
}

// Open initializes the underlying storage and returns a Runtime. The config
// is used as given; start from config.Default() for built-in values.
func Open(opts Options) (*Runtime, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	codec, err := batch.NewCodec(opts.Config.Compression)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	}
	stats := &pebblestore.Counters{}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Metrics:       stats,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	rt := &Runtime{
		db:      db,
		stats:   stats,
		config:  opts.Config,
		codec:   codec,
		catalog: catalog.New(db),
		ids:     id.NewGenerator(),
		logger:  logger,
	}
	return rt, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// OpenLog opens the page log owned by session.
func (r *Runtime) OpenLog(ctx context.Context, session string) (*pagelog.Log, error) {
	if err := ValidateSession(session); err != nil {
		return nil, err
	}
	return pagelog.Open(ctx, pagelog.NewPebbleStore(r.db, session), pagelog.Options{
		Session:            session,
		PageSize:           r.config.PageSize,
		SegmentStartMarker: r.config.SegmentStartMarker,
		Decoder:            r.codec,
		Registrar:          r.catalog,
		NewID:              r.NewLogID,
		Logger:             r.logger,
	})
}

// NewLogID returns a fresh, time-sortable log identifier.
func (r *Runtime) NewLogID() string { return r.ids.NextText(r.config.LogIDPrefix) }

// NextID returns a fresh identifier without prefix.
func (r *Runtime) NextID() id.ID { return r.ids.Next() }

// Catalog returns the recordings catalog.
func (r *Runtime) Catalog() *catalog.Catalog { return r.catalog }

// Codec returns the configured batch codec.
func (r *Runtime) Codec() batch.Codec { return r.codec }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// StorageStats reports running storage totals since Open.
func (r *Runtime) StorageStats() pebblestore.Stats { return r.stats.Snapshot() }

// Logger returns the runtime logger.
func (r *Runtime) Logger() logpkg.Logger { return r.logger }
