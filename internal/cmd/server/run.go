package serverrun

import (
	"context"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	cfgpkg "github.com/colinclerk/sr/internal/config"
	"github.com/colinclerk/sr/internal/recorder"
	"github.com/colinclerk/sr/internal/runtime"
	grpcserver "github.com/colinclerk/sr/internal/server/grpc"
	httpserver "github.com/colinclerk/sr/internal/server/http"
	pebblestore "github.com/colinclerk/sr/internal/storage/pebble"
	logpkg "github.com/colinclerk/sr/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

// small wrapper to allow testing
var getenv = os.Getenv

type Options struct {
	DataDir       string
	GRPCAddr      string
	HTTPAddr      string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	// Ready, if set, is called once both listeners are bound.
	Ready func(grpcAddr, httpAddr string)
}

// drainTimeout bounds the wait for ingest handlers after both servers stop.
const drainTimeout = 5 * time.Second

// storeDir is where the Pebble database lives inside the data dir.
func storeDir(dataDir string) string { return filepath.Join(dataDir, "store") }

// newLogger builds the process-wide logger from SR_LOG_LEVEL/SR_LOG_FORMAT.
// Defaults: level=info, format=text.
func newLogger() (logpkg.Logger, *logpkg.Config) {
	cfg := &logpkg.Config{
		Level:  getenvDefault("SR_LOG_LEVEL", "info"),
		Format: getenvDefault("SR_LOG_FORMAT", "text"),
	}
	procLogger, err := logpkg.ApplyConfig(cfg)
	if err != nil {
		lvl := logpkg.InfoLevel
		if l, e := logpkg.ParseLevel(cfg.Level); e == nil {
			lvl = l
		}
		procLogger = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}
	return procLogger, cfg
}

// Run starts gRPC and HTTP servers and blocks until ctx is cancelled or a
// server fails.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}

	procLogger, logCfg := newLogger()
	// Redirect stdlib logs (e.g., Pebble) to our logger
	logpkg.RedirectStdLog(procLogger)

	rt, err := runtime.Open(runtime.Options{
		DataDir:       storeDir(opts.DataDir),
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Config:        opts.Config,
		Logger:        procLogger,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := rt.Config()
	procLogger.Info("Starting sr server",
		logpkg.Str("grpc", opts.GRPCAddr),
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("data_dir", opts.DataDir),
		logpkg.Int("page_size", cfg.PageSize),
		logpkg.Int("segment_start_marker", cfg.SegmentStartMarker),
		logpkg.Str("compression", cfg.Compression),
		logpkg.Str("level", logCfg.Level),
		logpkg.Str("format", logCfg.Format),
	)

	// One recorder service shared by both transports
	svc := recorder.NewWithLogger(rt, procLogger)
	gsrv := grpcserver.New(rt, svc, procLogger)
	hsrv := httpserver.New(rt, svc, procLogger)

	// Bind both listeners before serving so a bad address fails fast.
	var lc net.ListenConfig
	glis, err := lc.Listen(sctx, "tcp", opts.GRPCAddr)
	if err != nil {
		return err
	}
	hlis, err := lc.Listen(sctx, "tcp", opts.HTTPAddr)
	if err != nil {
		_ = glis.Close()
		return err
	}
	if opts.Ready != nil {
		opts.Ready(glis.Addr().String(), hlis.Addr().String())
	}

	g, gctx := errgroup.WithContext(sctx)
	g.Go(func() error { return gsrv.Serve(gctx, glis) })
	g.Go(func() error { return hsrv.Serve(gctx, hlis) })
	err = g.Wait()
	// Servers and ingest handlers are stopped before the deferred runtime close.
	gsrv.Close()
	hsrv.Close()
	dctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	if derr := svc.Drain(dctx); derr != nil {
		procLogger.Warn("ingest handlers did not finish", logpkg.Err(derr))
	}
	cancel()
	if err != nil {
		procLogger.Error("server stopped", logpkg.Err(err))
		return err
	}
	procLogger.Info("sr server stopped")
	return nil
}
