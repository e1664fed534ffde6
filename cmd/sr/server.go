package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	serverrun "github.com/colinclerk/sr/internal/cmd/server"
	cfgpkg "github.com/colinclerk/sr/internal/config"
	pebblestore "github.com/colinclerk/sr/internal/storage/pebble"
)

func parseFsync(mode string) (pebblestore.FsyncMode, error) {
	switch mode {
	case "always":
		return pebblestore.FsyncModeAlways, nil
	case "interval":
		return pebblestore.FsyncModeInterval, nil
	case "never":
		return pebblestore.FsyncModeNever, nil
	default:
		return pebblestore.FsyncModeUnspecified, fmt.Errorf("invalid --fsync %q; use always|interval|never", mode)
	}
}

func newServerCommand() *cobra.Command {
	var (
		dataDir, grpcAddr, httpAddr string
		fsync, configPath           string
		fsyncIntervalMs             int
		logLevel, logFormat         string
	)
	start := &cobra.Command{
		Use:     "start",
		Short:   "Start the sr server (gRPC, HTTP and WebSocket ingest)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := parseFsync(fsync)
			if err != nil {
				return err
			}
			cfg, err := cfgpkg.Load(configPath)
			if err != nil {
				return err
			}
			cfgpkg.FromEnv(&cfg)

			// serverrun builds its logger from the environment.
			if logLevel != "" {
				_ = os.Setenv("SR_LOG_LEVEL", logLevel)
			}
			if logFormat != "" {
				_ = os.Setenv("SR_LOG_FORMAT", logFormat)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			err = serverrun.Run(ctx, serverrun.Options{
				DataDir:       dataDir,
				GRPCAddr:      grpcAddr,
				HTTPAddr:      httpAddr,
				Fsync:         mode,
				FsyncInterval: time.Duration(fsyncIntervalMs) * time.Millisecond,
				Config:        cfg,
			})
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	f := start.Flags()
	f.StringVar(&dataDir, "data-dir", "", "Data directory (default $SR_DATA_DIR or an OS-specific application data directory)")
	f.StringVar(&grpcAddr, "grpc", ":50051", "gRPC listen address")
	f.StringVar(&httpAddr, "http", ":8080", "HTTP listen address (API and /sr/ws ingest)")
	f.StringVar(&configPath, "config", os.Getenv("SR_CONFIG"), "Config file (json|yaml|toml)")
	f.StringVar(&fsync, "fsync", "always", "Fsync mode: always|interval|never")
	f.IntVar(&fsyncIntervalMs, "fsync-interval-ms", 5, "Group-commit window in ms when --fsync=interval")
	f.StringVar(&logLevel, "log-level", os.Getenv("SR_LOG_LEVEL"), "Log level: debug|info|warn|error")
	f.StringVar(&logFormat, "log-format", os.Getenv("SR_LOG_FORMAT"), "Log format: text|json")

	server := &cobra.Command{Use: "server", Short: "Server commands"}
	server.AddCommand(start)
	return server
}
