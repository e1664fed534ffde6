package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays SR_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("SR_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PageSize = n
		}
	}
	if v := os.Getenv("SR_SEGMENT_START_MARKER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SegmentStartMarker = n
		}
	}
	if v := os.Getenv("SR_COMPRESSION"); v != "" {
		cfg.Compression = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("SR_DEFAULT_SESSION"); v != "" {
		cfg.DefaultSession = v
	}
	if v := os.Getenv("SR_LOG_ID_PREFIX"); v != "" {
		cfg.LogIDPrefix = v
	}
	if v := os.Getenv("SR_MAX_BATCH_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxBatchBytes = n
		}
	}
	if v := os.Getenv("SR_ALLOWED_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		cfg.AllowedOrigins = nil
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, p)
			}
		}
	}
}
