package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// PageSize is the fixed size of sealed log pages for newly created logs.
	// Existing logs keep the page size recorded in their cursor.
	PageSize int `json:"pageSize" mapstructure:"pageSize"`
	// SegmentStartMarker is the event "type" value that opens a new playback
	// segment. 4 is the rrweb Meta event.
	SegmentStartMarker int `json:"segmentStartMarker" mapstructure:"segmentStartMarker"`
	// Compression names the batch codec: gzip|zlib|snappy|none|auto.
	Compression string `json:"compression" mapstructure:"compression"`
	// DefaultSession is used when a request does not name a session.
	DefaultSession string `json:"defaultSession" mapstructure:"defaultSession"`
	// LogIDPrefix is prepended to generated log identifiers.
	LogIDPrefix string `json:"logIdPrefix" mapstructure:"logIdPrefix"`
	// MaxBatchBytes bounds a single inbound batch.
	MaxBatchBytes int `json:"maxBatchBytes" mapstructure:"maxBatchBytes"`
	// AllowedOrigins restricts WebSocket upgrades; empty or "*" allows any origin.
	AllowedOrigins []string `json:"allowedOrigins" mapstructure:"allowedOrigins"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		PageSize:           1024,
		SegmentStartMarker: 4,
		Compression:        "gzip",
		DefaultSession:     "default",
		LogIDPrefix:        "sesrec_",
		MaxBatchBytes:      4 << 20,
	}
}

// Validate reports configuration values the server cannot run with.
func (c Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("config: pageSize must be positive, got %d", c.PageSize)
	}
	if c.MaxBatchBytes <= 0 {
		return fmt.Errorf("config: maxBatchBytes must be positive, got %d", c.MaxBatchBytes)
	}
	if strings.TrimSpace(c.DefaultSession) == "" {
		return errors.New("config: defaultSession must not be empty")
	}
	switch c.Compression {
	case "gzip", "zlib", "snappy", "none", "auto":
	default:
		return fmt.Errorf("config: unknown compression %q", c.Compression)
	}
	return nil
}

// Load reads configuration from a JSON, YAML or TOML file (by extension).
// If path is empty, returns defaults. Keys absent from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}
