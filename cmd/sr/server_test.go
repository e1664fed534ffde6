package main

import (
	"testing"

	pebblestore "github.com/colinclerk/sr/internal/storage/pebble"
)

func TestParseFsync(t *testing.T) {
	for in, want := range map[string]pebblestore.FsyncMode{
		"always":   pebblestore.FsyncModeAlways,
		"interval": pebblestore.FsyncModeInterval,
		"never":    pebblestore.FsyncModeNever,
	} {
		got, err := parseFsync(in)
		if err != nil || got != want {
			t.Fatalf("parseFsync(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := parseFsync("sometimes"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestServerStartRejectsBadConfigPath(t *testing.T) {
	cmd := newServerCommand()
	cmd.SetArgs([]string{"start", "--config", t.TempDir() + "/missing.yaml", "--data-dir", t.TempDir()})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected config load error")
	}
}

func TestAPIURL(t *testing.T) {
	t.Setenv("SR_HTTP", "")
	if apiURL() != "http://127.0.0.1:8080" {
		t.Fatalf("default api url: %q", apiURL())
	}
	t.Setenv("SR_HTTP", "http://sr.internal:9000")
	if apiURL() != "http://sr.internal:9000" {
		t.Fatalf("env api url: %q", apiURL())
	}
}
