package config

import (
	"os"
	"path/filepath"
)

// DefaultDataDir picks where the server keeps its store when --data-dir is
// not given. SR_DATA_DIR wins, then XDG_DATA_HOME, then the platform's usual
// application data location, then ~/.sr. Without a home directory it
// returns ./data.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return resolveDataDir(os.Getenv, home, isDir)
}

func resolveDataDir(getenv func(string) string, home string, dirExists func(string) bool) string {
	if v := getenv("SR_DATA_DIR"); v != "" {
		return v
	}
	if home == "" {
		return "./data"
	}
	if xdg := getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "sr")
	}
	candidates := []struct{ probe, dir string }{
		{"/var/lib", "/var/lib/sr"},
		{filepath.Join(home, "Library"), filepath.Join(home, "Library", "Application Support", "SR")},
		{filepath.Join(home, "AppData"), filepath.Join(home, "AppData", "Local", "SR")},
	}
	for _, c := range candidates {
		if dirExists(c.probe) {
			return c.dir
		}
	}
	return filepath.Join(home, ".sr")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
