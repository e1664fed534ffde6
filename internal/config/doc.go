// Package config provides loading and environment overlay for the sr server
// configuration. It exposes a Default() baseline, a file loader (JSON, YAML or
// TOML via viper) and an SR_* environment overlay.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/sr.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
//	rt, _ := runtime.Open(runtime.Options{DataDir: "/var/lib/sr", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
package config
