// Package runtime wires storage, config, and facades into a single-node
// recorder instance. It exposes Open/Close, basic health checks, and helpers
// to open the per-session page logs used by higher-level services.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: config.Default()})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	log, _ := rt.OpenLog(context.Background(), "tab-42")
//	_, _ = log.Append(context.Background(), batchBytes)
package runtime
