// Package pebblestore is the single Pebble database behind an sr node.
// Recording pages, write cursors and catalog entries share one keyspace.
//
// Writes honour an fsync policy: always (sync each commit), interval
// (group commit through Pebble's WALMinSyncInterval) or never. A MetricsHook
// sees every read, write and commit; Counters keeps running totals that the
// health endpoint reports.
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeAlways,
//	    Metrics: &pebblestore.Counters{},
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	_ = db.SetContext(ctx, key, page)
//	v, err := db.Get(key) // pebblestore.ErrNotFound when absent
//	_ = db.ScanPrefix([]byte("recmeta/"), func(k, v []byte) bool { return true })
package pebblestore
