// Package serverrun starts a complete sr node: one Pebble-backed runtime,
// one recorder service, and the gRPC and HTTP listeners in front of it.
//
// Both addresses are bound before anything is served, so a port clash fails
// Run immediately. Run returns when ctx is cancelled, on SIGINT/SIGTERM, or
// when either server stops with an error. The process logger is built from
// SR_LOG_LEVEL and SR_LOG_FORMAT.
//
//	err := serverrun.Run(ctx, serverrun.Options{
//	    DataDir:  "./data",
//	    GRPCAddr: ":50051",
//	    HTTPAddr: ":8080",
//	    Fsync:    pebblestore.FsyncModeInterval,
//	    Config:   config.Default(),
//	})
package serverrun
