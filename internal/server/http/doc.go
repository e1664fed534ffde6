// Package httpserver provides the REST gateway and the WebSocket ingest
// endpoint.
//
// Routes:
//
//	GET  /v1/healthz
//	GET  /sr/ws?session=                       WebSocket; binary message = one batch
//	POST /v1/sessions/{session}/batches        body = one batch
//	GET  /v1/sessions/{session}/segments       ?filter=CEL
//	GET  /v1/sessions/{session}/cursor
//	GET  /v1/sessions/{session}/connections
//	GET  /v1/sessions
//	GET  /v1/recordings                        ?session=&limit=
//	GET  /v1/recordings/{id}
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: config.Default()})
//	s := httpserver.New(rt, recorder.New(rt), logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
