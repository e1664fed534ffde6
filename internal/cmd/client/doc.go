// Package client provides the `sr` command-line client.
//
// The CLI talks to the sr HTTP, WebSocket and gRPC endpoints to inspect
// recordings and to replay captured sessions from a terminal. It is
// primarily intended for developers and operators.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. When using the standalone binary, it
// defaults to http://127.0.0.1:8080 (SR_HTTP). The gRPC address is read
// from the SR_GRPC environment variable (default 127.0.0.1:50051).
//
// Usage
//
//	sr recordings list --session tab-42 --limit 20
//	sr recordings get sesrec_01J8Z3W9Q5R2M6T4V7X0Y1A2B3
//
//	sr session read tab-42 --pretty
//	sr session read tab-42 --filter 'type == 3 && timestamp > 1726833600000'
//	sr session read tab-42 --transport grpc
//	sr session cursor tab-42
//	sr session connections tab-42
//
//	# Replay a capture: one JSON array of events per line
//	sr session push tab-42 -f capture.ndjson
//	sr session push tab-42 -f capture.ndjson --transport grpc
//
//	# --compression must match the server's configured codec (default gzip)
//
// Notes
//
//   - push waits for every batch to be acknowledged before sending the next,
//     so the order of lines is the order of batches in the log.
//   - read over HTTP and gRPC return the same JSON document.
package client
