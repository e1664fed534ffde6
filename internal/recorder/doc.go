// Package recorder serializes access to per-session page logs.
//
// Each session gets one Recorder. A Recorder is the single writer of its
// session's log, keeps the registry of live ingest connections, and serves
// reads with optional CEL filters over events:
//
//	type == 3 && timestamp > 1700000000000
//	segment == 0
//	has(event.data) && event.data.source == 2
package recorder
