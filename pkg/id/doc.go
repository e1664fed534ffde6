// Package id generates the identifiers given to recording logs and ingest
// connections.
//
// An ID is 16 bytes: Unix milliseconds then a per-millisecond sequence, both
// big-endian, so byte order is creation order. The Generator never goes
// backwards within a process, even when the wall clock does.
//
// Recording logs use the 26-character Crockford base32 Text form behind a
// configurable prefix:
//
//	g := id.NewGenerator()
//	logID := g.NextText("sesrec_") // sesrec_01HF8Z...
//	id, _ := id.ParseText(strings.TrimPrefix(logID, "sesrec_"))
//	created := id.Time()
package id
