// Package pagelog stores an append-only log of opaque batches in fixed-size
// pages.
//
// Batches are packed back to back with no per-batch header: a batch may
// start in the middle of one page and end several pages later. The write
// cursor records where each batch ends, so reading the log back is a
// matter of loading the pages and cutting them at the recorded boundaries.
//
// Keys for one session live under rec/{session}/:
//
//	rec/{session}/m             write cursor (CRC32C framed)
//	rec/{session}/p/{page_be8}  page bytes
//
// A page below the open page is sealed and holds exactly PageSize bytes.
// The open page holds Fill committed bytes and possibly an uncommitted tail
// left by a failed append; readers and the next append ignore the tail.
//
// Reading groups decoded batches into segments: a batch whose first event
// has the segment-start type opens a new segment.
package pagelog
