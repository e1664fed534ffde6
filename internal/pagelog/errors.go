package pagelog

import "errors"

var (
	// ErrCorrupt marks a log whose stored state is inconsistent: a missing or
	// short page, a cursor that fails its checksum, or a cursor whose fields
	// contradict each other. It is never retried.
	ErrCorrupt = errors.New("pagelog: log corrupt")

	// ErrPageNotFound is returned by a Store when a page key is absent.
	ErrPageNotFound = errors.New("pagelog: page not found")

	// ErrDecode is returned when a committed batch cannot be decompressed or decoded.
	ErrDecode = errors.New("pagelog: batch decode failed")

	// ErrNoSegmentStart is returned when the first batch of a log does not carry
	// the segment-start marker, so there is no segment to append it to.
	ErrNoSegmentStart = errors.New("pagelog: first batch does not start a segment")

	// ErrRegister is returned when the catalog rejects a newly created log.
	// Nothing is committed; the next append retries creation.
	ErrRegister = errors.New("pagelog: log registration failed")
)
