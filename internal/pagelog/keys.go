package pagelog

import (
	"encoding/binary"
)

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - rec/{session}/m              (write cursor)
// - rec/{session}/p/{page_be8}   (pages)

var (
	recPrefix = []byte("rec/")
	cursorSuf = []byte("/m")
	pageSeg   = []byte("/p/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// KeyCursor builds the cursor (metadata) key for a session's log.
func KeyCursor(session string) []byte {
	k := make([]byte, 0, len(recPrefix)+len(session)+len(cursorSuf))
	k = append(k, recPrefix...)
	k = append(k, session...)
	k = append(k, cursorSuf...)
	return k
}

// KeyPagePrefix returns the prefix shared by all page keys of a session.
func KeyPagePrefix(session string) []byte {
	k := make([]byte, 0, len(recPrefix)+len(session)+len(pageSeg)+8)
	k = append(k, recPrefix...)
	k = append(k, session...)
	k = append(k, pageSeg...)
	return k
}

// KeyPage builds the key for a page with a big-endian index for proper ordering.
func KeyPage(session string, index uint64) []byte {
	return appendBE8(KeyPagePrefix(session), index)
}
