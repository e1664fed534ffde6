package id

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"sync"
	"time"
)

// ID is a 128-bit identifier: 8 bytes of big-endian Unix milliseconds
// followed by an 8-byte big-endian sequence.
type ID [16]byte

// Compare orders IDs byte-wise, which is also chronological order.
func (i ID) Compare(other ID) int { return bytes.Compare(i[:], other[:]) }

// Time returns the millisecond timestamp encoded in the ID.
func (i ID) Time() time.Time {
	return time.UnixMilli(int64(binary.BigEndian.Uint64(i[:8])))
}

// crockford is in ASCII order, so encoded IDs sort like their bytes.
const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// textLen is ceil(128/5).
const textLen = 26

var ErrInvalidText = errors.New("id: invalid text encoding")

// Text returns the 26-character Crockford base32 form.
func (i ID) Text() string {
	out := make([]byte, textLen)
	// 130 output bits for 128 input bits: the first digit carries two zero bits.
	hi, lo := binary.BigEndian.Uint64(i[:8]), binary.BigEndian.Uint64(i[8:])
	for n := textLen - 1; n >= 0; n-- {
		out[n] = crockford[lo&0x1f]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out)
}

// ParseText decodes the output of Text. Lower-case input is accepted.
func ParseText(s string) (ID, error) {
	var id ID
	if len(s) != textLen {
		return id, ErrInvalidText
	}
	var hi, lo uint64
	for n := 0; n < textLen; n++ {
		v := strings.IndexByte(crockford, strings.ToUpper(s[n:n+1])[0])
		if v < 0 || (n == 0 && v > 7) {
			return id, ErrInvalidText
		}
		hi = hi<<5 | lo>>59
		lo = lo<<5 | uint64(v)
	}
	binary.BigEndian.PutUint64(id[:8], hi)
	binary.BigEndian.PutUint64(id[8:], lo)
	return id, nil
}

// Generator hands out strictly increasing IDs within a process.
type Generator struct {
	mu     sync.Mutex
	clock  func() int64
	lastMs int64
	seq    uint64
}

// NewGenerator creates a Generator on the wall clock.
func NewGenerator() *Generator { return NewGeneratorWithClock(nil) }

// NewGeneratorWithClock creates a Generator reading milliseconds from clock.
func NewGeneratorWithClock(clock func() int64) *Generator {
	if clock == nil {
		clock = func() int64 { return time.Now().UnixMilli() }
	}
	return &Generator{clock: clock}
}

// Next returns a new ID. A regressing clock is pinned to the last seen
// millisecond; an exhausted sequence waits for the next millisecond.
func (g *Generator) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.clock()
	switch {
	case ms > g.lastMs:
		g.seq = 0
	case g.seq < math.MaxUint64:
		ms = g.lastMs
		g.seq++
	default:
		for ms <= g.lastMs {
			time.Sleep(time.Millisecond / 8)
			ms = g.clock()
		}
		g.seq = 0
	}
	g.lastMs = ms

	var id ID
	binary.BigEndian.PutUint64(id[:8], uint64(ms))
	binary.BigEndian.PutUint64(id[8:], g.seq)
	return id
}

// NextText returns prefix followed by the Text form of a new ID.
func (g *Generator) NextText(prefix string) string {
	return prefix + g.Next().Text()
}
