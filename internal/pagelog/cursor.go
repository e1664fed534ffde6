package pagelog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

// Boundary marks the end of one committed batch: Offset bytes into Page.
type Boundary struct {
	Page   uint64 `json:"page"`
	Offset int    `json:"offset"`
}

// Cursor is the persisted write position of a log.
type Cursor struct {
	LogID string `json:"logId"`
	// PageSize is fixed when the log is created and never changes afterwards.
	PageSize int `json:"pageSize"`
	// OpenPage is the index of the page accepting writes.
	OpenPage uint64 `json:"openPage"`
	// Fill is the number of committed bytes in OpenPage.
	Fill       int        `json:"fill"`
	Boundaries []Boundary `json:"boundaries"`
}

// abs converts a (page, offset) position into an absolute byte offset.
func (c Cursor) abs(page uint64, offset int) uint64 {
	return page*uint64(c.PageSize) + uint64(offset)
}

// Size is the number of committed bytes in the log.
func (c Cursor) Size() uint64 { return c.abs(c.OpenPage, c.Fill) }

// Committed is the number of bytes covered by recorded boundaries.
func (c Cursor) Committed() uint64 {
	if len(c.Boundaries) == 0 {
		return 0
	}
	last := c.Boundaries[len(c.Boundaries)-1]
	return c.abs(last.Page, last.Offset)
}

// Validate checks the internal consistency of a cursor.
func (c Cursor) Validate() error {
	if c.LogID == "" {
		return fmt.Errorf("%w: cursor has no log id", ErrCorrupt)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: cursor page size %d", ErrCorrupt, c.PageSize)
	}
	if c.Fill < 0 || c.Fill > c.PageSize {
		return fmt.Errorf("%w: fill %d outside [0,%d]", ErrCorrupt, c.Fill, c.PageSize)
	}
	var prev uint64
	for i, b := range c.Boundaries {
		if b.Offset < 0 || b.Offset > c.PageSize {
			return fmt.Errorf("%w: boundary %d offset %d outside [0,%d]", ErrCorrupt, i, b.Offset, c.PageSize)
		}
		if b.Page > c.OpenPage {
			return fmt.Errorf("%w: boundary %d on page %d beyond open page %d", ErrCorrupt, i, b.Page, c.OpenPage)
		}
		pos := c.abs(b.Page, b.Offset)
		if pos < prev {
			return fmt.Errorf("%w: boundary %d goes backwards", ErrCorrupt, i)
		}
		prev = pos
	}
	if prev > c.Size() {
		return fmt.Errorf("%w: last boundary at byte %d beyond write position %d", ErrCorrupt, prev, c.Size())
	}
	return nil
}

func (c Cursor) clone() Cursor {
	out := c
	out.Boundaries = append([]Boundary(nil), c.Boundaries...)
	return out
}

// Cursor encoding: version(1) | uvarint fields | crc32c(version|fields) (4B BE)
//
// fields: len(logId) logId pageSize openPage fill count {page offset}*count

const cursorVersion = 1

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

var errShortCursor = errors.New("truncated cursor record")

// EncodeCursor serializes c with a trailing checksum.
func EncodeCursor(c Cursor) []byte {
	out := make([]byte, 0, 1+len(c.LogID)+10*4+len(c.Boundaries)*6+4)
	out = append(out, cursorVersion)
	out = binary.AppendUvarint(out, uint64(len(c.LogID)))
	out = append(out, c.LogID...)
	out = binary.AppendUvarint(out, uint64(c.PageSize))
	out = binary.AppendUvarint(out, c.OpenPage)
	out = binary.AppendUvarint(out, uint64(c.Fill))
	out = binary.AppendUvarint(out, uint64(len(c.Boundaries)))
	for _, b := range c.Boundaries {
		out = binary.AppendUvarint(out, b.Page)
		out = binary.AppendUvarint(out, uint64(b.Offset))
	}
	return binary.BigEndian.AppendUint32(out, crc32.Checksum(out, castagnoli))
}

// DecodeCursor parses and validates the output of EncodeCursor.
func DecodeCursor(b []byte) (Cursor, error) {
	if len(b) < 1+4 {
		return Cursor{}, fmt.Errorf("%w: %v", ErrCorrupt, errShortCursor)
	}
	body, sum := b[:len(b)-4], binary.BigEndian.Uint32(b[len(b)-4:])
	if crc32.Checksum(body, castagnoli) != sum {
		return Cursor{}, fmt.Errorf("%w: cursor checksum mismatch", ErrCorrupt)
	}
	if body[0] != cursorVersion {
		return Cursor{}, fmt.Errorf("%w: unknown cursor version %d", ErrCorrupt, body[0])
	}
	r := uvarintReader{b: body[1:]}
	idLen := r.next()
	if r.err == nil && idLen > uint64(len(r.b)) {
		r.err = errShortCursor
	}
	var c Cursor
	if r.err == nil {
		c.LogID = string(r.b[:idLen])
		r.b = r.b[idLen:]
	}
	c.PageSize = int(r.next())
	c.OpenPage = r.next()
	c.Fill = int(r.next())
	n := r.next()
	if r.err == nil && n > uint64(len(r.b)) {
		// every boundary takes at least two bytes
		r.err = errShortCursor
	}
	if r.err == nil && n > 0 {
		c.Boundaries = make([]Boundary, 0, n)
		for i := uint64(0); i < n && r.err == nil; i++ {
			page := r.next()
			off := r.next()
			c.Boundaries = append(c.Boundaries, Boundary{Page: page, Offset: int(off)})
		}
	}
	if r.err == nil && len(r.b) != 0 {
		r.err = fmt.Errorf("%d trailing bytes", len(r.b))
	}
	if r.err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrCorrupt, r.err)
	}
	if err := c.Validate(); err != nil {
		return Cursor{}, err
	}
	return c, nil
}

type uvarintReader struct {
	b   []byte
	err error
}

func (r *uvarintReader) next() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.b)
	if n <= 0 {
		r.err = errShortCursor
		return 0
	}
	r.b = r.b[n:]
	return v
}
