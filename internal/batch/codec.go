package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Codec turns stored batch bytes into events and back.
type Codec struct {
	compression Compression
}

// NewCodec returns a Codec for the named compression.
func NewCodec(compression string) (Codec, error) {
	c, err := ParseCompression(compression)
	if err != nil {
		return Codec{}, err
	}
	return Codec{compression: c}, nil
}

// DefaultCodec decodes gzip batches.
func DefaultCodec() Codec { return Codec{compression: Gzip} }

// Compression reports the configured scheme.
func (c Codec) Compression() Compression { return c.compression }

// Decode decompresses b and parses the event array.
func (c Codec) Decode(b []byte) ([]Event, error) {
	raw, err := Decompress(c.compression, b)
	if err != nil {
		return nil, fmt.Errorf("batch: decompress: %w", err)
	}
	return DecodeEvents(raw)
}

// Encode serializes events as a JSON array and compresses it. It is the
// inverse of Decode and is used by clients that replay recorded events.
func (c Codec) Encode(events []json.RawMessage) ([]byte, error) {
	if events == nil {
		events = []json.RawMessage{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(events); err != nil {
		return nil, fmt.Errorf("batch: encode array: %w", err)
	}
	return Compress(c.compression, bytes.TrimRight(buf.Bytes(), "\n"))
}
