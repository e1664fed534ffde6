package batch

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Compression names a batch compression scheme.
type Compression string

const (
	Gzip   Compression = "gzip"
	Zlib   Compression = "zlib"
	Snappy Compression = "snappy"
	None   Compression = "none"
	Auto   Compression = "auto"
)

var ErrUnknownCompression = errors.New("batch: unknown compression")

// ParseCompression validates a compression name.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(s); c {
	case Gzip, Zlib, Snappy, None, Auto:
		return c, nil
	case "":
		return Gzip, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCompression, s)
	}
}

// Decompress inflates b according to c.
func Decompress(c Compression, b []byte) ([]byte, error) {
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		return readAll(zr, "gzip")
	case Zlib:
		zr, err := zlib.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, fmt.Errorf("zlib: %w", err)
		}
		defer zr.Close()
		return readAll(zr, "zlib")
	case Snappy:
		out, err := snappy.Decode(nil, b)
		if err != nil {
			return nil, fmt.Errorf("snappy: %w", err)
		}
		return out, nil
	case None:
		return b, nil
	case Auto:
		return Decompress(sniff(b), b)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, c)
	}
}

// Compress deflates b according to c. Auto compresses with gzip.
func Compress(c Compression, b []byte) ([]byte, error) {
	var buf bytes.Buffer
	switch c {
	case Gzip, Auto:
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(b); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case Zlib:
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(b); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case Snappy:
		return snappy.Encode(nil, b), nil
	case None:
		return append([]byte(nil), b...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, c)
	}
}

// sniff guesses the compression of b from its leading bytes.
func sniff(b []byte) Compression {
	if len(b) >= 2 && b[0] == 0x1f && b[1] == 0x8b {
		return Gzip
	}
	// zlib: CMF=deflate with window <= 32K, header checksum divisible by 31.
	if len(b) >= 2 && b[0]&0x0f == 8 && b[0]>>4 <= 7 && (uint16(b[0])<<8|uint16(b[1]))%31 == 0 {
		return Zlib
	}
	return None
}

func readAll(r io.Reader, name string) ([]byte, error) {
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
