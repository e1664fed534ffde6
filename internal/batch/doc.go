// Package batch decodes the payload of one recorded batch: a compressed JSON
// array of replay events as produced by the browser recorder.
//
// The compression layer is selected by name:
//   - gzip: the default, as produced by browser recorders
//   - zlib: zlib-wrapped deflate
//   - snappy: block-format snappy
//   - none: raw JSON
//   - auto: sniff gzip/zlib magic bytes, falling back to raw JSON
//
// Decoded events keep their original JSON bytes so a read returns exactly what
// the recorder sent; only the "type" and "timestamp" fields are interpreted.
//
//	codec, _ := batch.NewCodec("gzip")
//	events, err := codec.Decode(buf)
package batch
