package transports

import "context"

// Ack acknowledges one committed batch. Transports fill what they know:
// WebSocket reports the end boundary, gRPC the committed log size.
type Ack struct {
	Page   uint64
	Offset int
	Size   uint64
}

// BatchStream sends batches to one session, one acknowledged batch at a time.
type BatchStream interface {
	Send(ctx context.Context, batch []byte) (Ack, error)
	Close() error
}

// RecorderTransport abstracts the transport used by the CLI (gRPC/WebSocket).
type RecorderTransport interface {
	// Push opens a batch stream to session.
	Push(ctx context.Context, session string) (BatchStream, error)
	// ReadCurrent returns the session's segments as a JSON array.
	ReadCurrent(ctx context.Context, session, filter string) ([]byte, error)
}
