// Package transports provides pluggable transport implementations for the CLI.
package transports

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"

	srv1 "github.com/colinclerk/sr/api/sr/v1"
)

// GrpcTransport implements RecorderTransport over gRPC.
type GrpcTransport struct {
	dial func(ctx context.Context) (*grpc.ClientConn, error)
}

// NewGrpcTransport constructs a new GrpcTransport using the provided dialer.
func NewGrpcTransport(dial func(ctx context.Context) (*grpc.ClientConn, error)) *GrpcTransport {
	return &GrpcTransport{dial: dial}
}

// Push opens a Record stream.
func (t *GrpcTransport) Push(ctx context.Context, session string) (BatchStream, error) {
	conn, err := t.dial(ctx)
	if err != nil {
		return nil, err
	}
	stream, err := srv1.NewRecorderClient(conn).Record(ctx, session)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &grpcBatchStream{conn: conn, stream: stream}, nil
}

// ReadCurrent calls ReadCurrent.
func (t *GrpcTransport) ReadCurrent(ctx context.Context, session, filter string) ([]byte, error) {
	conn, err := t.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()
	return srv1.NewRecorderClient(conn).ReadCurrent(ctx, session, filter)
}

type grpcBatchStream struct {
	conn   *grpc.ClientConn
	stream *srv1.RecordClientStream
}

func (s *grpcBatchStream) Send(_ context.Context, batch []byte) (Ack, error) {
	if err := s.stream.Send(batch); err != nil {
		if errors.Is(err, io.EOF) {
			// The server ended the stream; Recv carries the status.
			_, err = s.stream.Recv()
		}
		return Ack{}, err
	}
	size, err := s.stream.Recv()
	if err != nil {
		return Ack{}, err
	}
	return Ack{Size: size}, nil
}

func (s *grpcBatchStream) Close() error {
	defer func() { _ = s.conn.Close() }()
	if err := s.stream.CloseSend(); err != nil {
		return err
	}
	if _, err := s.stream.Recv(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
