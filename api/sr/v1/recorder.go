// Package srv1 defines the sr.v1 gRPC API.
package srv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The Recorder service is described by hand and carries well-known wrapper
// messages, so no generated code is needed:
//
//	service Recorder {
//	  // session in "sr-session" metadata; each request is one batch,
//	  // each response the committed size of the log after that batch.
//	  rpc Record(stream google.protobuf.BytesValue) returns (stream google.protobuf.UInt64Value);
//	  // request: session; response: JSON segments. Optional "sr-filter" metadata.
//	  rpc ReadCurrent(google.protobuf.StringValue) returns (google.protobuf.BytesValue);
//	}
const (
	RecorderServiceName = "sr.v1.Recorder"
	RecordMethod        = "/sr.v1.Recorder/Record"
	ReadCurrentMethod   = "/sr.v1.Recorder/ReadCurrent"

	SessionMetadataKey = "sr-session"
	FilterMetadataKey  = "sr-filter"
)

// RecorderServer is the server API for the Recorder service.
type RecorderServer interface {
	Record(stream RecordServerStream) error
	ReadCurrent(ctx context.Context, session *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
}

// RecordServerStream is the server side of Record.
type RecordServerStream interface {
	Send(*wrapperspb.UInt64Value) error
	Recv() (*wrapperspb.BytesValue, error)
	grpc.ServerStream
}

type recordServerStream struct {
	grpc.ServerStream
}

func (x *recordServerStream) Send(m *wrapperspb.UInt64Value) error { return x.ServerStream.SendMsg(m) }

func (x *recordServerStream) Recv() (*wrapperspb.BytesValue, error) {
	m := new(wrapperspb.BytesValue)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func recordHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(RecorderServer).Record(&recordServerStream{stream})
}

func readCurrentHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RecorderServer).ReadCurrent(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ReadCurrentMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RecorderServer).ReadCurrent(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// RecorderServiceDesc is the grpc.ServiceDesc for the Recorder service.
var RecorderServiceDesc = grpc.ServiceDesc{
	ServiceName: RecorderServiceName,
	HandlerType: (*RecorderServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ReadCurrent", Handler: readCurrentHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Record", Handler: recordHandler, ServerStreams: true, ClientStreams: true},
	},
	Metadata: "sr/v1/recorder.proto",
}

// RegisterRecorderServer registers srv on s.
func RegisterRecorderServer(s grpc.ServiceRegistrar, srv RecorderServer) {
	s.RegisterService(&RecorderServiceDesc, srv)
}

// RecorderClient is the client API for the Recorder service.
type RecorderClient struct {
	cc grpc.ClientConnInterface
}

// NewRecorderClient wraps a connection.
func NewRecorderClient(cc grpc.ClientConnInterface) *RecorderClient {
	return &RecorderClient{cc: cc}
}

// Record opens a batch stream for session.
func (c *RecorderClient) Record(ctx context.Context, session string, opts ...grpc.CallOption) (*RecordClientStream, error) {
	ctx = metadata.AppendToOutgoingContext(ctx, SessionMetadataKey, session)
	stream, err := c.cc.NewStream(ctx, &RecorderServiceDesc.Streams[0], RecordMethod, opts...)
	if err != nil {
		return nil, err
	}
	return &RecordClientStream{ClientStream: stream}, nil
}

// ReadCurrent returns the JSON-encoded segments of session.
func (c *RecorderClient) ReadCurrent(ctx context.Context, session, filter string, opts ...grpc.CallOption) ([]byte, error) {
	if filter != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, FilterMetadataKey, filter)
	}
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, ReadCurrentMethod, wrapperspb.String(session), out, opts...); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

// RecordClientStream is the client side of Record.
type RecordClientStream struct {
	grpc.ClientStream
}

// Send submits one batch.
func (x *RecordClientStream) Send(batch []byte) error {
	return x.ClientStream.SendMsg(wrapperspb.Bytes(batch))
}

// Recv returns the committed log size after the next acknowledged batch.
func (x *RecordClientStream) Recv() (uint64, error) {
	m := new(wrapperspb.UInt64Value)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return 0, err
	}
	return m.GetValue(), nil
}
