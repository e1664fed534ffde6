package grpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	srv1 "github.com/colinclerk/sr/api/sr/v1"
	"github.com/colinclerk/sr/internal/catalog"
	"github.com/colinclerk/sr/internal/pagelog"
	"github.com/colinclerk/sr/internal/recorder"
	"github.com/colinclerk/sr/internal/runtime"
	logpkg "github.com/colinclerk/sr/pkg/log"
)

type recorderSvc struct {
	svc    *recorder.Service
	logger logpkg.Logger
}

func (s *recorderSvc) Record(stream srv1.RecordServerStream) error {
	ctx, done, err := s.svc.Track(stream.Context())
	if err != nil {
		return toStatus(err)
	}
	defer done()
	rec, err := s.svc.Recorder(ctx, firstMD(ctx, srv1.SessionMetadataKey))
	if err != nil {
		return toStatus(err)
	}
	remote := ""
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		remote = p.Addr.String()
	}
	handle := rec.Accept("grpc", remote)
	defer rec.Release(handle.ID)

	for {
		in, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		res, err := rec.Append(ctx, in.GetValue())
		if err != nil {
			s.logger.Warn("record append failed", logpkg.Session(rec.Session()), logpkg.Str("conn", handle.ID), logpkg.Err(err))
			return toStatus(err)
		}
		if err := stream.Send(wrapperspb.UInt64(res.Size)); err != nil {
			return err
		}
	}
}

func (s *recorderSvc) ReadCurrent(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	segs, err := s.svc.ReadCurrent(ctx, req.GetValue(), firstMD(ctx, srv1.FilterMetadataKey))
	if err != nil {
		return nil, toStatus(err)
	}
	if segs == nil {
		segs = []pagelog.Segment{}
	}
	b, err := json.Marshal(segs)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.Bytes(b), nil
}

func firstMD(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

// toStatus maps service errors to gRPC status codes.
func toStatus(err error) error {
	code := codes.Internal
	switch {
	case errors.Is(err, pagelog.ErrCorrupt), errors.Is(err, pagelog.ErrDecode), errors.Is(err, pagelog.ErrNoSegmentStart):
		code = codes.DataLoss
	case errors.Is(err, runtime.ErrInvalidSession), errors.Is(err, recorder.ErrInvalidFilter):
		code = codes.InvalidArgument
	case errors.Is(err, recorder.ErrBatchTooLarge):
		code = codes.ResourceExhausted
	case errors.Is(err, catalog.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, pagelog.ErrRegister), errors.Is(err, recorder.ErrShuttingDown):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	}
	return status.Error(code, err.Error())
}
