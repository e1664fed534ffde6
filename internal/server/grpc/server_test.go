package grpcserver

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	srv1 "github.com/colinclerk/sr/api/sr/v1"
	"github.com/colinclerk/sr/internal/batch"
	cfgpkg "github.com/colinclerk/sr/internal/config"
	"github.com/colinclerk/sr/internal/recorder"
	"github.com/colinclerk/sr/internal/runtime"
	pebblestore "github.com/colinclerk/sr/internal/storage/pebble"
	logpkg "github.com/colinclerk/sr/pkg/log"
)

const bufSize = 1 << 20

func dialer(s *grpc.Server) func(context.Context, string) (net.Conn, error) {
	lis := bufconn.Listen(bufSize)
	go func() { _ = s.Serve(lis) }()
	return func(ctx context.Context, s string) (net.Conn, error) { return lis.DialContext(ctx) }
}

func setup(t *testing.T) (*grpc.ClientConn, *recorder.Service) {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.PageSize = 16
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfg})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	logger := logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	svc := recorder.NewWithLogger(rt, logger)
	srv := New(rt, svc, logger)
	t.Cleanup(srv.Close)
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(dialer(srv.grpc)),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn, svc
}

func gz(t *testing.T, events ...string) []byte {
	t.Helper()
	raws := make([]json.RawMessage, len(events))
	for i, e := range events {
		raws[i] = json.RawMessage(e)
	}
	b, err := batch.DefaultCodec().Encode(raws)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return b
}

func TestHealthOverGRPC(t *testing.T) {
	conn, _ := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c := healthpb.NewHealthClient(conn)
	for _, svc := range []string{"", srv1.RecorderServiceName} {
		res, err := c.Check(ctx, &healthpb.HealthCheckRequest{Service: svc})
		if err != nil {
			t.Fatalf("check %q: %v", svc, err)
		}
		if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("status %q: %v", svc, res.GetStatus())
		}
	}
}

func TestRecordAndReadCurrent(t *testing.T) {
	conn, svc := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c := srv1.NewRecorderClient(conn)

	stream, err := c.Record(ctx, "tab")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	batches := [][]byte{
		gz(t, `{"type":4,"timestamp":1}`, `{"type":2,"timestamp":2}`),
		gz(t, `{"type":3,"timestamp":3}`),
		gz(t, `{"type":4,"timestamp":4}`),
	}
	var total, last uint64
	for _, b := range batches {
		if err := stream.Send(b); err != nil {
			t.Fatalf("send: %v", err)
		}
		size, err := stream.Recv()
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		total += uint64(len(b))
		if size != total || size <= last {
			t.Fatalf("committed size %d, want %d", size, total)
		}
		last = size
	}
	rec, err := svc.Recorder(ctx, "tab")
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	if conns := rec.Connections(); len(conns) != 1 || conns[0].Transport != "grpc" {
		t.Fatalf("unexpected connections %+v", conns)
	}
	if err := stream.CloseSend(); err != nil {
		t.Fatalf("close send: %v", err)
	}
	if _, err := stream.Recv(); err == nil {
		t.Fatalf("expected end of stream")
	}

	raw, err := c.ReadCurrent(ctx, "tab", "")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var segs [][]json.RawMessage
	if err := json.Unmarshal(raw, &segs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(segs) != 2 || len(segs[0]) != 3 || len(segs[1]) != 1 {
		t.Fatalf("unexpected segments %s", raw)
	}

	raw, err = c.ReadCurrent(ctx, "tab", "timestamp >= 3")
	if err != nil {
		t.Fatalf("filtered read: %v", err)
	}
	if err := json.Unmarshal(raw, &segs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(segs) != 2 || len(segs[0]) != 1 {
		t.Fatalf("unexpected filtered segments %s", raw)
	}
}

func TestReadCurrentErrors(t *testing.T) {
	conn, svc := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c := srv1.NewRecorderClient(conn)

	if _, err := c.ReadCurrent(ctx, "a b", ""); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	if _, err := c.ReadCurrent(ctx, "tab", "type =="); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for filter, got %v", err)
	}
	if _, err := svc.Append(ctx, "bad", []byte("garbage")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := c.ReadCurrent(ctx, "bad", ""); status.Code(err) != codes.DataLoss {
		t.Fatalf("expected DataLoss, got %v", err)
	}
	raw, err := c.ReadCurrent(ctx, "empty", "")
	if err != nil || string(raw) != "[]" {
		t.Fatalf("expected empty list, got %q %v", raw, err)
	}
}

func TestServeStopsWithOpenRecordStream(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.PageSize = 16
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfg})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	logger := logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	svc := recorder.NewWithLogger(rt, logger)
	srv := New(rt, svc, logger)
	srv.grace = 100 * time.Millisecond

	lis := bufconn.Listen(bufSize)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	rctx, rcancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer rcancel()
	stream, err := srv1.NewRecorderClient(conn).Record(rctx, "tab")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := stream.Send(gz(t, `{"type":4,"timestamp":1}`)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := stream.Recv(); err != nil {
		t.Fatalf("recv: %v", err)
	}

	cancel()
	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve hung on an open record stream")
	}
	dctx, dcancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer dcancel()
	if err := svc.Drain(dctx); err != nil {
		t.Fatalf("record handler still running: %v", err)
	}
	if _, err := stream.Recv(); err == nil {
		t.Fatalf("expected stream to be cancelled")
	}
}
