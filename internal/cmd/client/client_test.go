package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http/httptest"
	"strings"
	"testing"

	cfgpkg "github.com/colinclerk/sr/internal/config"
	"github.com/colinclerk/sr/internal/recorder"
	"github.com/colinclerk/sr/internal/runtime"
	grpcserver "github.com/colinclerk/sr/internal/server/grpc"
	httpserver "github.com/colinclerk/sr/internal/server/http"
	pebblestore "github.com/colinclerk/sr/internal/storage/pebble"
	logpkg "github.com/colinclerk/sr/pkg/log"
)

// startServers brings up HTTP and gRPC endpoints over one runtime and
// points SR_GRPC at the gRPC listener.
func startServers(t *testing.T) BaseURLFunc {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.PageSize = 32
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfg})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	logger, _ := logpkg.ApplyConfig(&logpkg.Config{Level: "error", Format: "text"})
	svc := recorder.NewWithLogger(rt, logger)

	hs := httptest.NewServer(httpserver.New(rt, svc, logger).Handler())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	gs := grpcserver.New(rt, svc, logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { _ = gs.Serve(ctx, lis); close(done) }()

	t.Setenv("SR_GRPC", lis.Addr().String())
	t.Cleanup(func() {
		hs.Close()
		cancel()
		<-done
		gs.Close()
		_ = rt.Close()
	})
	return func() string { return hs.URL }
}

func run(t *testing.T, base BaseURLFunc, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRoot(base)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

const capture = `[{"type":4,"timestamp":1,"data":{"href":"https://example.test/"}},{"type":2,"timestamp":2,"data":{}}]

[{"type":3,"timestamp":3,"data":{"source":2}}]
[{"type":4,"timestamp":4,"data":{}},{"type":3,"timestamp":5,"data":{"source":1}}]
`

func segmentsOf(t *testing.T, body string) [][]map[string]any {
	t.Helper()
	var segs [][]map[string]any
	if err := json.Unmarshal([]byte(body), &segs); err != nil {
		t.Fatalf("decode segments %q: %v", body, err)
	}
	return segs
}

func TestPushAndReadOverWebSocket(t *testing.T) {
	base := startServers(t)
	out, err := run(t, base, capture, "session", "push", "tab-1")
	if err != nil {
		t.Fatalf("push: %v (%s)", err, out)
	}
	if !strings.Contains(out, "3 batches") {
		t.Fatalf("push output: %q", out)
	}

	out, err = run(t, base, "", "session", "read", "tab-1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	segs := segmentsOf(t, out)
	if len(segs) != 2 || len(segs[0]) != 3 || len(segs[1]) != 2 {
		t.Fatalf("segments: %v", segs)
	}

	out, err = run(t, base, "", "session", "read", "tab-1", "--filter", "type == 3")
	if err != nil {
		t.Fatalf("filtered read: %v", err)
	}
	segs = segmentsOf(t, out)
	if len(segs) != 2 || len(segs[0]) != 1 || len(segs[1]) != 1 {
		t.Fatalf("filtered segments: %v", segs)
	}
}

func TestPushAndReadOverGRPC(t *testing.T) {
	base := startServers(t)
	out, err := run(t, base, capture, "session", "push", "tab-2", "--transport", "grpc", "--compression", "gzip")
	if err != nil {
		t.Fatalf("push: %v (%s)", err, out)
	}
	out, err = run(t, base, "", "session", "read", "tab-2", "--transport", "grpc")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if segs := segmentsOf(t, out); len(segs) != 2 {
		t.Fatalf("segments: %v", segs)
	}
}

func TestReadUnknownSessionIsEmpty(t *testing.T) {
	base := startServers(t)
	out, err := run(t, base, "", "session", "read", "nobody")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("want [], got %q", out)
	}
}

func TestPushRejectsNonArrayLine(t *testing.T) {
	base := startServers(t)
	_, err := run(t, base, `{"type":4}`+"\n", "session", "push", "tab-3")
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("want line error, got %v", err)
	}
}

func TestCursorAndRecordings(t *testing.T) {
	base := startServers(t)
	if _, err := run(t, base, capture, "session", "push", "tab-4"); err != nil {
		t.Fatalf("push: %v", err)
	}

	out, err := run(t, base, "", "session", "cursor", "tab-4")
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	var cur struct {
		LogID   string `json:"logId"`
		Batches int    `json:"batches"`
	}
	if err := json.Unmarshal([]byte(out), &cur); err != nil {
		t.Fatalf("decode cursor %q: %v", out, err)
	}
	if cur.Batches != 3 || !strings.HasPrefix(cur.LogID, "sesrec_") {
		t.Fatalf("cursor: %+v", cur)
	}

	out, err = run(t, base, "", "recordings", "list", "--session", "tab-4")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, cur.LogID) || !strings.Contains(out, "tab-4") {
		t.Fatalf("list output: %q", out)
	}

	out, err = run(t, base, "", "recordings", "get", cur.LogID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.Contains(out, cur.LogID) {
		t.Fatalf("get output: %q", out)
	}

	if _, err := run(t, base, "", "recordings", "get", "sesrec_missing"); err == nil {
		t.Fatalf("expected error for unknown recording")
	}
}

func TestCursorMissingSession(t *testing.T) {
	base := startServers(t)
	_, err := run(t, base, "", "session", "cursor", "ghost")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("want 404, got %v", err)
	}
}

func TestConnectionsEmpty(t *testing.T) {
	base := startServers(t)
	out, err := run(t, base, "", "session", "connections", "tab-5")
	if err != nil {
		t.Fatalf("connections: %v", err)
	}
	if !strings.Contains(out, "TRANSPORT") {
		t.Fatalf("connections output: %q", out)
	}
}

func TestGetTransport(t *testing.T) {
	base := func() string { return "http://127.0.0.1:1" }
	for _, name := range []string{"", "ws", "http", "grpc", "GRPC"} {
		if _, err := getTransport(name, base); err != nil {
			t.Fatalf("%q: %v", name, err)
		}
	}
	if _, err := getTransport("carrier-pigeon", base); err == nil {
		t.Fatalf("expected error")
	}
}

func TestGRPCAddrFromEnv(t *testing.T) {
	t.Setenv("SR_GRPC", "")
	if got := grpcAddrFromEnv(); got != "127.0.0.1:50051" {
		t.Fatalf("default: %q", got)
	}
	t.Setenv("SR_GRPC", "10.0.0.1:9000")
	if got := grpcAddrFromEnv(); got != "10.0.0.1:9000" {
		t.Fatalf("env: %q", got)
	}
}
