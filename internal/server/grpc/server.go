package grpcserver

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	srv1 "github.com/colinclerk/sr/api/sr/v1"
	"github.com/colinclerk/sr/internal/recorder"
	"github.com/colinclerk/sr/internal/runtime"
	logpkg "github.com/colinclerk/sr/pkg/log"
)

// healthInterval is how often the health service re-checks the runtime.
const healthInterval = 10 * time.Second

// defaultStopGrace is how long GracefulStop may wait on open Record streams
// before they are cancelled.
const defaultStopGrace = 5 * time.Second

// Server owns the gRPC server instance and runtime.
type Server struct {
	rt     *runtime.Runtime
	grpc   *grpc.Server
	lis    net.Listener
	health *healthReporter
	logger logpkg.Logger
	grace  time.Duration
}

// New constructs a gRPC server and registers services.
func New(rt *runtime.Runtime, svc *recorder.Service, logger logpkg.Logger, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	logger = logger.With(logpkg.Component("grpc"))
	// Leave room for message framing around a maximal batch.
	opts = append([]grpc.ServerOption{grpc.MaxRecvMsgSize(rt.Config().MaxBatchBytes + 1<<10)}, opts...)
	s := &Server{rt: rt, grpc: grpc.NewServer(opts...), health: newHealthReporter(rt), logger: logger, grace: defaultStopGrace}
	srv1.RegisterRecorderServer(s.grpc, &recorderSvc{svc: svc, logger: logger})
	healthpb.RegisterHealthServer(s.grpc, s.health.srv)
	s.health.refresh(context.Background())
	return s
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve accepts connections on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.lis = l
	s.logger.Info("grpc listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(l) }()
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.health.srv.Shutdown()
			s.stop()
			return nil
		case err := <-errCh:
			return err
		case <-ticker.C:
			s.health.refresh(ctx)
		}
	}
}

// stop drains RPCs gracefully, then cancels whatever is still running
// once the grace period is over. Bidi Record streams only end that way.
func (s *Server) stop() {
	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	t := time.NewTimer(s.grace)
	defer t.Stop()
	select {
	case <-done:
	case <-t.C:
		s.logger.Warn("graceful stop timed out, cancelling open streams", logpkg.Str("grace", s.grace.String()))
		s.grpc.Stop()
		<-done
	}
}

// Close stops the server and closes the listener.
func (s *Server) Close() {
	if s.grpc != nil {
		s.stop()
	}
	if s.lis != nil {
		_ = s.lis.Close()
	}
}
