package grpcserver

import (
	"context"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	srv1 "github.com/colinclerk/sr/api/sr/v1"
	"github.com/colinclerk/sr/internal/runtime"
)

// healthReporter publishes the runtime health through the standard gRPC
// health service, for the server as a whole ("") and for the Recorder.
type healthReporter struct {
	rt  *runtime.Runtime
	srv *health.Server
}

func newHealthReporter(rt *runtime.Runtime) *healthReporter {
	return &healthReporter{rt: rt, srv: health.NewServer()}
}

func (h *healthReporter) refresh(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if err := h.rt.CheckHealth(ctx); err != nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.srv.SetServingStatus("", st)
	h.srv.SetServingStatus(srv1.RecorderServiceName, st)
}
