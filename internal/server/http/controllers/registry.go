package controllers

import (
	"net/http"

	"github.com/colinclerk/sr/internal/recorder"
	"github.com/colinclerk/sr/internal/runtime"
	logpkg "github.com/colinclerk/sr/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general    *GeneralController
	sessions   *SessionsController
	recordings *RecordingsController
	ingest     *IngestController
}

// NewControllerRegistry creates a new controller registry.
func NewControllerRegistry(rt *runtime.Runtime, svc *recorder.Service, logger logpkg.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general:    NewGeneralController(rt, svc),
		sessions:   NewSessionsController(rt, svc),
		recordings: NewRecordingsController(rt),
		ingest:     NewIngestController(rt, svc, logger),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.sessions.RegisterRoutes(mux)
	r.recordings.RegisterRoutes(mux)
	r.ingest.RegisterRoutes(mux)
}
