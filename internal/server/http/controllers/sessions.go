package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/colinclerk/sr/internal/recorder"
	"github.com/colinclerk/sr/internal/runtime"
)

// SessionsController serves appends and reads of a session's log.
type SessionsController struct {
	rt  *runtime.Runtime
	svc *recorder.Service
}

// NewSessionsController creates a new sessions controller.
func NewSessionsController(rt *runtime.Runtime, svc *recorder.Service) *SessionsController {
	return &SessionsController{rt: rt, svc: svc}
}

// RegisterRoutes registers session routes with the given mux.
func (c *SessionsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/sessions/{session}/batches", c.handleAppend)
	mux.HandleFunc("GET /v1/sessions/{session}/segments", c.handleSegments)
	mux.HandleFunc("GET /v1/sessions/{session}/cursor", c.handleCursor)
	mux.HandleFunc("GET /v1/sessions/{session}/connections", c.handleConnections)
}

// handleAppend commits the request body as one batch.
func (c *SessionsController) handleAppend(w http.ResponseWriter, r *http.Request) {
	limit := int64(c.rt.Config().MaxBatchBytes)
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	res, err := c.svc.Append(r.Context(), r.PathValue("session"), body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, appendResp{
		LogID:    res.LogID,
		Created:  res.Created,
		Recorded: res.Recorded,
		Page:     res.Boundary.Page,
		Offset:   res.Boundary.Offset,
	})
}

// handleSegments returns every segment of the session, optionally filtered
// by the CEL expression in ?filter=.
func (c *SessionsController) handleSegments(w http.ResponseWriter, r *http.Request) {
	segs, err := c.svc.ReadCurrent(r.Context(), r.PathValue("session"), r.URL.Query().Get("filter"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if segs == nil {
		writeJSON(w, []any{})
		return
	}
	writeJSON(w, segs)
}

func (c *SessionsController) handleCursor(w http.ResponseWriter, r *http.Request) {
	cur, ok, err := c.svc.Cursor(r.Context(), r.PathValue("session"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no log for session")
		return
	}
	writeJSON(w, cursorResp{
		LogID:      cur.LogID,
		PageSize:   cur.PageSize,
		OpenPage:   cur.OpenPage,
		Fill:       cur.Fill,
		Batches:    len(cur.Boundaries),
		Bytes:      cur.Size(),
		Boundaries: cur.Boundaries,
	})
}

func (c *SessionsController) handleConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := c.svc.Connections(r.PathValue("session"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"connections": conns})
}
