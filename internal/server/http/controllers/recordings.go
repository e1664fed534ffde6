package controllers

import (
	"net/http"

	"github.com/colinclerk/sr/internal/catalog"
	"github.com/colinclerk/sr/internal/runtime"
)

// RecordingsController exposes the recordings catalog.
type RecordingsController struct {
	rt *runtime.Runtime
}

// NewRecordingsController creates a new recordings controller.
func NewRecordingsController(rt *runtime.Runtime) *RecordingsController {
	return &RecordingsController{rt: rt}
}

// RegisterRoutes registers catalog routes with the given mux.
func (c *RecordingsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/recordings", c.handleList)
	mux.HandleFunc("GET /v1/recordings/{id}", c.handleGet)
}

// handleList lists recordings, optionally restricted by ?session= and ?limit=.
func (c *RecordingsController) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := c.rt.Catalog().List(catalog.ListOptions{Session: q.Get("session"), Limit: parseLimit(q.Get("limit"))})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list recordings")
		return
	}
	if list == nil {
		list = []catalog.Entry{}
	}
	writeJSON(w, map[string]any{"recordings": list})
}

func (c *RecordingsController) handleGet(w http.ResponseWriter, r *http.Request) {
	e, err := c.rt.Catalog().Get(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, e)
}
