package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/colinclerk/sr/internal/recorder"
	"github.com/colinclerk/sr/internal/runtime"
	logpkg "github.com/colinclerk/sr/pkg/log"
)

// closeWriteWait bounds the close frame sent on shutdown.
const closeWriteWait = time.Second

// IngestController accepts WebSocket connections from recording clients.
// Every binary message is one batch.
type IngestController struct {
	rt       *runtime.Runtime
	svc      *recorder.Service
	logger   logpkg.Logger
	upgrader websocket.Upgrader
}

// NewIngestController creates a new ingest controller.
func NewIngestController(rt *runtime.Runtime, svc *recorder.Service, logger logpkg.Logger) *IngestController {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	c := &IngestController{rt: rt, svc: svc, logger: logger.With(logpkg.Component("ws"))}
	c.upgrader = websocket.Upgrader{CheckOrigin: originChecker(rt.Config().AllowedOrigins)}
	return c
}

// RegisterRoutes registers the ingest route with the given mux.
func (c *IngestController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /sr/ws", c.handleWS)
}

func (c *IngestController) handleWS(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		writeError(w, http.StatusBadRequest, "expected websocket")
		return
	}
	ctx, done, err := c.svc.Track(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer done()
	rec, err := c.svc.Recorder(ctx, r.URL.Query().Get("session"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		c.logger.Warn("websocket upgrade failed", logpkg.Err(err))
		return
	}
	c.serve(ctx, rec, conn, r.RemoteAddr)
}

// serve reads batches until the client goes away or ctx is cancelled. On
// cancellation the client gets a going-away close frame and the pending
// read is interrupted.
func (c *IngestController) serve(ctx context.Context, rec *recorder.Recorder, conn *websocket.Conn, remote string) {
	handle := rec.Accept("ws", remote)
	defer rec.Release(handle.ID)
	defer conn.Close()

	logger := c.logger.With(logpkg.Session(rec.Session()), logpkg.Str("conn", handle.ID))
	stop := context.AfterFunc(ctx, func() {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()
	conn.SetReadLimit(int64(c.rt.Config().MaxBatchBytes))
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket closed", logpkg.Err(err))
			}
			return
		}
		if mt != websocket.BinaryMessage {
			if err := conn.WriteJSON(wsError{Error: "expected binary message"}); err != nil {
				return
			}
			continue
		}
		res, err := rec.Append(ctx, data)
		if err != nil {
			if werr := conn.WriteJSON(wsError{Error: err.Error()}); werr != nil {
				return
			}
			continue
		}
		ack := wsAck{Page: res.Boundary.Page, Offset: res.Boundary.Offset, Recorded: res.Recorded}
		if err := conn.WriteJSON(ack); err != nil {
			logger.Warn("websocket ack failed", logpkg.Err(err))
			return
		}
	}
}

// originChecker allows every origin when the list is empty or contains "*".
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}
