package recorder

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/colinclerk/sr/internal/pagelog"
	"github.com/colinclerk/sr/internal/runtime"
	logpkg "github.com/colinclerk/sr/pkg/log"
)

// ErrShuttingDown is returned to ingest handlers that arrive after Shutdown.
var ErrShuttingDown = errors.New("recorder: shutting down")

// Service hands out one Recorder per session and tracks live ingest
// handlers so shutdown can wait for them before storage closes.
type Service struct {
	rt     *runtime.Runtime
	logger logpkg.Logger

	mu        sync.Mutex
	recorders map[string]*Recorder
	draining  bool

	base     context.Context
	stop     context.CancelFunc
	handlers sync.WaitGroup
}

// New returns a Service using a default logger.
func New(rt *runtime.Runtime) *Service {
	return NewWithLogger(rt, nil)
}

// NewWithLogger returns a Service using the provided logger.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	base, stop := context.WithCancel(context.Background())
	return &Service{
		rt:        rt,
		logger:    logger.With(logpkg.Component("recorder")),
		recorders: map[string]*Recorder{},
		base:      base,
		stop:      stop,
	}
}

func (s *Service) sessionName(session string) string {
	if session == "" {
		return s.rt.Config().DefaultSession
	}
	return session
}

// Recorder returns the recorder for session, opening its log on first use.
// The recorder stays open for the life of the service.
func (s *Service) Recorder(ctx context.Context, session string) (*Recorder, error) {
	session = s.sessionName(session)
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.recorders[session]; ok {
		return r, nil
	}
	r, err := s.open(ctx, session)
	if err != nil {
		return nil, err
	}
	s.recorders[session] = r
	return r, nil
}

// reader returns the live recorder for session or, when none is open, a
// recorder over the stored log that is not retained.
func (s *Service) reader(ctx context.Context, session string) (*Recorder, error) {
	session = s.sessionName(session)
	s.mu.Lock()
	r, ok := s.recorders[session]
	s.mu.Unlock()
	if ok {
		return r, nil
	}
	return s.open(ctx, session)
}

func (s *Service) open(ctx context.Context, session string) (*Recorder, error) {
	log, err := s.rt.OpenLog(ctx, session)
	if err != nil {
		return nil, err
	}
	newConnID := func() string { return s.rt.NextID().Text() }
	return newRecorder(session, log, s.rt.Config().MaxBatchBytes, newConnID, s.logger), nil
}

// Append commits buf to the session's log.
func (s *Service) Append(ctx context.Context, session string, buf []byte) (pagelog.AppendResult, error) {
	r, err := s.Recorder(ctx, session)
	if err != nil {
		return pagelog.AppendResult{}, err
	}
	return r.Append(ctx, buf)
}

// ReadCurrent reconstructs the session's segments, optionally filtered.
func (s *Service) ReadCurrent(ctx context.Context, session, filter string) ([]pagelog.Segment, error) {
	r, err := s.reader(ctx, session)
	if err != nil {
		return nil, err
	}
	return r.ReadCurrent(ctx, filter)
}

// Cursor returns the session's write cursor.
func (s *Service) Cursor(ctx context.Context, session string) (pagelog.Cursor, bool, error) {
	r, err := s.reader(ctx, session)
	if err != nil {
		return pagelog.Cursor{}, false, err
	}
	return r.Cursor(ctx)
}

// Connections lists the live connections of session. A session without an
// open recorder has none.
func (s *Service) Connections(session string) ([]Connection, error) {
	session = s.sessionName(session)
	if err := runtime.ValidateSession(session); err != nil {
		return nil, err
	}
	s.mu.Lock()
	r, ok := s.recorders[session]
	s.mu.Unlock()
	if !ok {
		return []Connection{}, nil
	}
	return r.Connections(), nil
}

// Sessions lists sessions with an open recorder.
func (s *Service) Sessions() []string {
	s.mu.Lock()
	out := make([]string, 0, len(s.recorders))
	for name := range s.recorders {
		out = append(out, name)
	}
	s.mu.Unlock()
	sort.Strings(out)
	return out
}

// Track registers a live ingest handler. The returned context is cancelled
// by Shutdown; done must be called when the handler returns.
func (s *Service) Track(ctx context.Context) (context.Context, func(), error) {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return nil, nil, ErrShuttingDown
	}
	s.handlers.Add(1)
	s.mu.Unlock()
	hctx, cancel := context.WithCancel(ctx)
	unhook := context.AfterFunc(s.base, cancel)
	return hctx, func() {
		unhook()
		cancel()
		s.handlers.Done()
	}, nil
}

// Shutdown refuses new ingest handlers and cancels the live ones. It does
// not wait; see Drain.
func (s *Service) Shutdown() {
	s.mu.Lock()
	first := !s.draining
	s.draining = true
	s.mu.Unlock()
	s.stop()
	if first {
		s.logger.Info("recorder shutting down")
	}
}

// Drain calls Shutdown and waits until every tracked handler has returned
// or ctx is done.
func (s *Service) Drain(ctx context.Context) error {
	s.Shutdown()
	done := make(chan struct{})
	go func() {
		s.handlers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Runtime exposes the runtime backing this service.
func (s *Service) Runtime() *runtime.Runtime { return s.rt }
