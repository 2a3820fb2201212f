package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/ritual/internal/logging"
	"github.com/aretw0/ritual/pkg/domain"
	"github.com/aretw0/ritual/pkg/replay"
	"github.com/aretw0/ritual/pkg/session"
	"github.com/aretw0/ritual/pkg/signals"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes bounds request bodies; traces are the largest legitimate payload.
const maxBodyBytes = 1 << 20

// Server exposes a session manager over HTTP.
type Server struct {
	manager  *session.Manager
	streams  *StreamManager
	recorder *signals.Recorder
	fixtures *replay.Catalog
	metrics  http.Handler
	validate bool
	version  string
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithStreams sets the stream manager. It must also be registered as a signal sink on
// the manager for signals to reach subscribers.
//
// The SSE mirror is lossy: a subscriber that falls a full buffer behind misses messages
// (see StreamManager.Dropped). The session itself never drops a signal; the journal at
// /sessions/{id}/signals holds the complete history.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.streams = sm
	}
}

// WithRecorder serves evidence from rec on /sessions/{id}/evidence.
func WithRecorder(rec *signals.Recorder) Option {
	return func(s *Server) {
		s.recorder = rec
	}
}

// WithFixtures sets the catalog /verify runs. Defaults to the built-in catalog.
func WithFixtures(cat *replay.Catalog) Option {
	return func(s *Server) {
		s.fixtures = cat
	}
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithRequestValidation validates requests against the OpenAPI document.
func WithRequestValidation(enabled bool) Option {
	return func(s *Server) {
		s.validate = enabled
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLogger configures a logger for the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server for the manager.
func NewServer(manager *session.Manager, opts ...Option) *Server {
	s := &Server{
		manager: manager,
		version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.streams == nil {
		s.streams = NewStreamManager(s.logger)
	}
	return s
}

// Streams returns the stream manager.
func (s *Server) Streams() *StreamManager {
	return s.streams
}

// Handler builds the router.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	if s.validate {
		doc, err := LoadSpec(context.Background())
		if err != nil {
			return nil, err
		}
		mw, err := validateRequests(doc)
		if err != nil {
			return nil, err
		}
		r.Use(mw)
	}

	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(rawSpec)
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Get("/rituals", s.listRituals)
	r.Get("/rituals/{ritualId}", s.getRitual)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/", s.openSession)
		r.Route("/{sessionId}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/close", s.closeSession)
			r.Post("/events", s.dispatchEvent)
			r.Get("/snapshot", s.getSnapshot)
			r.Get("/signals", s.getSignals)
			r.Get("/evidence", s.getEvidence)
		})
	})

	r.Get("/events", s.subscribeEvents)
	r.Post("/replay", s.replayTrace)
	r.Post("/verify", s.verifyFixtures)

	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "ritual-http",
		"version":     strings.TrimSpace(s.version),
		"api_version": "1.0.0",
	})
}

func (s *Server) listRituals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Catalog().List())
}

func (s *Server) getRitual(w http.ResponseWriter, r *http.Request) {
	ritual, err := s.manager.Catalog().Lookup(chi.URLParam(r, "ritualId"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ritual)
}

type openSessionRequest struct {
	SessionID string         `json:"session_id"`
	RitualID  string         `json:"ritual_id"`
	Overrides map[string]any `json:"overrides,omitempty"`
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request) {
	var body openSessionRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.RitualID == "" {
		writeError(w, http.StatusBadRequest, errors.New("ritual_id is required"))
		return
	}

	var overrides *domain.Overrides
	if body.Overrides != nil {
		o := domain.DecodeOverrides(body.Overrides)
		overrides = &o
	}
	rec, err := s.manager.Open(r.Context(), body.SessionID, body.RitualID, overrides)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.streams.BroadcastDiff(rec.SessionID, nil, &rec.State)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	stored, err := s.manager.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"stored": stored,
		"live":   s.manager.Live(),
	})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	rec, err := s.manager.Record(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Delete(r.Context(), chi.URLParam(r, "sessionId")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Close(r.Context(), chi.URLParam(r, "sessionId")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) dispatchEvent(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	var ev domain.InputEvent
	if err := decodeBody(r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !ev.Type.Known() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown event type %q", ev.Type))
		return
	}

	before, err := s.manager.Record(r.Context(), sessionID)
	if err != nil {
		s.fail(w, err)
		return
	}
	out, err := s.manager.Dispatch(r.Context(), sessionID, ev)
	if err != nil {
		s.fail(w, err)
		return
	}
	if after, err := s.manager.Record(r.Context(), sessionID); err == nil {
		s.streams.BroadcastDiff(sessionID, &before.State, &after.State)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.manager.Snapshot(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) getSignals(w http.ResponseWriter, r *http.Request) {
	history, err := s.manager.History(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) getEvidence(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		writeJSON(w, http.StatusOK, map[string]bool{})
		return
	}
	writeJSON(w, http.StatusOK, s.recorder.Evidence(chi.URLParam(r, "sessionId")))
}

// subscribeEvents streams a session's signals and state diffs as server-sent events.
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, errors.New("session_id is required"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	filter := watchFilter{}
	if watch := r.URL.Query().Get("watch"); watch != "" {
		for _, field := range strings.Split(watch, ",") {
			filter[strings.TrimSpace(field)] = true
		}
	}

	ch, cancel := s.streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Info("SSE: Client subscribed", "session_id", sessionID)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !filter.keep(msg) {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}

func (s *Server) replayTrace(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	trace, err := replay.ParseTrace(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := replay.Replay(trace, replay.WithCatalog(s.manager.Catalog()))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		replay.Result
		Fingerprint string   `json:"fingerprint"`
		SignalNames []string `json:"signal_names"`
	}{res, res.Fingerprint(), res.SignalNames()})
}

func (s *Server) verifyFixtures(w http.ResponseWriter, r *http.Request) {
	cat := s.fixtures
	if cat == nil {
		var err error
		if cat, err = replay.BuiltinCatalog(); err != nil {
			s.fail(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, replay.RunCatalog(cat, replay.WithCatalog(s.manager.Catalog())))
}

// fail maps domain errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrUnknownRitual):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSessionExists), errors.Is(err, domain.ErrDriverStopped):
		status = http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "err", err)
	}
	writeError(w, status, err)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
