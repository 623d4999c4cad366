// Package server exposes editing sessions over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/TFMV/rankgraph/editor"
	"github.com/TFMV/rankgraph/ingest"
	"github.com/TFMV/rankgraph/metrics"
	"github.com/TFMV/rankgraph/render"
)

const maxBodyBytes = 1 << 20

// Config for the server
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Canvas       editor.Canvas
}

// Server serves the editor API
type Server struct {
	config   Config
	sessions *Manager
	logger   *slog.Logger
	palette  *render.Palette
	upgrader websocket.Upgrader
}

// New creates a server over a session manager
func New(config Config, sessions *Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:   config,
		sessions: sessions,
		logger:   logger,
		palette:  render.DefaultPalette(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Handler returns the HTTP handler with all routes registered. Everything
// except the WebSocket endpoint is gzip-compressed.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/", s.handleIndex())
	api.HandleFunc("/api/sessions", s.handleSessions())
	api.HandleFunc("/api/graph", s.handleGraph())
	api.HandleFunc("/api/events", s.handleEvents())
	api.HandleFunc("/render", s.handleRender())
	api.HandleFunc("/healthz", s.handleHealth())
	api.Handle("/metrics", metrics.Handler())

	root := http.NewServeMux()
	root.HandleFunc("/ws", s.handleWebSocket())
	root.Handle("/", gzhttp.GzipHandler(api))
	return root
}

// ListenAndServe runs the server until ctx is cancelled, then shuts it down
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", slog.String("address", s.config.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// sessionResponse is returned when a session is created
type sessionResponse struct {
	Session string       `json:"session"`
	View    *render.View `json:"view"`
}

// handleSessions creates a session, optionally seeded from a JSON body
func (s *Server) handleSessions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "error reading body: "+err.Error())
			return
		}

		var seed *ingest.Seed
		if len(body) > 0 {
			seed, err = (&ingest.JSONProcessor{}).ProcessData(body)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		sess, err := s.sessions.Create(seed)
		switch {
		case errors.Is(err, ErrTooManySessions):
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		case err != nil:
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, sessionResponse{
			Session: sess.ID,
			View:    render.BuildView(sess.Latest(), s.palette),
		})
	}
}

// handleGraph returns the current view with a content-hash ETag
func (s *Server) handleGraph() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		sess, ok := s.lookup(w, r)
		if !ok {
			return
		}

		view := render.BuildView(sess.Latest(), s.palette)
		tag, err := render.Fingerprint(view)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		etag := `"` + tag + `"`
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// handleEvents applies one event and returns the resulting view
func (s *Server) handleEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		sess, ok := s.lookup(w, r)
		if !ok {
			return
		}

		var req EventRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "error parsing event: "+err.Error())
			return
		}
		ev, err := req.Event()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, span := metrics.StartSpan(r.Context(), "server.event",
			attribute.String("session", sess.ID),
			attribute.String("event", req.Type),
		)
		defer span.End()

		snap, err := sess.Submit(ctx, ev)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, render.BuildView(snap, s.palette))
	}
}

// handleRender draws the session in the requested format
func (s *Server) handleRender() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.lookup(w, r)
		if !ok {
			return
		}

		format := r.URL.Query().Get("format")
		if format == "" {
			format = "svg"
		}
		renderer, err := render.GetRenderer(format)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		options := render.NewDefaultOptions(format)
		options.Width = s.config.Canvas.Width
		options.Height = s.config.Canvas.Height

		output, err := renderer.Render(render.BuildView(sess.Latest(), s.palette), options)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "error rendering: "+err.Error())
			return
		}

		w.Header().Set("Content-Type", renderer.ContentType())
		w.Write(output)
	}
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"sessions": s.sessions.Len(),
		})
	}
}

// handleWebSocket streams views to the client and accepts events from it
func (s *Server) handleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.lookup(w, r)
		if !ok {
			return
		}

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Warn("websocket upgrade failed", slog.Any("error", err))
			return
		}
		defer conn.Close()

		snaps, unsubscribe := sess.Subscribe()
		defer unsubscribe()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		failures := make(chan string, 4)
		readerDone := make(chan struct{})
		go func() {
			defer close(readerDone)
			s.readEvents(ctx, conn, sess, failures)
		}()

		if err := conn.WriteJSON(render.BuildView(sess.Latest(), s.palette)); err != nil {
			return
		}

		for {
			select {
			case snap := <-snaps:
				if err := conn.WriteJSON(render.BuildView(snap, s.palette)); err != nil {
					return
				}
			case msg := <-failures:
				if err := conn.WriteJSON(map[string]string{"error": msg}); err != nil {
					return
				}
			case <-sess.Done():
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
				return
			case <-readerDone:
				return
			}
		}
	}
}

// readEvents submits every event read from conn. Replies reach the client
// through the session subscription.
func (s *Server) readEvents(ctx context.Context, conn *websocket.Conn, sess *Session, failures chan<- string) {
	conn.SetReadLimit(maxBodyBytes)
	for {
		var req EventRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read ended", slog.Any("error", err))
			}
			return
		}

		ev, err := req.Event()
		if err == nil {
			_, err = sess.Submit(ctx, ev)
		}
		if err != nil {
			select {
			case failures <- err.Error():
			default:
			}
			if errors.Is(err, editor.ErrSourceClosed) || ctx.Err() != nil {
				return
			}
		}
	}
}

// lookup resolves the session query parameter, writing an error if it fails
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := r.URL.Query().Get("session")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing session")
		return nil, false
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
