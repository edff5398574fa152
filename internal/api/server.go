package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/spf13/afero"

	"topdock/internal/icon"
	apperrors "topdock/internal/infrastructure/errors"
	"topdock/internal/infrastructure/logging"
	"topdock/internal/services"
)

// SnapshotSource provides the most recent poll result
type SnapshotSource interface {
	Latest() (services.Snapshot, bool)
}

// Server exposes the foreground snapshot over HTTP and streams changes over
// WebSocket. It implements services.Sink.
type Server struct {
	router   *mux.Router
	source   SnapshotSource
	icons    services.IconSource
	fs       afero.Fs
	logger   logging.Logger
	upgrader websocket.Upgrader

	mutex       sync.Mutex
	subscribers map[chan snapshotResponse]struct{}
	httpServer  *http.Server
}

const subscriberBuffer = 8

// NewServer creates a new API server
func NewServer(source SnapshotSource, icons services.IconSource, fs afero.Fs, logger logging.Logger) *Server {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	s := &Server{
		router: mux.NewRouter(),
		source: source,
		icons:  icons,
		fs:     fs,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // local dashboard pages are served from other origins
			},
		},
		subscribers: make(map[chan snapshotResponse]struct{}),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Foreground state
	api.HandleFunc("/foreground", s.handleGetForeground).Methods("GET")
	api.HandleFunc("/foreground/icon.png", s.handleGetForegroundIcon).Methods("GET")
	api.HandleFunc("/foreground/stream", s.handleForegroundStream)

	// One-shot extraction
	api.HandleFunc("/icon", s.handleGetIcon).Methods("GET")
}

// Handler returns the router wrapped with CORS headers
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start listens on addr and serves until Shutdown is called
func (s *Server) Start(addr string) error {
	s.mutex.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv := s.httpServer
	s.mutex.Unlock()

	s.logger.Info("Starting API server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve on %s: %w", addr, err)
	}
	return nil
}

// Shutdown stops the server and closes every stream
func (s *Server) Shutdown(ctx context.Context) error {
	s.mutex.Lock()
	srv := s.httpServer
	for ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, ch)
	}
	s.mutex.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Publish forwards a snapshot to every stream. Slow streams drop updates.
func (s *Server) Publish(snapshot services.Snapshot) {
	resp := newSnapshotResponse(snapshot)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- resp:
		default:
			s.logger.Debug("Dropping snapshot for slow stream", "sequence", snapshot.Sequence)
		}
	}
}

func (s *Server) subscribe() chan snapshotResponse {
	ch := make(chan snapshotResponse, subscriberBuffer)
	s.mutex.Lock()
	s.subscribers[ch] = struct{}{}
	s.mutex.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan snapshotResponse) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func (s *Server) writePNG(w http.ResponseWriter, buf *icon.PixelBuffer) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := buf.EncodePNG(w); err != nil {
		s.logger.Warn("Failed to write icon", "error", err)
	}
}

// HTTP Handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, observed := s.source.Latest()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"observed": observed,
	})
}

func (s *Server) handleGetForeground(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.source.Latest()
	if !ok {
		s.writeError(w, http.StatusServiceUnavailable, "NOT_READY", "no foreground snapshot yet")
		return
	}

	s.writeJSON(w, http.StatusOK, newSnapshotResponse(snapshot))
}

func (s *Server) handleGetForegroundIcon(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.source.Latest()
	if !ok || !snapshot.HasIcon() {
		s.writeError(w, http.StatusNotFound, apperrors.ErrCodeNoIconForPath.String(), "foreground window has no icon")
		return
	}

	s.writePNG(w, snapshot.Icon)
}

func (s *Server) handleGetIcon(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	path := query.Get("path")
	if path == "" {
		s.writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidArgument.String(), "path is required")
		return
	}

	size := icon.Small
	if raw := query.Get("size"); raw != "" {
		parsed, err := icon.ParseSize(raw)
		if err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, apperrors.ErrCodeInvalidArgument.String(), err.Error())
			return
		}
		size = parsed
	}

	if stat, err := s.fs.Stat(path); err != nil || stat.IsDir() {
		s.writeError(w, http.StatusNotFound, apperrors.ErrCodePathNotFound.String(), fmt.Sprintf("%s does not exist", path))
		return
	}

	buf, err := s.icons.Extract(path, size)
	if err != nil {
		reason := apperrors.ReasonOf(err)
		status := http.StatusInternalServerError
		if reason == apperrors.ErrCodeNoIconForPath {
			status = http.StatusNotFound
		} else {
			logging.LogError(s.logger, err, "extract", map[string]interface{}{"path": path})
		}
		s.writeError(w, status, reason.String(), err.Error())
		return
	}

	s.writePNG(w, buf)
}

func (s *Server) handleForegroundStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	updates := s.subscribe()
	defer s.unsubscribe(updates)

	// Send the current snapshot first
	if snapshot, ok := s.source.Latest(); ok {
		if err := conn.WriteJSON(newSnapshotResponse(snapshot)); err != nil {
			s.logger.Debug("WebSocket write error", "error", err)
			return
		}
	}

	// The client never sends anything; reading only detects disconnects
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(update); err != nil {
				s.logger.Debug("WebSocket write error", "error", err)
				return
			}
		case <-closed:
			return
		}
	}
}
