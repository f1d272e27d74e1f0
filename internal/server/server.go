package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rdiaz/vigia/internal/app"
	"github.com/rdiaz/vigia/internal/recognize"
	"github.com/rdiaz/vigia/internal/server/api"
	"github.com/rdiaz/vigia/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
}

// Server represents the HTTP server for the vigia application.
type Server struct {
	config Config
	mux    *http.ServeMux
	events *EventsHandler
	start  time.Time
}

// New creates a new Server with the given configuration. When an App is
// configured, the server registers itself as a notifier so presence
// events reach WebSocket clients.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Register gallery and event log handlers if Store is configured
	if s.config.Store != nil {
		var matcher recognize.Matcher
		if s.config.App != nil {
			matcher = s.config.App.Matcher()
		}
		personHandler := api.NewPersonHandler(s.config.Store, matcher)
		s.mux.Handle("/api/persons", personHandler)
		s.mux.Handle("/api/persons/", personHandler)

		eventHandler := api.NewEventHandler(s.config.Store)
		s.mux.Handle("/api/events", eventHandler)
		s.mux.Handle("/api/events/", eventHandler)
	}

	// Register the live endpoints if the monitor is configured
	if s.config.App != nil {
		s.mux.HandleFunc("/api/status", s.handleStatus)
		s.mux.HandleFunc("/api/monitor", s.handleMonitor)
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.App))

		s.events = NewEventsHandler()
		s.mux.Handle("/api/ws", s.events)
		s.config.App.AddNotifier(s.events)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// handleStatus handles GET requests to /api/status, reporting the state
// of the running monitor.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	a := s.config.App
	presence := a.Tracker().Snapshot()

	response := map[string]interface{}{
		"enabled":       a.IsEnabled(),
		"cameraOpen":    a.Camera().IsOpen(),
		"matcher":       a.Matcher().Kind(),
		"gallerySize":   a.Matcher().Size(),
		"presence":      presence,
		"droppedFrames": a.Buffer().Drops(),
	}
	if m := a.LastMatch(); m != nil {
		response["lastMatch"] = m
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleMonitor handles POST requests to /api/monitor to toggle
// detection without stopping the stream.
func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	s.config.App.SetEnabled(req.Enabled)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"enabled": req.Enabled})
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
