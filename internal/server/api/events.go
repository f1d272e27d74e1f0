package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rdiaz/vigia/internal/store"
)

// EventHandler serves the detection event log.
type EventHandler struct {
	store *store.Store
}

// NewEventHandler creates a new EventHandler with the given store.
func NewEventHandler(s *store.Store) *EventHandler {
	return &EventHandler{store: s}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/events, /api/events/stats.
func (h *EventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/events")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "":
		h.list(w, r)
	case "stats":
		h.stats(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type eventResponse struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	PersonID   string  `json:"person_id,omitempty"`
	PersonName string  `json:"person_name,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

type listEventsResponse struct {
	Events []eventResponse `json:"events"`
}

// list handles GET /api/events?limit=N and returns recent events,
// newest first. The limit defaults to 50.
func (h *EventHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	events, err := h.store.Events().Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	response := listEventsResponse{
		Events: make([]eventResponse, 0, len(events)),
	}
	for _, e := range events {
		response.Events = append(response.Events, eventResponse{
			ID:         e.ID,
			Kind:       e.Kind,
			PersonID:   e.PersonID,
			PersonName: e.PersonName,
			Confidence: e.Confidence,
			CreatedAt:  e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// stats handles GET /api/events/stats and returns today's counts.
func (h *EventHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Events().DailyStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
