// Package api provides HTTP API handlers for the vigia security monitor.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rdiaz/vigia/internal/recognize"
	"github.com/rdiaz/vigia/internal/store"
)

// PersonHandler handles HTTP requests for the person gallery. Mutations
// are applied to both the database and the live matcher, so enrollment
// takes effect without a restart.
type PersonHandler struct {
	store   *store.Store
	matcher recognize.Matcher
}

// NewPersonHandler creates a new PersonHandler.
func NewPersonHandler(s *store.Store, m recognize.Matcher) *PersonHandler {
	return &PersonHandler{store: s, matcher: m}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *PersonHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/persons or /api/persons/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/persons")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type personRequest struct {
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Embedding []float64 `json:"embedding"`
	Ratios    []float64 `json:"ratios"`
	PhotoPath string    `json:"photo_path"`
	Notes     string    `json:"notes"`
}

type personResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	HasEmbedding bool   `json:"has_embedding"`
	HasRatios    bool   `json:"has_ratios"`
	PhotoPath    string `json:"photo_path,omitempty"`
	Notes        string `json:"notes,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type listPersonsResponse struct {
	Persons []personResponse `json:"persons"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Person to a personResponse. Vectors are
// reported as presence flags only; they are not useful to clients.
func toResponse(p *store.Person) personResponse {
	return personResponse{
		ID:           p.ID,
		Name:         p.Name,
		Category:     p.Category,
		HasEmbedding: len(p.Embedding) > 0,
		HasRatios:    len(p.Ratios) > 0,
		PhotoPath:    p.PhotoPath,
		Notes:        p.Notes,
		CreatedAt:    p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:    p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// galleryVector picks the vector the active matcher consumes.
func (h *PersonHandler) galleryVector(p *store.Person) []float64 {
	if h.matcher != nil && h.matcher.Kind() == "geometric" {
		return p.Ratios
	}
	return p.Embedding
}

// syncMatcher mirrors the person's current state into the live matcher.
func (h *PersonHandler) syncMatcher(p *store.Person) {
	if h.matcher == nil {
		return
	}
	vec := h.galleryVector(p)
	if len(vec) == 0 {
		h.matcher.Remove(p.ID)
		return
	}
	if err := h.matcher.Add(p.ID, p.Name, vec, recognize.Category(p.Category)); err != nil {
		// The row is persisted either way; the gallery entry just stays out.
		h.matcher.Remove(p.ID)
	}
}

// list handles GET /api/persons and returns all persons.
func (h *PersonHandler) list(w http.ResponseWriter, r *http.Request) {
	persons, err := h.store.Persons().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list persons")
		return
	}

	response := listPersonsResponse{
		Persons: make([]personResponse, 0, len(persons)),
	}
	for _, p := range persons {
		response.Persons = append(response.Persons, toResponse(p))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/persons/{id} and returns a single person.
func (h *PersonHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	person, err := h.store.Persons().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Person not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get person")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(person))
}

// create handles POST /api/persons and enrolls a new person.
func (h *PersonHandler) create(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	category := req.Category
	if category == "" {
		category = string(recognize.CategoryUnknown)
	}
	if !recognize.Category(category).Valid() {
		writeError(w, http.StatusBadRequest, "Invalid category")
		return
	}

	person := &store.Person{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Category:  category,
		Embedding: req.Embedding,
		Ratios:    req.Ratios,
		PhotoPath: req.PhotoPath,
		Notes:     req.Notes,
	}

	if err := h.store.Persons().Create(person); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create person")
		return
	}

	h.syncMatcher(person)

	writeJSON(w, http.StatusCreated, toResponse(person))
}

// update handles PUT /api/persons/{id} and updates an existing person.
func (h *PersonHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	person, err := h.store.Persons().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Person not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get person")
		return
	}

	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" {
		person.Name = req.Name
	}
	if req.Category != "" {
		if !recognize.Category(req.Category).Valid() {
			writeError(w, http.StatusBadRequest, "Invalid category")
			return
		}
		person.Category = req.Category
	}
	if req.Embedding != nil {
		person.Embedding = req.Embedding
	}
	if req.Ratios != nil {
		person.Ratios = req.Ratios
	}
	if req.PhotoPath != "" {
		person.PhotoPath = req.PhotoPath
	}
	if req.Notes != "" {
		person.Notes = req.Notes
	}

	if err := h.store.Persons().Update(person); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update person")
		return
	}

	h.syncMatcher(person)

	writeJSON(w, http.StatusOK, toResponse(person))
}

// delete handles DELETE /api/persons/{id} and removes a person from the
// gallery and the live matcher.
func (h *PersonHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Persons().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Person not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete person")
		return
	}

	if h.matcher != nil {
		h.matcher.Remove(id)
	}

	w.WriteHeader(http.StatusNoContent)
}
