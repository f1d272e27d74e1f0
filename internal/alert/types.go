// Package alert provides discovery and execution of external alert hooks
// for the vigia security monitor. A hook is an executable with a hook.json
// manifest; it receives a notification as JSON on stdin and replies on
// stdout.
package alert

import (
	"encoding/json"
	"time"
)

// Manifest describes a hook's metadata and the events it subscribes to.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Events      []string `json:"events"`
}

// Notification is the payload sent to a hook when a presence event fires.
type Notification struct {
	Event      string    `json:"event"`
	PersonID   string    `json:"personId,omitempty"`
	PersonName string    `json:"personName,omitempty"`
	Category   string    `json:"category,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Response represents the reply from a hook execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook represents a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the hook subscribes to the given event. An
// empty events list subscribes to everything.
func (h *Hook) Handles(event string) bool {
	if len(h.Manifest.Events) == 0 {
		return true
	}
	for _, e := range h.Manifest.Events {
		if e == event {
			return true
		}
	}
	return false
}
