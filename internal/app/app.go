// Package app wires the vigia capture, detection, matching, and tracking
// stages into a running monitor.
package app

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rdiaz/vigia/internal/alert"
	"github.com/rdiaz/vigia/internal/capture"
	"github.com/rdiaz/vigia/internal/detector"
	"github.com/rdiaz/vigia/internal/recognize"
	"github.com/rdiaz/vigia/internal/store"
	"github.com/rdiaz/vigia/internal/track"
)

// EventKind labels a presence transition.
type EventKind string

const (
	// EventAppeared fires when a person enters an empty scene.
	EventAppeared EventKind = "appeared"
	// EventDeparted fires after a sustained absence.
	EventDeparted EventKind = "departed"
)

// Event is a presence transition with whatever identity information the
// matcher produced for it.
type Event struct {
	ID         string    `json:"id"`
	Kind       EventKind `json:"kind"`
	PersonID   string    `json:"personId,omitempty"`
	PersonName string    `json:"personName,omitempty"`
	Category   string    `json:"category,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	BBoxX      int       `json:"bboxX,omitempty"`
	BBoxY      int       `json:"bboxY,omitempty"`
	BBoxWidth  int       `json:"bboxWidth,omitempty"`
	BBoxHeight int       `json:"bboxHeight,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Notifier receives presence events as they fire. Implementations must
// not block; slow deliveries belong on the notifier's own goroutine.
type Notifier interface {
	Notify(e Event)
}

// Config holds the dependencies and tuning for the monitor.
type Config struct {
	Store          *store.Store
	Camera         capture.Camera
	Detector       detector.Detector
	Matcher        recognize.Matcher
	Hysteresis     int
	BufferCapacity int
	HooksDir       string
	HookTimeoutMs  int
}

// App is the monitor: a capture goroutine feeding a frame buffer and a
// processing goroutine consuming it.
type App struct {
	config   Config
	camera   capture.Camera
	buffer   *capture.FrameBuffer
	detector detector.Detector
	matcher  recognize.Matcher
	tracker  *track.Tracker
	alerts   *alert.Runner

	mu        sync.RWMutex
	enabled   bool
	notifiers []Notifier
	stopCh    chan struct{}
	wg        sync.WaitGroup

	snapMu    sync.RWMutex
	snapshot  []byte
	lastMatch *recognize.MatchResult
}

// New creates an App from the given configuration. Camera, Detector,
// and Matcher are required; Store is optional (events are then not
// persisted and the gallery starts empty).
func New(config Config) (*App, error) {
	if config.Camera == nil {
		return nil, fmt.Errorf("app: camera is required")
	}
	if config.Detector == nil {
		return nil, fmt.Errorf("app: detector is required")
	}
	if config.Matcher == nil {
		return nil, fmt.Errorf("app: matcher is required")
	}

	hysteresis := config.Hysteresis
	if hysteresis <= 0 {
		hysteresis = track.DefaultHysteresis
	}
	tracker, err := track.New(hysteresis)
	if err != nil {
		return nil, err
	}

	capacity := config.BufferCapacity
	if capacity <= 0 {
		capacity = 1
	}

	return &App{
		config:   config,
		camera:   config.Camera,
		buffer:   capture.NewFrameBuffer(capacity),
		detector: config.Detector,
		matcher:  config.Matcher,
		tracker:  tracker,
		alerts:   alert.NewRunner(config.HooksDir, config.HookTimeoutMs),
		enabled:  true,
	}, nil
}

// SetEnabled enables or disables detection. The capture loop keeps
// running either way so the live stream stays up.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// AddNotifier registers a notifier for presence events.
func (a *App) AddNotifier(n Notifier) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notifiers = append(a.notifiers, n)
}

// LoadGallery loads persons from the database into the active matcher.
// Each person contributes the vector the matcher's strategy consumes;
// persons without one are skipped.
func (a *App) LoadGallery() error {
	if a.config.Store == nil {
		return nil
	}

	persons, err := a.config.Store.Persons().List()
	if err != nil {
		return err
	}

	loaded := 0
	for _, p := range persons {
		vec := p.Embedding
		if a.matcher.Kind() == "geometric" {
			vec = p.Ratios
		}
		if len(vec) == 0 {
			continue
		}

		if err := a.matcher.Add(p.ID, p.Name, vec, recognize.Category(p.Category)); err != nil {
			log.Printf("Skipping gallery entry %s: %v", p.Name, err)
			continue
		}
		loaded++
	}

	log.Printf("Loaded %d of %d persons into the %s matcher", loaded, len(persons), a.matcher.Kind())
	return nil
}

// DiscoverHooks scans the hook directory for alert hooks.
func (a *App) DiscoverHooks() error {
	return a.alerts.Discover()
}

// Start opens the camera and launches the capture and processing loops.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.stopCh = make(chan struct{})
	a.wg.Add(2)
	go a.captureLoop(a.stopCh)
	go a.processLoop(a.stopCh)

	log.Println("Monitor pipeline started")
	return nil
}

// Stop halts both loops and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopCh == nil {
		a.mu.Unlock()
		return
	}
	close(a.stopCh)
	a.stopCh = nil
	a.mu.Unlock()

	a.wg.Wait()
	a.buffer.Clear()

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	if err := a.detector.Close(); err != nil {
		log.Printf("Error closing detector: %v", err)
	}

	log.Println("Monitor pipeline stopped")
}

// emit persists the event, fans it out to notifiers, and dispatches
// alert hooks off the frame path.
func (a *App) emit(e Event) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	log.Printf("Presence %s: %s (%.0f%%)", e.Kind, displayName(e), e.Confidence*100)

	if a.config.Store != nil {
		err := a.config.Store.Events().Create(&store.Event{
			ID:         e.ID,
			PersonID:   e.PersonID,
			PersonName: e.PersonName,
			Kind:       string(e.Kind),
			Confidence: e.Confidence,
			BBoxX:      e.BBoxX,
			BBoxY:      e.BBoxY,
			BBoxWidth:  e.BBoxWidth,
			BBoxHeight: e.BBoxHeight,
		})
		if err != nil {
			log.Printf("Failed to persist event: %v", err)
		}
	}

	a.mu.RLock()
	notifiers := make([]Notifier, len(a.notifiers))
	copy(notifiers, a.notifiers)
	a.mu.RUnlock()

	for _, n := range notifiers {
		n.Notify(e)
	}

	go a.alerts.Dispatch(&alert.Notification{
		Event:      string(e.Kind),
		PersonID:   e.PersonID,
		PersonName: e.PersonName,
		Category:   e.Category,
		Confidence: e.Confidence,
		Timestamp:  e.Timestamp,
	})
}

func displayName(e Event) string {
	if e.PersonName != "" {
		return e.PersonName
	}
	return "unknown person"
}

// Snapshot returns the latest JPEG-encoded frame, if any.
func (a *App) Snapshot() ([]byte, bool) {
	a.snapMu.RLock()
	defer a.snapMu.RUnlock()

	if len(a.snapshot) == 0 {
		return nil, false
	}
	out := make([]byte, len(a.snapshot))
	copy(out, a.snapshot)
	return out, true
}

// LastMatch returns the most recent match result, or nil before the
// first recognized detection.
func (a *App) LastMatch() *recognize.MatchResult {
	a.snapMu.RLock()
	defer a.snapMu.RUnlock()
	return a.lastMatch
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Buffer returns the frame buffer between the two loops.
func (a *App) Buffer() *capture.FrameBuffer {
	return a.buffer
}

// Matcher returns the active matcher.
func (a *App) Matcher() recognize.Matcher {
	return a.matcher
}

// Tracker returns the presence tracker.
func (a *App) Tracker() *track.Tracker {
	return a.tracker
}

// Hooks returns the alert hook manager.
func (a *App) Hooks() *alert.Manager {
	return a.alerts.Manager()
}

// Store returns the backing store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}
