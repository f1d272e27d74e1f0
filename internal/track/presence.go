// Package track turns a noisy per-frame detection signal into debounced
// presence transitions: one "appeared" per continuous presence interval
// and one "departed" after a sustained absence.
package track

import (
	"fmt"
	"sync"
)

// DefaultHysteresis is how many consecutive empty frames declare a
// departure — about half a second at 30 fps.
const DefaultHysteresis = 15

// Transition is the outcome of observing one processed frame.
type Transition int

const (
	// TransitionNone means presence did not change in an event-worthy way.
	TransitionNone Transition = iota
	// TransitionAppeared fires on the first detection after an absence.
	TransitionAppeared
	// TransitionDeparted fires once the absence hysteresis is reached.
	TransitionDeparted
)

// String returns the transition name.
func (t Transition) String() string {
	switch t {
	case TransitionAppeared:
		return "appeared"
	case TransitionDeparted:
		return "departed"
	default:
		return "none"
	}
}

// State is a snapshot of the tracker for status reporting.
type State struct {
	Present     bool `json:"present"`
	Alerted     bool `json:"alerted"`
	EmptyFrames int  `json:"emptyFrames"`
	Hysteresis  int  `json:"hysteresis"`
}

// Tracker is the per-stream presence state machine. Entry triggers
// immediately; exit requires hysteresis consecutive empty frames, so a
// single missed detection never reads as a departure and a person
// standing in view produces exactly one event, not one per frame.
//
// Update is driven by the single pipeline goroutine; the mutex only
// makes Snapshot safe for status readers on other goroutines.
type Tracker struct {
	mu          sync.Mutex
	present     bool
	alerted     bool
	emptyFrames int
	hysteresis  int
}

// New creates a Tracker. The hysteresis is the number of consecutive
// empty frames required before declaring departure; values below 1 are
// rejected here so the per-frame path never validates configuration.
func New(hysteresis int) (*Tracker, error) {
	if hysteresis < 1 {
		return nil, fmt.Errorf("hysteresis must be at least 1, got %d", hysteresis)
	}
	return &Tracker{hysteresis: hysteresis}, nil
}

// Update observes one processed frame and returns the resulting
// transition. It must be called exactly once per frame. The input is
// detection count alone: whether matching succeeded for the frame is
// irrelevant to presence, so a cached or unmatchable detection list
// still advances the machine correctly.
func (t *Tracker) Update(hasDetections bool) Transition {
	t.mu.Lock()
	defer t.mu.Unlock()

	if hasDetections {
		t.emptyFrames = 0

		if !t.present {
			t.present = true
			t.alerted = false
		}
		if !t.alerted {
			t.alerted = true
			return TransitionAppeared
		}
		return TransitionNone
	}

	t.emptyFrames++

	if t.present && t.emptyFrames >= t.hysteresis {
		t.present = false
		t.alerted = false
		return TransitionDeparted
	}
	return TransitionNone
}

// Reset returns the tracker to the initial absent state without
// emitting a departure.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.present = false
	t.alerted = false
	t.emptyFrames = 0
}

// Snapshot returns the current state. Safe to call from any goroutine.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return State{
		Present:     t.present,
		Alerted:     t.alerted,
		EmptyFrames: t.emptyFrames,
		Hysteresis:  t.hysteresis,
	}
}
