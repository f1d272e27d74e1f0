package recognize

import (
	"fmt"
	"math"
	"sync"

	"github.com/rdiaz/vigia/internal/detector"
)

// Geometric matcher parameters.
const (
	// RatioCount is the fixed length of a geometric ratio vector.
	RatioCount = 4

	// DefaultTolerance is the maximum mean absolute ratio deviation for
	// a match (0.15 = 15% average deviation).
	DefaultTolerance = 0.15

	// minLandmarkDistance rejects degenerate detections whose inter-eye
	// or eye-to-chin distance is below this many pixels.
	minLandmarkDistance = 10

	// faceWidthFactor approximates the full face width from the
	// inter-eye distance.
	faceWidthFactor = 2.2

	// mouthEyeFactor is the assumed mouth-width to eye-distance ratio.
	mouthEyeFactor = 0.6
)

// Profile is a stored geometric identity: four facial proportions that
// survive lighting and resolution changes a raw pixel comparison would
// not.
type Profile struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Ratios []float64 `json:"ratios"`
}

// GeometricMatcher matches faces by four hand-designed landmark ratios
// instead of learned embeddings. It is a near-zero-cost alternative to
// the similarity matcher for constrained hardware: one comparison is a
// handful of subtractions. Profiles are kept in insertion order so
// distance ties resolve deterministically to the first-seen profile.
type GeometricMatcher struct {
	mu        sync.RWMutex
	tolerance float64
	profiles  []*Profile
}

// NewGeometricMatcher creates a matcher with the given tolerance.
// Non-positive tolerances are rejected at construction.
func NewGeometricMatcher(tolerance float64) (*GeometricMatcher, error) {
	if tolerance <= 0 {
		return nil, fmt.Errorf("%w: geometric tolerance %v must be positive", ErrInvalidThreshold, tolerance)
	}
	return &GeometricMatcher{tolerance: tolerance}, nil
}

// ExtractRatios derives the four geometric ratios from a landmark set.
// Left eye, right eye, mouth and chin are required; a missing nose is
// estimated as the midpoint of mouth and left eye. Returns ok=false for
// nil landmarks or for faces too small to measure reliably.
func ExtractRatios(lm *detector.Landmarks) ([]float64, bool) {
	if lm == nil {
		return nil, false
	}

	nose := lm.Nose
	if nose == nil {
		nose = &detector.Point{
			X: (lm.Mouth.X + lm.LeftEye.X) / 2,
			Y: (lm.Mouth.Y + lm.LeftEye.Y) / 2,
		}
	}

	eyeDistance := pointDistance(lm.LeftEye, lm.RightEye)
	eyesCenter := detector.Point{
		X: (lm.LeftEye.X + lm.RightEye.X) / 2,
		Y: (lm.LeftEye.Y + lm.RightEye.Y) / 2,
	}
	eyeToMouth := pointDistance(eyesCenter, lm.Mouth)
	eyeToChin := pointDistance(eyesCenter, lm.Chin)
	noseToChin := pointDistance(*nose, lm.Chin)

	if eyeDistance < minLandmarkDistance || eyeToChin < minLandmarkDistance {
		return nil, false
	}

	faceWidth := eyeDistance * faceWidthFactor
	faceHeight := eyeToChin

	return []float64{
		eyeDistance / faceWidth,
		eyeToMouth / faceHeight,
		mouthEyeFactor,
		noseToChin / faceHeight,
	}, true
}

// AddProfile inserts or replaces a geometric profile. The ratio vector
// is copied and must have exactly four entries.
func (m *GeometricMatcher) AddProfile(id, name string, ratios []float64) error {
	if len(ratios) != RatioCount {
		return fmt.Errorf("%w: got %d ratios, want %d", ErrDimensionMismatch, len(ratios), RatioCount)
	}

	stored := make([]float64, RatioCount)
	copy(stored, ratios)

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.profiles {
		if p.ID == id {
			p.Name = name
			p.Ratios = stored
			return nil
		}
	}

	m.profiles = append(m.profiles, &Profile{ID: id, Name: name, Ratios: stored})
	return nil
}

// RemoveProfile deletes a profile by id; absent ids are a no-op.
func (m *GeometricMatcher) RemoveProfile(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.profiles {
		if p.ID == id {
			m.profiles = append(m.profiles[:i], m.profiles[i+1:]...)
			return
		}
	}
}

// FindMatch returns the stored profile closest to the given ratios, but
// only if its mean absolute difference is strictly below the tolerance.
// Ties keep the first-inserted profile.
func (m *GeometricMatcher) FindMatch(ratios []float64, tolerance float64) (*MatchResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *Profile
	bestDistance := math.Inf(1)

	for _, p := range m.profiles {
		distance := CompareRatios(ratios, p.Ratios)
		if distance < tolerance && distance < bestDistance {
			bestDistance = distance
			best = p
		}
	}

	if best == nil {
		return nil, false
	}
	return &MatchResult{
		ID:       best.ID,
		Name:     best.Name,
		Category: CategoryKnown,
		Score:    bestDistance,
		IsMatch:  true,
	}, true
}

// Add implements the Matcher interface; the category is not stored on
// geometric profiles and is ignored.
func (m *GeometricMatcher) Add(id, name string, vec []float64, _ Category) error {
	return m.AddProfile(id, name, vec)
}

// Remove implements the Matcher interface.
func (m *GeometricMatcher) Remove(id string) {
	m.RemoveProfile(id)
}

// Match returns the best profile within the default tolerance.
func (m *GeometricMatcher) Match(query []float64) (*MatchResult, bool) {
	return m.FindMatch(query, m.tolerance)
}

// Extract derives the ratio vector from a detection's landmarks.
func (m *GeometricMatcher) Extract(d *detector.Detection) ([]float64, bool) {
	if d == nil {
		return nil, false
	}
	return ExtractRatios(d.Landmarks)
}

// Size returns the number of stored profiles.
func (m *GeometricMatcher) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles)
}

// Kind names the strategy.
func (m *GeometricMatcher) Kind() string {
	return "geometric"
}

// Profiles returns a snapshot of the stored profiles in insertion order.
func (m *GeometricMatcher) Profiles() []Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		ratios := make([]float64, len(p.Ratios))
		copy(ratios, p.Ratios)
		out = append(out, Profile{ID: p.ID, Name: p.Name, Ratios: ratios})
	}
	return out
}

// Tolerance returns the default match tolerance.
func (m *GeometricMatcher) Tolerance() float64 {
	return m.tolerance
}

// CompareRatios returns the mean absolute difference between two ratio
// vectors. A length mismatch yields +Inf, which never matches, rather
// than an error: a malformed vector must not crash a per-frame path.
func CompareRatios(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum / float64(len(a))
}

func pointDistance(a, b detector.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
