// Package recognize provides identity matching against a small in-memory
// gallery of known people, with two interchangeable strategies: cosine
// similarity over feature vectors and mean-absolute-difference over
// geometric facial ratios.
package recognize

import (
	"errors"

	"github.com/rdiaz/vigia/internal/detector"
)

// Category classifies a gallery identity.
type Category string

const (
	// CategoryKnown is a trusted household member.
	CategoryKnown Category = "known"
	// CategoryDelivery is a recognized but untrusted visitor.
	CategoryDelivery Category = "delivery"
	// CategoryUnknown is the default for unclassified identities.
	CategoryUnknown Category = "unknown"
)

// Valid reports whether the category is one of the enumerated values.
func (c Category) Valid() bool {
	switch c {
	case CategoryKnown, CategoryDelivery, CategoryUnknown:
		return true
	}
	return false
}

// Errors shared by the matcher implementations.
var (
	// ErrDimensionMismatch is returned when a vector's length does not
	// match the dimensionality fixed by the gallery's first insertion.
	ErrDimensionMismatch = errors.New("vector dimensionality mismatch")

	// ErrInvalidThreshold is returned at construction for thresholds or
	// tolerances outside their valid range.
	ErrInvalidThreshold = errors.New("threshold out of valid range")
)

// MatchResult is the outcome of comparing a query against the gallery.
// Score is the comparison value in the matcher's own ordering: the
// similarity matcher scores in [0,1] with higher meaning closer, the
// geometric matcher reports a distance with smaller meaning closer.
// Scores from different matchers must never be compared to each other.
type MatchResult struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Score    float64  `json:"score"`
	IsMatch  bool     `json:"isMatch"`
}

// ConfidencePercent returns the score as a percentage, for display.
func (r *MatchResult) ConfidencePercent() float64 {
	return r.Score * 100
}

// Matcher is the single capability the pipeline depends on. Both gallery
// strategies implement it; the active one is chosen at configuration
// time. Gallery mutations are safe to call concurrently with matching
// and are visible to the next Match call with no stale reads.
type Matcher interface {
	// Add inserts or replaces a gallery identity.
	Add(id, name string, vec []float64, category Category) error

	// Remove deletes an identity; removing an absent id is a no-op.
	Remove(id string)

	// Match returns the best gallery match for the query vector, or
	// ok=false when nothing clears the matcher's threshold, the gallery
	// is empty, or the query is unusable.
	Match(query []float64) (*MatchResult, bool)

	// Extract derives this matcher's query vector from a detection.
	// Returns ok=false when the detection carries no usable data, which
	// the pipeline treats as "no match", never as an error.
	Extract(d *detector.Detection) ([]float64, bool)

	// Size returns the number of gallery entries.
	Size() int

	// Kind names the strategy, "similarity" or "geometric". Callers use
	// it to pick which stored vector feeds the gallery.
	Kind() string
}
