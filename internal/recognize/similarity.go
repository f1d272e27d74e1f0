package recognize

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rdiaz/vigia/internal/detector"
)

// DefaultThreshold is the minimum mapped cosine similarity for a match.
// The mapping places orthogonal vectors at 0.5, so thresholds are
// calibrated well above that.
const DefaultThreshold = 0.6

// knownFace is a gallery entry of the similarity matcher.
type knownFace struct {
	id       string
	name     string
	vector   []float64
	category Category
}

// SimilarityMatcher matches feature vectors against a gallery of known
// identities by cosine similarity. Queries are O(gallery size x vector
// length), which is fine for the tens of entries a household gallery
// holds; no index structure is kept.
type SimilarityMatcher struct {
	mu        sync.RWMutex
	threshold float64
	dim       int
	faces     map[string]*knownFace
}

// NewSimilarityMatcher creates a matcher with the given default
// threshold. Thresholds outside [0,1] are rejected here so per-frame
// calls never have to validate configuration.
func NewSimilarityMatcher(threshold float64) (*SimilarityMatcher, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: similarity threshold %v not in [0,1]", ErrInvalidThreshold, threshold)
	}
	return &SimilarityMatcher{
		threshold: threshold,
		faces:     make(map[string]*knownFace),
	}, nil
}

// Add inserts or replaces a known identity. The vector is copied, and
// its length fixes the gallery dimensionality on first insert; later
// inserts with a different length are an error, never truncated.
func (m *SimilarityMatcher) Add(id, name string, vec []float64, category Category) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}
	if !category.Valid() {
		category = CategoryUnknown
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dim == 0 {
		m.dim = len(vec)
	} else if len(vec) != m.dim {
		return fmt.Errorf("%w: got %d, gallery uses %d", ErrDimensionMismatch, len(vec), m.dim)
	}

	stored := make([]float64, len(vec))
	copy(stored, vec)

	m.faces[id] = &knownFace{id: id, name: name, vector: stored, category: category}
	return nil
}

// Remove deletes an identity from the gallery. Removing an id that is
// not present is a no-op.
func (m *SimilarityMatcher) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.faces, id)
}

// Match returns the best match above the default threshold.
func (m *SimilarityMatcher) Match(query []float64) (*MatchResult, bool) {
	return m.FindBestMatch(query, m.threshold)
}

// FindBestMatch scores the query against every gallery entry and returns
// the highest-similarity entry if it clears the threshold. An empty
// gallery or a query of the wrong dimensionality yields no match.
func (m *SimilarityMatcher) FindBestMatch(query []float64, threshold float64) (*MatchResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.faces) == 0 || (m.dim > 0 && len(query) != m.dim) {
		return nil, false
	}

	var best *MatchResult
	bestSim := 0.0

	for _, f := range m.faces {
		sim := CosineSimilarity(query, f.vector)
		if sim > bestSim {
			bestSim = sim
			best = &MatchResult{
				ID:       f.id,
				Name:     f.name,
				Category: f.category,
				Score:    sim,
				IsMatch:  sim >= threshold,
			}
		}
	}

	if best == nil || !best.IsMatch {
		return nil, false
	}
	return best, true
}

// TopK scores every gallery entry and returns the k most similar,
// sorted by similarity descending, independent of the threshold.
// Queries of the wrong dimensionality yield nil, same as FindBestMatch.
func (m *SimilarityMatcher) TopK(query []float64, k int) []MatchResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.faces) == 0 || k <= 0 || (m.dim > 0 && len(query) != m.dim) {
		return nil
	}

	results := make([]MatchResult, 0, len(m.faces))
	for _, f := range m.faces {
		sim := CosineSimilarity(query, f.vector)
		results = append(results, MatchResult{
			ID:       f.id,
			Name:     f.name,
			Category: f.category,
			Score:    sim,
			IsMatch:  sim >= m.threshold,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// Extract returns the detection's feature vector, when present.
func (m *SimilarityMatcher) Extract(d *detector.Detection) ([]float64, bool) {
	if d == nil || len(d.Embedding) == 0 {
		return nil, false
	}
	return d.Embedding, true
}

// Size returns the number of gallery entries.
func (m *SimilarityMatcher) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.faces)
}

// Threshold returns the default match threshold.
func (m *SimilarityMatcher) Threshold() float64 {
	return m.threshold
}

// Kind names the strategy.
func (m *SimilarityMatcher) Kind() string {
	return "similarity"
}

// CosineSimilarity computes the cosine similarity of two vectors mapped
// from its native [-1,1] range into [0,1] via (cos+1)/2, so 0.5 means
// orthogonal rather than "no similarity". If either vector has zero
// magnitude the similarity is 0.0; there is never a division by zero.
func CosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	cos := dot / math.Sqrt(normA*normB)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return (cos + 1) / 2
}
