package recognize

import (
	"math"
	"testing"

	"github.com/rdiaz/vigia/internal/detector"
)

func TestExtractRatios(t *testing.T) {
	d := detector.FrontalFaceDetection()

	ratios, ok := ExtractRatios(d.Landmarks)
	if !ok {
		t.Fatal("ExtractRatios() failed for a well-formed landmark set")
	}
	if len(ratios) != RatioCount {
		t.Fatalf("ExtractRatios() returned %d ratios, want %d", len(ratios), RatioCount)
	}

	// The eye/width ratio is 1/2.2 by construction and the mouth/eye
	// ratio is the fixed 0.6 estimate.
	if math.Abs(ratios[0]-1/faceWidthFactor) > 1e-9 {
		t.Errorf("eye/width ratio = %v, want %v", ratios[0], 1/faceWidthFactor)
	}
	if ratios[2] != mouthEyeFactor {
		t.Errorf("mouth/eye ratio = %v, want %v", ratios[2], mouthEyeFactor)
	}
	for i, r := range ratios {
		if r <= 0 {
			t.Errorf("ratio %d = %v, want positive", i, r)
		}
	}
}

func TestExtractRatios_NoseDefaulted(t *testing.T) {
	d := detector.FrontalFaceDetection()
	withNose, _ := ExtractRatios(d.Landmarks)

	d.Landmarks.Nose = nil
	withoutNose, ok := ExtractRatios(d.Landmarks)
	if !ok {
		t.Fatal("ExtractRatios() failed with a missing nose")
	}

	// Only the nose-dependent ratio may differ.
	for i := 0; i < 3; i++ {
		if withNose[i] != withoutNose[i] {
			t.Errorf("ratio %d changed when nose was estimated: %v vs %v", i, withNose[i], withoutNose[i])
		}
	}
}

func TestExtractRatios_Degenerate(t *testing.T) {
	if _, ok := ExtractRatios(nil); ok {
		t.Error("ExtractRatios(nil) succeeded")
	}

	// Landmarks only a few pixels apart are below the sanity threshold.
	d := detector.TinyFaceDetection()
	if _, ok := ExtractRatios(d.Landmarks); ok {
		t.Error("ExtractRatios() accepted a degenerate tiny face")
	}
}

func TestGeometricMatcher_MatchWithinTolerance(t *testing.T) {
	m, err := NewGeometricMatcher(0.15)
	if err != nil {
		t.Fatalf("NewGeometricMatcher() error = %v", err)
	}

	if err := m.AddProfile("a", "Ana", []float64{0.4, 0.3, 0.2, 0.5}); err != nil {
		t.Fatalf("AddProfile() error = %v", err)
	}

	// Mean absolute difference of about 0.01 is well inside 0.15.
	result, ok := m.Match([]float64{0.41, 0.31, 0.19, 0.49})
	if !ok {
		t.Fatal("Match() found nothing for a near-identical query")
	}
	if result.ID != "a" {
		t.Errorf("Match() = %q, want profile a", result.ID)
	}
	if result.Score >= 0.15 {
		t.Errorf("Match() distance %v not below tolerance", result.Score)
	}

	// A wildly different query matches nothing.
	if _, ok := m.Match([]float64{0.9, 0.9, 0.9, 0.9}); ok {
		t.Error("Match() accepted a query far outside tolerance")
	}
}

func TestGeometricMatcher_TieBreaksToFirstInserted(t *testing.T) {
	m, _ := NewGeometricMatcher(0.15)

	// Two profiles at exactly the same distance from the query.
	m.AddProfile("first", "Ana", []float64{0.41, 0.3, 0.2, 0.5})
	m.AddProfile("second", "Bruno", []float64{0.39, 0.3, 0.2, 0.5})

	result, ok := m.Match([]float64{0.4, 0.3, 0.2, 0.5})
	if !ok {
		t.Fatal("Match() found nothing")
	}
	if result.ID != "first" {
		t.Errorf("tie broke to %q, want first-inserted profile", result.ID)
	}
}

func TestGeometricMatcher_AddReplaceRemove(t *testing.T) {
	m, _ := NewGeometricMatcher(0.15)

	m.AddProfile("a", "Ana", []float64{0.4, 0.3, 0.2, 0.5})
	m.AddProfile("a", "Ana Maria", []float64{0.4, 0.3, 0.2, 0.5})

	if m.Size() != 1 {
		t.Errorf("Size() = %d after replacing, want 1", m.Size())
	}
	if got := m.Profiles()[0].Name; got != "Ana Maria" {
		t.Errorf("replaced profile name = %q, want updated name", got)
	}

	m.RemoveProfile("a")
	m.RemoveProfile("a") // idempotent
	if m.Size() != 0 {
		t.Errorf("Size() = %d after removal, want 0", m.Size())
	}
}

func TestGeometricMatcher_WrongLength(t *testing.T) {
	m, _ := NewGeometricMatcher(0.15)

	if err := m.AddProfile("a", "Ana", []float64{0.4, 0.3}); err == nil {
		t.Error("AddProfile() accepted a 2-ratio vector")
	}

	m.AddProfile("a", "Ana", []float64{0.4, 0.3, 0.2, 0.5})

	// A malformed query gets infinite distance, not an error.
	if _, ok := m.Match([]float64{0.4, 0.3}); ok {
		t.Error("Match() accepted a wrong-length query")
	}
}

func TestCompareRatios(t *testing.T) {
	a := []float64{0.4, 0.3, 0.2, 0.5}
	b := []float64{0.5, 0.2, 0.3, 0.4}

	if got := CompareRatios(a, a); got != 0 {
		t.Errorf("CompareRatios(a, a) = %v, want 0", got)
	}
	if got := CompareRatios(a, b); math.Abs(got-0.1) > 1e-9 {
		t.Errorf("CompareRatios() = %v, want 0.1", got)
	}
	if got := CompareRatios(a, []float64{0.1}); !math.IsInf(got, 1) {
		t.Errorf("CompareRatios() with mismatched lengths = %v, want +Inf", got)
	}
}

func TestGeometricMatcher_ExtractFromDetection(t *testing.T) {
	m, _ := NewGeometricMatcher(0.15)

	d := detector.FrontalFaceDetection()
	ratios, ok := m.Extract(&d)
	if !ok || len(ratios) != RatioCount {
		t.Fatalf("Extract() = %v, %v", ratios, ok)
	}

	bare := detector.NoLandmarkDetection()
	if _, ok := m.Extract(&bare); ok {
		t.Error("Extract() reported ratios for a landmark-less detection")
	}
}

func TestNewGeometricMatcher_InvalidTolerance(t *testing.T) {
	for _, tolerance := range []float64{0, -0.15} {
		if _, err := NewGeometricMatcher(tolerance); err == nil {
			t.Errorf("NewGeometricMatcher(%v) should fail", tolerance)
		}
	}
}

// Round trip: enrolling the ratios extracted from a detection must match
// the same detection again.
func TestGeometricMatcher_EnrollAndRecognize(t *testing.T) {
	m, _ := NewGeometricMatcher(DefaultTolerance)

	d := detector.FrontalFaceDetection()
	ratios, ok := ExtractRatios(d.Landmarks)
	if !ok {
		t.Fatal("ExtractRatios() failed")
	}
	if err := m.AddProfile("a", "Ana", ratios); err != nil {
		t.Fatalf("AddProfile() error = %v", err)
	}

	again, _ := m.Extract(&d)
	result, ok := m.Match(again)
	if !ok {
		t.Fatal("Match() did not recognize the enrolled face")
	}
	if result.Score != 0 {
		t.Errorf("Match() distance = %v, want 0 for identical ratios", result.Score)
	}
}
