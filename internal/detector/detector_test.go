package detector

import (
	"errors"
	"testing"
)

func TestBest(t *testing.T) {
	if got := Best(nil); got != nil {
		t.Errorf("Best(nil) = %v, want nil", got)
	}

	dets := []Detection{
		{X: 0, Confidence: 0.5},
		{X: 1, Confidence: 0.8},
		{X: 2, Confidence: 0.8},
		{X: 3, Confidence: 0.3},
	}

	best := Best(dets)
	if best == nil {
		t.Fatal("Best() returned nil for non-empty slice")
	}
	// Highest confidence wins; ties keep the earlier detection.
	if best.X != 1 {
		t.Errorf("Best() picked detection X=%d, want X=1", best.X)
	}
}

func TestDetection_Center(t *testing.T) {
	d := Detection{X: 100, Y: 50, Width: 40, Height: 60}
	cx, cy := d.Center()
	if cx != 120 || cy != 80 {
		t.Errorf("Center() = (%d, %d), want (120, 80)", cx, cy)
	}
}

func TestMockDetector_Script(t *testing.T) {
	mock := NewMockDetector()
	mock.SetScript([][]Detection{
		{FrontalFaceDetection()},
		nil,
		{FrontalFaceDetection(), NoLandmarkDetection()},
	})

	dets, err := mock.Detect(nil)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(dets) != 1 {
		t.Errorf("frame 1: got %d detections, want 1", len(dets))
	}

	dets, _ = mock.Detect(nil)
	if len(dets) != 0 {
		t.Errorf("frame 2: got %d detections, want 0", len(dets))
	}

	dets, _ = mock.Detect(nil)
	if len(dets) != 2 {
		t.Errorf("frame 3: got %d detections, want 2", len(dets))
	}

	// Exhausted scripts replay the final frame.
	dets, _ = mock.Detect(nil)
	if len(dets) != 2 {
		t.Errorf("after script end: got %d detections, want 2", len(dets))
	}

	if mock.Calls() != 4 {
		t.Errorf("Calls() = %d, want 4", mock.Calls())
	}
}

func TestMockDetector_Error(t *testing.T) {
	mock := NewMockDetector()
	wantErr := errors.New("backend unavailable")
	mock.SetError(wantErr)

	if _, err := mock.Detect(nil); !errors.Is(err, wantErr) {
		t.Errorf("Detect() error = %v, want %v", err, wantErr)
	}
}

func TestNewHaarDetector_MissingCascade(t *testing.T) {
	if _, err := NewHaarDetector(HaarConfig{}); err == nil {
		t.Error("NewHaarDetector() with no cascade file should fail")
	}

	if _, err := NewHaarDetector(HaarConfig{FaceCascadeFile: "does/not/exist.xml"}); err == nil {
		t.Error("NewHaarDetector() with a bogus cascade file should fail")
	}
}
