package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to script the detection results frame by frame.
type MockDetector struct {
	mu         sync.Mutex
	detections []Detection
	script     [][]Detection
	scriptPos  int
	err        error
	calls      int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetDetections sets the detections returned by every subsequent Detect call.
func (m *MockDetector) SetDetections(detections []Detection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detections = detections
	m.script = nil
	m.scriptPos = 0
}

// SetScript sets a per-frame sequence of detection lists. Once the script
// is exhausted, Detect keeps returning the last entry.
func (m *MockDetector) SetScript(script [][]Detection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = script
	m.scriptPos = 0
}

// SetError sets the error returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the scripted or fixed detections.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}

	if m.script != nil {
		if m.scriptPos >= len(m.script) {
			return m.script[len(m.script)-1], nil
		}
		dets := m.script[m.scriptPos]
		m.scriptPos++
		return dets, nil
	}

	return m.detections, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// FrontalFaceDetection returns a canned detection of a well-proportioned
// frontal face with a full landmark set, centered in a 1280x720 frame.
func FrontalFaceDetection() Detection {
	nose := Point{X: 640, Y: 345}
	return Detection{
		X:          540,
		Y:          240,
		Width:      200,
		Height:     220,
		Confidence: 0.9,
		Label:      "face",
		Landmarks: &Landmarks{
			LeftEye:  Point{X: 600, Y: 300},
			RightEye: Point{X: 680, Y: 300},
			Mouth:    Point{X: 640, Y: 405},
			Nose:     &nose,
			Chin:     Point{X: 640, Y: 460},
		},
	}
}

// TinyFaceDetection returns a detection too small for ratio extraction:
// the landmarks are only a few pixels apart.
func TinyFaceDetection() Detection {
	return Detection{
		X:          10,
		Y:          10,
		Width:      12,
		Height:     14,
		Confidence: 0.9,
		Label:      "face",
		Landmarks: &Landmarks{
			LeftEye:  Point{X: 13, Y: 14},
			RightEye: Point{X: 18, Y: 14},
			Mouth:    Point{X: 16, Y: 20},
			Chin:     Point{X: 16, Y: 24},
		},
	}
}

// NoLandmarkDetection returns a detection without any landmark set, as a
// backend produces when the eye cascade finds nothing.
func NoLandmarkDetection() Detection {
	return Detection{
		X:          100,
		Y:          100,
		Width:      150,
		Height:     170,
		Confidence: 0.9,
		Label:      "face",
	}
}
