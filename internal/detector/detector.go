// Package detector provides face detection interfaces and types for the
// vigia monitoring pipeline.
package detector

import "gocv.io/x/gocv"

// Detector defines the interface for face detection implementations.
// The pipeline treats every backend polymorphically through this single
// capability and never depends on which one produced the detections.
type Detector interface {
	// Detect analyzes a video frame and returns detected faces.
	// Returns an empty slice if no faces are found.
	Detect(frame *gocv.Mat) ([]Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Point is a 2D pixel coordinate within a frame.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmarks holds the named facial reference points a backend may attach
// to a detection. LeftEye, RightEye, Mouth and Chin are required for
// geometric ratio extraction; Nose is optional and nil when the backend
// could not locate it.
type Landmarks struct {
	LeftEye  Point  `json:"leftEye"`
	RightEye Point  `json:"rightEye"`
	Mouth    Point  `json:"mouth"`
	Chin     Point  `json:"chin"`
	Nose     *Point `json:"nose,omitempty"`
}

// Detection represents a single detected face in a frame.
type Detection struct {
	X          int        `json:"x"`
	Y          int        `json:"y"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Confidence float64    `json:"confidence"`
	Label      string     `json:"label"`
	Landmarks  *Landmarks `json:"landmarks,omitempty"`
	Embedding  []float64  `json:"-"`
}

// Center returns the center point of the bounding box.
func (d *Detection) Center() (int, int) {
	return d.X + d.Width/2, d.Y + d.Height/2
}

// Area returns the area of the bounding box in pixels.
func (d *Detection) Area() int {
	return d.Width * d.Height
}

// Best returns the detection with the highest confidence, or nil if the
// slice is empty. Ties keep the earlier detection.
func Best(detections []Detection) *Detection {
	if len(detections) == 0 {
		return nil
	}
	best := &detections[0]
	for i := 1; i < len(detections); i++ {
		if detections[i].Confidence > best.Confidence {
			best = &detections[i]
		}
	}
	return best
}
