package detector

import (
	"fmt"
	"image"
	"sort"
	"sync"

	"gocv.io/x/gocv"
)

// Haar detection parameters, tuned for speed on low-power hardware.
const (
	haarScaleFactor  = 1.2
	haarMinNeighbors = 4
	haarMinFaceSize  = 60

	// DefaultProcessEveryN makes the detector run the cascades on one
	// frame out of N and replay the cached detections for the rest.
	DefaultProcessEveryN = 5
)

// HaarConfig holds configuration options for the Haar cascade detector.
type HaarConfig struct {
	// FaceCascadeFile is the path to the frontal face cascade XML.
	FaceCascadeFile string

	// EyeCascadeFile is the path to the eye cascade XML. When empty,
	// detections carry no landmarks.
	EyeCascadeFile string

	// ProcessEveryN runs the cascades on one frame out of N (default 5).
	// Intermediate frames return the cached detection list.
	ProcessEveryN int

	// Embedder, when set, computes a feature vector for each detected
	// face crop and attaches it to the detection.
	Embedder *HistogramEmbedder
}

// HaarDetector detects faces with OpenCV Haar cascades and estimates the
// five facial landmarks from eye positions. It needs no model downloads
// or GPU and runs comfortably on a Raspberry Pi.
type HaarDetector struct {
	faceCascade gocv.CascadeClassifier
	eyeCascade  gocv.CascadeClassifier
	hasEyes     bool
	embedder    *HistogramEmbedder

	mu            sync.Mutex
	frameCount    int
	processEveryN int
	cached        []Detection
}

// NewHaarDetector creates a HaarDetector from the given cascade files.
func NewHaarDetector(config HaarConfig) (*HaarDetector, error) {
	if config.FaceCascadeFile == "" {
		return nil, fmt.Errorf("face cascade file not configured")
	}

	faceCascade := gocv.NewCascadeClassifier()
	if !faceCascade.Load(config.FaceCascadeFile) {
		faceCascade.Close()
		return nil, fmt.Errorf("failed to load face cascade %q", config.FaceCascadeFile)
	}

	d := &HaarDetector{
		faceCascade:   faceCascade,
		processEveryN: config.ProcessEveryN,
		embedder:      config.Embedder,
	}
	if d.processEveryN <= 0 {
		d.processEveryN = DefaultProcessEveryN
	}

	if config.EyeCascadeFile != "" {
		eyeCascade := gocv.NewCascadeClassifier()
		if !eyeCascade.Load(config.EyeCascadeFile) {
			eyeCascade.Close()
			faceCascade.Close()
			return nil, fmt.Errorf("failed to load eye cascade %q", config.EyeCascadeFile)
		}
		d.eyeCascade = eyeCascade
		d.hasEyes = true
	}

	return d, nil
}

// Detect finds faces in the frame. Only one frame out of N is actually
// run through the cascades; the rest replay the cached detections so a
// slow consumer still gets a detection list for every frame.
func (d *HaarDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	if frame == nil || frame.Empty() {
		return nil, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.frameCount++
	if d.frameCount%d.processEveryN != 0 {
		return d.cached, nil
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	rects := d.faceCascade.DetectMultiScaleWithParams(
		gray,
		haarScaleFactor,
		haarMinNeighbors,
		0,
		image.Pt(haarMinFaceSize, haarMinFaceSize),
		image.Pt(0, 0),
	)

	detections := make([]Detection, 0, len(rects))
	for _, r := range rects {
		det := Detection{
			X:          r.Min.X,
			Y:          r.Min.Y,
			Width:      r.Dx(),
			Height:     r.Dy(),
			Confidence: 0.9,
			Label:      "face",
		}

		if d.hasEyes {
			det.Landmarks = d.estimateLandmarks(&gray, r)
		}

		if d.embedder != nil {
			crop := frame.Region(r)
			det.Embedding, _ = d.embedder.Embed(&crop)
			crop.Close()
		}

		detections = append(detections, det)
	}

	d.cached = detections
	return detections, nil
}

// estimateLandmarks derives the five facial landmarks from eye cascade
// hits inside the face rectangle. Mouth, nose and chin positions are
// estimated from face-box proportions, which is accurate enough for the
// ratio matcher. Returns nil when fewer than two eyes are found.
func (d *HaarDetector) estimateLandmarks(gray *gocv.Mat, face image.Rectangle) *Landmarks {
	roi := gray.Region(face)
	defer roi.Close()

	eyes := d.eyeCascade.DetectMultiScaleWithParams(
		roi, 1.1, 3, 0, image.Pt(0, 0), image.Pt(0, 0),
	)
	if len(eyes) < 2 {
		return nil
	}

	// Leftmost hit is the left eye from the camera's point of view.
	sort.Slice(eyes, func(i, j int) bool { return eyes[i].Min.X < eyes[j].Min.X })

	x, y := float64(face.Min.X), float64(face.Min.Y)
	w, h := float64(face.Dx()), float64(face.Dy())

	leftEye := Point{
		X: x + float64(eyes[0].Min.X+eyes[0].Dx()/2),
		Y: y + float64(eyes[0].Min.Y+eyes[0].Dy()/2),
	}
	rightEye := Point{
		X: x + float64(eyes[1].Min.X+eyes[1].Dx()/2),
		Y: y + float64(eyes[1].Min.Y+eyes[1].Dy()/2),
	}
	nose := Point{X: x + w/2, Y: y + h*0.55}

	return &Landmarks{
		LeftEye:  leftEye,
		RightEye: rightEye,
		Mouth:    Point{X: x + w/2, Y: y + h*0.75},
		Nose:     &nose,
		Chin:     Point{X: x + w/2, Y: y + h},
	}
}

// Close releases the cascade classifiers.
func (d *HaarDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.faceCascade.Close()
	if d.hasEyes {
		d.eyeCascade.Close()
		d.hasEyes = false
	}
	return nil
}
