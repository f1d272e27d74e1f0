package detector

import (
	"errors"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// Embedding layout: a gray-level histogram followed by mean/stddev
// texture statistics over a 4x4 grid of the face crop.
const (
	// EmbeddingSize is the fixed dimensionality of produced vectors.
	EmbeddingSize = 128

	embeddingCropSize = 160
	textureRegions    = 4
)

// ErrEmptyCrop is returned when asked to embed an empty image.
var ErrEmptyCrop = errors.New("empty face crop")

// HistogramEmbedder produces a cheap fixed-length feature vector from a
// face crop: an intensity histogram plus per-region texture statistics,
// L2-normalized. It is not a learned embedding, but it is stable enough
// for a small gallery and runs in well under a millisecond.
type HistogramEmbedder struct{}

// NewHistogramEmbedder creates a HistogramEmbedder.
func NewHistogramEmbedder() *HistogramEmbedder {
	return &HistogramEmbedder{}
}

// Embed computes the feature vector for a face crop.
func (e *HistogramEmbedder) Embed(crop *gocv.Mat) ([]float64, error) {
	if crop == nil || crop.Empty() {
		return nil, ErrEmptyCrop
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(*crop, &resized, image.Pt(embeddingCropSize, embeddingCropSize), 0, 0, gocv.InterpolationLinear)

	gray := gocv.NewMat()
	defer gray.Close()
	if resized.Channels() > 1 {
		gocv.CvtColor(resized, &gray, gocv.ColorBGRToGray)
	} else {
		resized.CopyTo(&gray)
	}

	// Texture part: mean and stddev per grid cell.
	texture := make([]float64, 0, textureRegions*textureRegions*2)
	cell := embeddingCropSize / textureRegions
	for i := 0; i < textureRegions; i++ {
		for j := 0; j < textureRegions; j++ {
			region := gray.Region(image.Rect(j*cell, i*cell, (j+1)*cell, (i+1)*cell))
			mean, stddev := regionStats(&region)
			region.Close()
			texture = append(texture, mean/255.0, stddev/255.0)
		}
	}

	// Histogram part fills the remaining dimensions.
	histBins := EmbeddingSize - len(texture)
	hist := gocv.NewMat()
	defer hist.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.CalcHist([]gocv.Mat{gray}, []int{0}, mask, &hist, []int{histBins}, []float64{0, 256}, false)

	vec := make([]float64, 0, EmbeddingSize)
	for i := 0; i < histBins; i++ {
		vec = append(vec, float64(hist.GetFloatAt(i, 0)))
	}
	vec = append(vec, texture...)

	normalize(vec)
	return vec, nil
}

// regionStats returns the mean and standard deviation of a single-channel Mat.
func regionStats(m *gocv.Mat) (float64, float64) {
	meanMat := gocv.NewMat()
	defer meanMat.Close()
	stdMat := gocv.NewMat()
	defer stdMat.Close()

	gocv.MeanStdDev(*m, &meanMat, &stdMat)
	return meanMat.GetDoubleAt(0, 0), stdMat.GetDoubleAt(0, 0)
}

// normalize scales the vector to unit L2 norm in place. Zero vectors are
// left untouched.
func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}
