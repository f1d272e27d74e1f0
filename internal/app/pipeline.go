package app

import (
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/rdiaz/vigia/internal/capture"
	"github.com/rdiaz/vigia/internal/detector"
	"github.com/rdiaz/vigia/internal/track"
)

const (
	// pullTimeout bounds how long the processing loop waits for a frame
	// before checking for shutdown.
	pullTimeout = 250 * time.Millisecond

	// maxReadBackoff caps the retry delay after camera read failures.
	maxReadBackoff = 2 * time.Second
)

// captureLoop is the producer: it reads frames at the camera rate,
// refreshes the JPEG snapshot for the live stream, and pushes frames
// into the buffer. Push never blocks, so a slow processing stage drops
// stale frames instead of stalling capture.
func (a *App) captureLoop(stopCh chan struct{}) {
	defer a.wg.Done()

	fps := a.camera.FPS()
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var seq uint64
	backoff := time.Duration(0)

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if backoff > 0 {
				time.Sleep(backoff)
			}

			mat, err := a.camera.ReadFrame()
			if err != nil {
				if backoff == 0 {
					backoff = 50 * time.Millisecond
					log.Printf("Error reading frame: %v", err)
				} else if backoff < maxReadBackoff {
					backoff *= 2
				}
				continue
			}
			backoff = 0
			seq++

			a.updateSnapshot(mat)

			a.buffer.Push(&capture.Frame{
				Mat:       mat,
				Width:     mat.Cols(),
				Height:    mat.Rows(),
				Timestamp: time.Now(),
				Seq:       seq,
			})
		}
	}
}

// updateSnapshot re-encodes the latest frame as JPEG for HTTP clients.
func (a *App) updateSnapshot(mat *gocv.Mat) {
	buf, err := gocv.IMEncode(".jpg", *mat)
	if err != nil {
		return
	}
	defer buf.Close()

	encoded := make([]byte, buf.Len())
	copy(encoded, buf.GetBytes())

	a.snapMu.Lock()
	a.snapshot = encoded
	a.snapMu.Unlock()
}

// processLoop is the consumer: detect, match, track, emit. Detection
// errors skip the frame entirely so a transient detector failure never
// reads as an absence.
func (a *App) processLoop(stopCh chan struct{}) {
	defer a.wg.Done()

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		frame, ok := a.buffer.PullWait(pullTimeout)
		if !ok {
			continue
		}

		if !a.IsEnabled() {
			frame.Close()
			continue
		}

		detections, err := a.detector.Detect(frame.Mat)
		frame.Close()
		if err != nil {
			log.Printf("Error detecting faces: %v", err)
			continue
		}

		best := detector.Best(detections)
		if best != nil {
			if vec, ok := a.matcher.Extract(best); ok {
				if result, matched := a.matcher.Match(vec); matched {
					a.snapMu.Lock()
					a.lastMatch = result
					a.snapMu.Unlock()
				}
			}
		}

		switch a.tracker.Update(len(detections) > 0) {
		case track.TransitionAppeared:
			e := Event{Kind: EventAppeared}
			if best != nil {
				e.BBoxX, e.BBoxY = best.X, best.Y
				e.BBoxWidth, e.BBoxHeight = best.Width, best.Height
			}
			if m := a.LastMatch(); m != nil {
				e.PersonID = m.ID
				e.PersonName = m.Name
				e.Category = string(m.Category)
				e.Confidence = m.Score
			}
			a.emit(e)

		case track.TransitionDeparted:
			e := Event{Kind: EventDeparted}
			// Attribute the departure to whoever was last recognized.
			if m := a.LastMatch(); m != nil {
				e.PersonID = m.ID
				e.PersonName = m.Name
				e.Category = string(m.Category)
				e.Confidence = m.Score
			}
			a.emit(e)

			a.snapMu.Lock()
			a.lastMatch = nil
			a.snapMu.Unlock()
		}
	}
}
