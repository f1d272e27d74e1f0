package capture

import (
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Frame is a captured video frame with metadata. The Mat is owned by
// whichever consumer last pulled the frame; the owner must call Close
// once, and must not modify the Mat if another reference is still live.
type Frame struct {
	Mat       *gocv.Mat
	Width     int
	Height    int
	Timestamp time.Time
	Seq       uint64
}

// Close releases the underlying Mat. Safe to call on a nil frame and
// idempotent on an already-closed one.
func (f *Frame) Close() {
	if f == nil || f.Mat == nil {
		return
	}
	f.Mat.Close()
	f.Mat = nil
}

// FrameBuffer decouples the capture cadence from the processing cadence.
// With capacity <= 1 it holds a single latest-wins slot: a new frame
// silently replaces an unconsumed one. With a larger capacity it is a
// bounded queue that drops the oldest entry when full. Push never blocks;
// the capture loop must not stall behind a slow consumer.
type FrameBuffer struct {
	mu       sync.Mutex
	capacity int
	slot     *Frame
	queue    []*Frame
	drops    uint64
	notify   chan struct{}
}

// NewFrameBuffer creates a FrameBuffer. A capacity of 0 or 1 selects the
// single-slot latest-wins policy; anything larger selects the bounded
// queue policy with drop-oldest-on-full.
func NewFrameBuffer(capacity int) *FrameBuffer {
	b := &FrameBuffer{
		capacity: capacity,
		notify:   make(chan struct{}, 1),
	}
	if capacity > 1 {
		b.queue = make([]*Frame, 0, capacity)
	}
	return b
}

// Push hands a frame to the buffer. It never blocks and never fails.
// Any frame displaced by the drop policy is closed here, so the producer
// must not touch a frame after pushing it.
func (b *FrameBuffer) Push(f *Frame) {
	if f == nil {
		return
	}

	b.mu.Lock()
	if b.capacity <= 1 {
		if b.slot != nil {
			b.slot.Close()
			b.drops++
		}
		b.slot = f
	} else {
		if len(b.queue) >= b.capacity {
			oldest := b.queue[0]
			copy(b.queue, b.queue[1:])
			b.queue = b.queue[:len(b.queue)-1]
			oldest.Close()
			b.drops++
		}
		b.queue = append(b.queue, f)
	}
	b.mu.Unlock()

	// Wake a waiting consumer without blocking if none is waiting.
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Pull returns the next frame without blocking. Under the single-slot
// policy this is the most recently pushed frame; under the queue policy
// it is the oldest surviving one. A frame is delivered at most once.
// Returns ok=false when no frame is available.
func (b *FrameBuffer) Pull() (*Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.capacity <= 1 {
		f := b.slot
		b.slot = nil
		return f, f != nil
	}

	if len(b.queue) == 0 {
		return nil, false
	}
	f := b.queue[0]
	copy(b.queue, b.queue[1:])
	b.queue = b.queue[:len(b.queue)-1]
	return f, true
}

// PullWait behaves like Pull but blocks up to timeout for a frame to
// arrive. Returns ok=false on timeout rather than an error: an empty
// buffer is not a failure.
func (b *FrameBuffer) PullWait(timeout time.Duration) (*Frame, bool) {
	deadline := time.Now().Add(timeout)
	for {
		if f, ok := b.Pull(); ok {
			return f, true
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, false
		}

		timer := time.NewTimer(remaining)
		select {
		case <-b.notify:
			timer.Stop()
		case <-timer.C:
			// One final poll in case a push raced the timeout.
			return b.Pull()
		}
	}
}

// Len returns the number of buffered frames.
func (b *FrameBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.capacity <= 1 {
		if b.slot != nil {
			return 1
		}
		return 0
	}
	return len(b.queue)
}

// Drops returns how many frames the buffer has discarded so far.
func (b *FrameBuffer) Drops() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drops
}

// Clear discards and closes all buffered frames.
func (b *FrameBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.slot != nil {
		b.slot.Close()
		b.slot = nil
	}
	for _, f := range b.queue {
		f.Close()
	}
	b.queue = b.queue[:0]
}
