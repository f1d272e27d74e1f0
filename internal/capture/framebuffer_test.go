package capture

import (
	"sync"
	"testing"
	"time"
)

// Frames with a nil Mat are fine for buffer tests; the buffer only
// touches the Mat when closing a dropped frame, and Close tolerates nil.
func testFrame(seq uint64) *Frame {
	return &Frame{Seq: seq, Timestamp: time.Now()}
}

func TestFrameBuffer_SingleSlot_LatestWins(t *testing.T) {
	buf := NewFrameBuffer(1)

	for i := 1; i <= 5; i++ {
		buf.Push(testFrame(uint64(i)))
	}

	f, ok := buf.Pull()
	if !ok {
		t.Fatal("Pull() returned no frame after pushes")
	}
	if f.Seq != 5 {
		t.Errorf("Pull() returned seq %d, want 5 (latest)", f.Seq)
	}

	if buf.Drops() != 4 {
		t.Errorf("Drops() = %d, want 4", buf.Drops())
	}

	// A frame must never be delivered twice.
	if _, ok := buf.Pull(); ok {
		t.Error("second Pull() delivered a frame again")
	}
}

func TestFrameBuffer_Pull_Empty(t *testing.T) {
	buf := NewFrameBuffer(1)

	if _, ok := buf.Pull(); ok {
		t.Error("Pull() on empty buffer reported a frame")
	}
}

func TestFrameBuffer_Bounded_DropsOldest(t *testing.T) {
	buf := NewFrameBuffer(3)

	for i := 1; i <= 5; i++ {
		buf.Push(testFrame(uint64(i)))
	}

	var got []uint64
	for {
		f, ok := buf.Pull()
		if !ok {
			break
		}
		got = append(got, f.Seq)
	}

	want := []uint64{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("drained %d frames, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d: seq = %d, want %d", i, got[i], want[i])
		}
	}

	if buf.Drops() != 2 {
		t.Errorf("Drops() = %d, want 2", buf.Drops())
	}
}

func TestFrameBuffer_PullWait_Timeout(t *testing.T) {
	buf := NewFrameBuffer(1)

	start := time.Now()
	_, ok := buf.PullWait(20 * time.Millisecond)
	if ok {
		t.Error("PullWait() on empty buffer reported a frame")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("PullWait() returned before the timeout elapsed")
	}
}

func TestFrameBuffer_PullWait_WakesOnPush(t *testing.T) {
	buf := NewFrameBuffer(1)

	go func() {
		time.Sleep(10 * time.Millisecond)
		buf.Push(testFrame(7))
	}()

	f, ok := buf.PullWait(time.Second)
	if !ok {
		t.Fatal("PullWait() timed out waiting for pushed frame")
	}
	if f.Seq != 7 {
		t.Errorf("PullWait() returned seq %d, want 7", f.Seq)
	}
}

func TestFrameBuffer_ConcurrentProducerConsumer(t *testing.T) {
	buf := NewFrameBuffer(1)

	const total = 200
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		for i := 1; i <= total; i++ {
			buf.Push(testFrame(uint64(i)))
		}
	}()

	var pulled uint64
	var lastSeq uint64
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f, ok := buf.Pull()
		if !ok {
			if pulled > 0 && lastSeq == total {
				break
			}
			continue
		}
		if f.Seq <= lastSeq {
			t.Fatalf("frames delivered out of order: %d after %d", f.Seq, lastSeq)
		}
		lastSeq = f.Seq
		pulled++
	}
	wg.Wait()

	if pulled == 0 {
		t.Fatal("consumer pulled no frames")
	}
	if pulled+buf.Drops() > total {
		t.Errorf("pulled %d + dropped %d exceeds %d pushed", pulled, buf.Drops(), total)
	}
}

func TestFrameBuffer_Clear(t *testing.T) {
	buf := NewFrameBuffer(3)
	buf.Push(testFrame(1))
	buf.Push(testFrame(2))

	buf.Clear()

	if buf.Len() != 0 {
		t.Errorf("Len() = %d after Clear(), want 0", buf.Len())
	}
	if _, ok := buf.Pull(); ok {
		t.Error("Pull() after Clear() delivered a frame")
	}
}
