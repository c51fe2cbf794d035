package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/gopacket/layers"

	"centrifuge/internal/centrifuge"
)

type fakeSource struct {
	mu     sync.Mutex
	frames []centrifuge.Frame
	pos    int
	delay  time.Duration
}

func (f *fakeSource) NextPacket(ctx context.Context) (centrifuge.Frame, bool, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return centrifuge.Frame{}, false, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pos >= len(f.frames) {
		return centrifuge.Frame{}, false, nil
	}
	fr := f.frames[f.pos]
	f.pos++
	return fr, true, nil
}

func (f *fakeSource) LinkType() layers.LinkType { return layers.LinkTypeEthernet }
func (f *fakeSource) Close() error              { return nil }

func TestPoolClassifiesAllFrames(t *testing.T) {
	src := &fakeSource{frames: []centrifuge.Frame{
		{Timestamp: time.Now(), Data: []byte{0xff, 0xff, 0xff}},
		{Timestamp: time.Now(), Data: []byte{0x00}},
		{Timestamp: time.Now(), Data: nil},
	}}
	pool := &Pool{Source: src, Classifier: centrifuge.NewClassifier(centrifuge.DefaultDiscriminatorConfig()), Workers: 2}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var got []ClassifiedFrame
	for cf := range pool.Run(ctx) {
		got = append(got, cf)
	}
	if len(got) != len(src.frames) {
		t.Fatalf("expected %d classified frames, got %d", len(src.frames), len(got))
	}
}

// A slow consumer must never cause frames to be dropped: workers block on
// the full channel rather than discarding work, so every frame the source
// produced is eventually classified.
func TestPoolBlocksRatherThanDropsOnFullQueue(t *testing.T) {
	frameCount := QueueCapacity * 3
	frames := make([]centrifuge.Frame, frameCount)
	for i := range frames {
		frames[i] = centrifuge.Frame{Timestamp: time.Now(), Data: []byte{0x00}}
	}
	src := &fakeSource{frames: frames}
	pool := &Pool{Source: src, Classifier: centrifuge.NewClassifier(centrifuge.DefaultDiscriminatorConfig()), Workers: 4}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := pool.Run(ctx)
	time.Sleep(50 * time.Millisecond) // let workers pile up against the full channel before draining

	got := 0
	for range out {
		got++
	}
	if got != frameCount {
		t.Fatalf("expected every frame to be classified despite a slow consumer, got %d of %d", got, frameCount)
	}
}

func TestPoolStopsOnContextCancel(t *testing.T) {
	src := &fakeSource{delay: 10 * time.Millisecond, frames: make([]centrifuge.Frame, 1000)}
	for i := range src.frames {
		src.frames[i] = centrifuge.Frame{Timestamp: time.Now(), Data: []byte{0x00}}
	}
	pool := &Pool{Source: src, Classifier: centrifuge.NewClassifier(centrifuge.DefaultDiscriminatorConfig()), Workers: 4}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	count := 0
	done := make(chan struct{})
	go func() {
		for range pool.Run(ctx) {
			count++
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("pool did not shut down after context cancellation")
	}
	if count >= len(src.frames) {
		t.Fatalf("expected cancellation to stop the pool before exhausting the source")
	}
}
