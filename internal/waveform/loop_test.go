package waveform

import (
	"sync"
	"testing"
	"time"

	"github.com/satriahrh/voicekey/server/internal/audio/analyser"
)

type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }

func (m *manualTicker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

type constSampler struct{ snap analyser.FrequencySnapshot }

func (c constSampler) Sample() analyser.FrequencySnapshot { return c.snap }

type frameLog struct {
	mu     sync.Mutex
	frames []Path
	drawn  chan struct{}
}

func newFrameLog() *frameLog {
	return &frameLog{drawn: make(chan struct{}, 16)}
}

func (f *frameLog) draw(p Path) {
	f.mu.Lock()
	f.frames = append(f.frames, p)
	f.mu.Unlock()
	select {
	case f.drawn <- struct{}{}:
	default:
	}
}

func (f *frameLog) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *frameLog) await(t *testing.T) {
	t.Helper()
	select {
	case <-f.drawn:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
}

func newManualLoop(f *frameLog) (*Loop, *manualTicker) {
	ticker := &manualTicker{ch: make(chan time.Time)}
	loop := NewLoop(constSampler{snap: make(analyser.FrequencySnapshot, 8)}, f.draw, LoopConfig{
		NewTicker: func(time.Duration) Ticker { return ticker },
	})
	return loop, ticker
}

func TestLoopDrawsImmediatelyThenPerTick(t *testing.T) {
	frames := newFrameLog()
	loop, ticker := newManualLoop(frames)

	loop.Start()
	frames.await(t)

	ticker.ch <- time.Now()
	frames.await(t)
	ticker.ch <- time.Now()
	frames.await(t)

	loop.Stop()
	if frames.count() != 3 {
		t.Errorf("expected 3 frames, got %d", frames.count())
	}

	f := frames.frames[0]
	if f.Width != DefaultWidth || f.Height != DefaultHeight {
		t.Errorf("expected default canvas, got %vx%v", f.Width, f.Height)
	}
	if len(f.Points) != 10 {
		t.Errorf("expected 10 points, got %d", len(f.Points))
	}
}

func TestLoopNoDrawAfterStop(t *testing.T) {
	frames := newFrameLog()
	loop, ticker := newManualLoop(frames)

	loop.Start()
	frames.await(t)
	loop.Stop()

	select {
	case ticker.ch <- time.Now():
		t.Fatal("loop still consuming ticks after Stop")
	case <-time.After(20 * time.Millisecond):
	}
	if frames.count() != 1 {
		t.Errorf("expected 1 frame, got %d", frames.count())
	}

	ticker.mu.Lock()
	defer ticker.mu.Unlock()
	if !ticker.stopped {
		t.Error("expected ticker stopped")
	}
}

func TestLoopStopIdempotent(t *testing.T) {
	frames := newFrameLog()
	loop, _ := newManualLoop(frames)

	loop.Stop()
	loop.Start()
	loop.Stop()

	if frames.count() != 0 {
		t.Errorf("expected no frames from a loop stopped before start, got %d", frames.count())
	}
}

func TestLoopWithRealTicker(t *testing.T) {
	frames := newFrameLog()
	loop := NewLoop(constSampler{snap: make(analyser.FrequencySnapshot, 4)}, frames.draw, LoopConfig{FrameRate: 200})

	loop.Start()
	frames.await(t)
	frames.await(t)
	loop.Stop()

	n := frames.count()
	time.Sleep(20 * time.Millisecond)
	if frames.count() != n {
		t.Errorf("frames drawn after Stop: %d -> %d", n, frames.count())
	}
}
