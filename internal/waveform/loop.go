package waveform

import (
	"sync"
	"time"

	"github.com/satriahrh/voicekey/server/internal/audio/analyser"
)

// Sampler supplies the live frequency snapshot drawn on each frame.
type Sampler interface {
	Sample() analyser.FrequencySnapshot
}

// Ticker is the frame clock driving a Loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

// NewTimeTicker returns a Ticker backed by time.Ticker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// LoopConfig sets the canvas and frame rate of a Loop.
type LoopConfig struct {
	Width     float64
	Height    float64
	FrameRate int
	NewTicker func(time.Duration) Ticker
}

func (c LoopConfig) withDefaults() LoopConfig {
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.FrameRate <= 0 {
		c.FrameRate = DefaultFrameRate
	}
	if c.NewTicker == nil {
		c.NewTicker = NewTimeTicker
	}
	return c
}

// Loop samples and draws once per frame until stopped.
type Loop struct {
	sampler Sampler
	draw    func(Path)
	cfg     LoopConfig

	mu      sync.Mutex
	started bool
	stopped bool
	stop    chan struct{}
	done    chan struct{}
}

// NewLoop creates a stopped loop. draw receives every rendered frame.
func NewLoop(sampler Sampler, draw func(Path), cfg LoopConfig) *Loop {
	return &Loop{
		sampler: sampler,
		draw:    draw,
		cfg:     cfg.withDefaults(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start draws the first frame immediately and then one per tick. A loop runs
// at most once; Start after Stop does nothing.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started || l.stopped {
		return
	}
	l.started = true
	go l.run()
}

// Stop cancels the loop and returns once no further frame can be drawn. It
// is safe to call more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.stopped {
		l.stopped = true
		close(l.stop)
	}
	started := l.started
	l.mu.Unlock()

	if started {
		<-l.done
	}
}

func (l *Loop) run() {
	defer close(l.done)

	ticker := l.cfg.NewTicker(time.Second / time.Duration(l.cfg.FrameRate))
	defer ticker.Stop()

	l.frame()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C():
			select {
			case <-l.stop:
				return
			default:
			}
			l.frame()
		}
	}
}

func (l *Loop) frame() {
	l.draw(Render(l.sampler.Sample(), l.cfg.Width, l.cfg.Height))
}
