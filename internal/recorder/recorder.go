// Package recorder drives one record button: it asks for microphone access,
// runs a capture session with a live waveform and hands the finished
// recording to the caller.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satriahrh/voicekey/server/internal/audio/analyser"
	"github.com/satriahrh/voicekey/server/internal/audio/capture"
	"github.com/satriahrh/voicekey/server/internal/waveform"
)

var (
	ErrBusy   = errors.New("recorder is busy")
	ErrClosed = errors.New("recorder is closed")
)

// Config bundles the capture and waveform settings of a recorder.
type Config struct {
	Capture  capture.Config
	Waveform waveform.LoopConfig
}

// Callbacks are invoked from the recorder's goroutines, never after Close
// has returned. Nil callbacks are skipped.
type Callbacks struct {
	OnStatus            func(Status)
	OnError             func(error)
	OnFrame             func(waveform.Path)
	OnRecordingComplete func(dataURI string)
}

type event any

type (
	startEvent  struct{ reply chan error }
	stopEvent   struct{ reply chan error }
	toggleEvent struct{ reply chan error }

	accessEvent struct {
		attempt uint64
		stream  capture.InputStream
		err     error
	}

	processingEvent struct{}
	completeEvent   struct{ dataURI string }
	failedEvent     struct{ err error }
)

// Recorder is a single-button recording state machine. All state changes
// happen on one event loop goroutine.
type Recorder struct {
	id        string
	mic       capture.Microphone
	cfg       Config
	callbacks Callbacks
	logger    *zap.Logger

	session *capture.Session

	events    chan event
	closing   chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	current atomic.Int32

	// owned by the event loop
	status       Status
	attempt      uint64
	cancelAccess context.CancelFunc
	frames       *waveform.Loop
}

// New creates an idle recorder and starts its event loop. mic may be nil on
// platforms without audio capture.
func New(mic capture.Microphone, cfg Config, callbacks Callbacks, logger *zap.Logger) *Recorder {
	r := &Recorder{
		id:        uuid.New().String(),
		mic:       mic,
		cfg:       cfg,
		callbacks: callbacks,
		events:    make(chan event),
		closing:   make(chan struct{}),
		done:      make(chan struct{}),
	}
	r.logger = logger.With(zap.String("recorderID", r.id))
	r.session = capture.NewSession(mic, cfg.Capture, capture.Handlers{
		OnProcessing: func() { r.post(processingEvent{}) },
		OnComplete:   func(uri string) { r.post(completeEvent{dataURI: uri}) },
		OnError:      func(err error) { r.post(failedEvent{err: err}) },
	}, r.logger)

	go r.run()
	return r
}

// ID identifies the recorder in logs and messages.
func (r *Recorder) ID() string { return r.id }

// Status returns the most recently published status.
func (r *Recorder) Status() Status { return Status(r.current.Load()) }

// Start requests microphone access and begins recording once granted.
// It returns ErrBusy unless the recorder is idle or finished.
func (r *Recorder) Start() error {
	if r.mic == nil {
		return capture.ErrUnsupportedPlatform
	}
	return r.request(func(reply chan error) event { return startEvent{reply} })
}

// Stop finishes the current recording. It does nothing unless recording.
func (r *Recorder) Stop() error {
	return r.request(func(reply chan error) event { return stopEvent{reply} })
}

// Toggle is the record button: it starts when idle or finished, stops when
// recording and is ignored otherwise.
func (r *Recorder) Toggle() error {
	if r.mic == nil {
		return capture.ErrUnsupportedPlatform
	}
	return r.request(func(reply chan error) event { return toggleEvent{reply} })
}

// Close tears the recorder down from any state. A pending access request is
// abandoned, the stream and analyser are released and buffered audio is
// discarded. No callback runs after Close returns.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() { close(r.closing) })
	<-r.done
	return nil
}

func (r *Recorder) request(build func(chan error) event) error {
	reply := make(chan error, 1)
	if !r.post(build(reply)) {
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-r.done:
		return ErrClosed
	}
}

func (r *Recorder) post(ev event) bool {
	select {
	case r.events <- ev:
		return true
	case <-r.closing:
		return false
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for {
		select {
		case <-r.closing:
			r.teardown()
			return
		default:
		}

		select {
		case <-r.closing:
			r.teardown()
			return
		case ev := <-r.events:
			r.handle(ev)
		}
	}
}

func (r *Recorder) handle(ev event) {
	switch e := ev.(type) {
	case startEvent:
		e.reply <- r.start()
	case stopEvent:
		r.stop()
		e.reply <- nil
	case toggleEvent:
		switch {
		case r.status.CanStart():
			e.reply <- r.start()
		case r.status == StatusRecording:
			r.stop()
			e.reply <- nil
		default:
			e.reply <- nil
		}
	case accessEvent:
		r.onAccess(e)
	case processingEvent:
		r.stopFrames()
		r.setStatus(StatusProcessing)
	case completeEvent:
		if r.callbacks.OnRecordingComplete != nil {
			r.callbacks.OnRecordingComplete(e.dataURI)
		}
		r.setStatus(StatusFinished)
	case failedEvent:
		r.fail(e.err)
	}
}

func (r *Recorder) start() error {
	if !r.status.CanStart() {
		return ErrBusy
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.attempt++
	attempt := r.attempt
	r.cancelAccess = cancel
	r.setStatus(StatusAwaitingPermission)

	go func() {
		stream, err := r.session.RequestAccess(ctx)
		if !r.post(accessEvent{attempt: attempt, stream: stream, err: err}) && stream != nil {
			stream.Close()
		}
	}()
	return nil
}

func (r *Recorder) onAccess(e accessEvent) {
	if e.attempt != r.attempt || r.status != StatusAwaitingPermission {
		if e.stream != nil {
			e.stream.Close()
		}
		return
	}
	r.clearAccess()

	if e.err != nil {
		r.fail(fmt.Errorf("microphone access failed: %w", e.err))
		return
	}
	if err := r.session.Start(e.stream); err != nil {
		r.fail(err)
		return
	}

	r.startFrames()
	r.setStatus(StatusRecording)
}

func (r *Recorder) stop() {
	if r.status != StatusRecording {
		return
	}
	r.stopFrames()
	r.session.Stop()
}

func (r *Recorder) fail(err error) {
	r.clearAccess()
	r.stopFrames()
	r.session.Release()
	r.logger.Warn("Recording failed", zap.Error(err))
	// Callers see the error before the recorder reports Idle again.
	if r.callbacks.OnError != nil {
		r.callbacks.OnError(err)
	}
	r.setStatus(StatusIdle)
}

func (r *Recorder) teardown() {
	r.clearAccess()
	r.stopFrames()
	r.session.Cancel()
	r.logger.Debug("Recorder closed", zap.String("status", r.status.String()))
}

func (r *Recorder) clearAccess() {
	if r.cancelAccess != nil {
		r.cancelAccess()
		r.cancelAccess = nil
	}
}

func (r *Recorder) startFrames() {
	an := r.session.Analyser()
	if an == nil {
		return
	}
	draw := func(p waveform.Path) {
		if r.callbacks.OnFrame != nil {
			r.callbacks.OnFrame(p)
		}
	}
	r.frames = waveform.NewLoop(analyser.NewSampler(an), draw, r.cfg.Waveform)
	r.frames.Start()
}

func (r *Recorder) stopFrames() {
	if r.frames != nil {
		r.frames.Stop()
		r.frames = nil
	}
}

func (r *Recorder) setStatus(s Status) {
	if r.status == s {
		return
	}
	r.logger.Debug("Recorder status changed",
		zap.String("from", r.status.String()),
		zap.String("to", s.String()))
	r.status = s
	r.current.Store(int32(s))
	if r.callbacks.OnStatus != nil {
		r.callbacks.OnStatus(s)
	}
}
