package recorder

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/voicekey/server/internal/audio/capture"
	"github.com/satriahrh/voicekey/server/internal/datauri"
	"github.com/satriahrh/voicekey/server/internal/waveform"
)

type testStream struct {
	ch chan []byte

	mu     sync.Mutex
	ended  bool
	closes int
	err    error
}

func newTestStream() *testStream {
	return &testStream{ch: make(chan []byte, 64)}
}

func (s *testStream) Format() capture.Format {
	return capture.Format{MIMEType: "audio/pcm", SampleRate: 16000, Encoding: capture.EncodingPCM16LE}
}

func (s *testStream) Chunks() <-chan []byte { return s.ch }

func (s *testStream) endLocked() {
	if !s.ended {
		s.ended = true
		close(s.ch)
	}
}

func (s *testStream) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked()
}

func (s *testStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	s.endLocked()
	return nil
}

func (s *testStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *testStream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	s.endLocked()
}

func (s *testStream) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// testMic hands out queued streams, fails with err, or blocks until the
// request context is cancelled when block is set.
type testMic struct {
	mu        sync.Mutex
	streams   []*testStream
	err       error
	block     bool
	cancelled chan struct{}
}

func (m *testMic) RequestAccess(ctx context.Context) (capture.InputStream, error) {
	m.mu.Lock()
	if m.block {
		m.mu.Unlock()
		<-ctx.Done()
		close(m.cancelled)
		return nil, ctx.Err()
	}
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if len(m.streams) == 0 {
		return nil, capture.ErrDeviceUnavailable
	}
	s := m.streams[0]
	m.streams = m.streams[1:]
	return s, nil
}

type observer struct {
	statuses chan Status
	errs     chan error
	uris     chan string
	frames   chan waveform.Path

	mu    sync.Mutex
	order []string
}

func (o *observer) note(event string) {
	o.mu.Lock()
	o.order = append(o.order, event)
	o.mu.Unlock()
}

func (o *observer) events() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.order...)
}

func newObserver() *observer {
	return &observer{
		statuses: make(chan Status, 32),
		errs:     make(chan error, 8),
		uris:     make(chan string, 8),
		frames:   make(chan waveform.Path, 1),
	}
}

func (o *observer) callbacks() Callbacks {
	return Callbacks{
		OnStatus: func(s Status) {
			o.note("status:" + s.String())
			o.statuses <- s
		},
		OnError: func(err error) {
			o.note("error")
			o.errs <- err
		},
		OnRecordingComplete: func(uri string) { o.uris <- uri },
		OnFrame: func(p waveform.Path) {
			select {
			case o.frames <- p:
			default:
			}
		},
	}
}

func (o *observer) awaitStatus(t *testing.T, want Status) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-o.statuses:
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for status %s", want)
		}
	}
}

func (o *observer) expectSilence(t *testing.T) {
	t.Helper()
	select {
	case s := <-o.statuses:
		t.Fatalf("unexpected status %s", s)
	case err := <-o.errs:
		t.Fatalf("unexpected error %v", err)
	case uri := <-o.uris:
		t.Fatalf("unexpected recording %q", uri)
	case <-time.After(50 * time.Millisecond):
	}
}

func newTestRecorder(t *testing.T, mic capture.Microphone, o *observer) *Recorder {
	t.Helper()
	cfg := Config{Waveform: waveform.LoopConfig{FrameRate: 100}}
	r := New(mic, cfg, o.callbacks(), zaptest.NewLogger(t))
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRecorderPermissionDenied(t *testing.T) {
	o := newObserver()
	r := newTestRecorder(t, &testMic{err: capture.ErrPermissionDenied}, o)

	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	o.awaitStatus(t, StatusAwaitingPermission)
	o.awaitStatus(t, StatusIdle)

	select {
	case err := <-o.errs:
		if !errors.Is(err, capture.ErrPermissionDenied) {
			t.Errorf("expected permission denied, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}
	if r.Status() != StatusIdle {
		t.Errorf("expected idle, got %s", r.Status())
	}
	if an := r.session.Analyser(); an != nil {
		t.Error("expected no analysis context after denied permission")
	}

	want := []string{"status:awaiting_permission", "error", "status:idle"}
	if got := o.events(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected events %v, got %v", want, got)
	}
}

func TestRecorderFullCycle(t *testing.T) {
	first, second := newTestStream(), newTestStream()
	o := newObserver()
	r := newTestRecorder(t, &testMic{streams: []*testStream{first, second}}, o)

	if err := r.Toggle(); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	o.awaitStatus(t, StatusAwaitingPermission)
	o.awaitStatus(t, StatusRecording)

	select {
	case p := <-o.frames:
		if len(p.Points) != 1024+2 {
			t.Errorf("expected %d points, got %d", 1024+2, len(p.Points))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a waveform frame")
	}

	pcm := []byte{10, 0, 20, 0, 30, 0}
	first.ch <- pcm[:2]
	first.ch <- pcm[2:]

	if err := r.Toggle(); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	o.awaitStatus(t, StatusProcessing)

	var uri string
	select {
	case uri = <-o.uris:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for recording")
	}
	o.awaitStatus(t, StatusFinished)

	parsed, err := datauri.Parse(uri)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !bytes.Equal(parsed.Data, pcm) {
		t.Errorf("expected recording %v, got %v", pcm, parsed.Data)
	}
	if first.closeCount() != 1 {
		t.Errorf("expected stream released once, got %d", first.closeCount())
	}

	// Finished allows recording again.
	if err := r.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	o.awaitStatus(t, StatusRecording)
}

func TestRecorderBusyWhileAwaitingPermission(t *testing.T) {
	mic := &testMic{block: true, cancelled: make(chan struct{})}
	o := newObserver()
	r := newTestRecorder(t, mic, o)

	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	o.awaitStatus(t, StatusAwaitingPermission)

	if err := r.Start(); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if err := r.Toggle(); err != nil {
		t.Fatalf("expected toggle to be ignored, got %v", err)
	}

	r.Close()
	select {
	case <-mic.cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("access request was not cancelled")
	}
	o.expectSilence(t)
}

func TestRecorderCloseWhileRecording(t *testing.T) {
	stream := newTestStream()
	o := newObserver()
	r := newTestRecorder(t, &testMic{streams: []*testStream{stream}}, o)

	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	o.awaitStatus(t, StatusRecording)
	stream.ch <- []byte{1, 0}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if stream.closeCount() != 1 {
		t.Errorf("expected stream released, got %d closes", stream.closeCount())
	}

	// drain frames drawn before Close
	select {
	case <-o.frames:
	default:
	}
	o.expectSilence(t)
	select {
	case <-o.frames:
		t.Error("frame drawn after Close")
	default:
	}

	if err := r.Start(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestRecorderStreamFailure(t *testing.T) {
	stream := newTestStream()
	o := newObserver()
	r := newTestRecorder(t, &testMic{streams: []*testStream{stream}}, o)

	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	o.awaitStatus(t, StatusRecording)

	errGone := errors.New("track ended")
	stream.fail(errGone)

	o.awaitStatus(t, StatusIdle)
	select {
	case err := <-o.errs:
		if !errors.Is(err, errGone) {
			t.Errorf("expected track error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}
	select {
	case uri := <-o.uris:
		t.Errorf("unexpected recording %q", uri)
	default:
	}
}

func TestRecorderStopWhenIdle(t *testing.T) {
	o := newObserver()
	r := newTestRecorder(t, &testMic{}, o)

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	o.expectSilence(t)
	if r.Status() != StatusIdle {
		t.Errorf("expected idle, got %s", r.Status())
	}
}

func TestRecorderWithoutMicrophone(t *testing.T) {
	o := newObserver()
	r := newTestRecorder(t, nil, o)

	if err := r.Start(); !errors.Is(err, capture.ErrUnsupportedPlatform) {
		t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
	}
	o.expectSilence(t)
}

func TestStatusAffordances(t *testing.T) {
	cases := []struct {
		status  Status
		label   string
		enabled bool
		start   bool
	}{
		{StatusIdle, "Start Recording", true, true},
		{StatusAwaitingPermission, "Requesting Mic", false, false},
		{StatusRecording, "Stop Recording", true, false},
		{StatusProcessing, "Processing...", false, false},
		{StatusFinished, "Record Again", true, true},
	}
	for _, tc := range cases {
		t.Run(tc.status.String(), func(t *testing.T) {
			if got := tc.status.ButtonLabel(); got != tc.label {
				t.Errorf("expected label %q, got %q", tc.label, got)
			}
			if got := tc.status.Enabled(); got != tc.enabled {
				t.Errorf("expected enabled=%v, got %v", tc.enabled, got)
			}
			if got := tc.status.CanStart(); got != tc.start {
				t.Errorf("expected CanStart=%v, got %v", tc.start, got)
			}
		})
	}
	if StatusRecording.Prompt() != "" {
		t.Error("expected no prompt while recording")
	}
	if StatusIdle.Prompt() != PassphrasePrompt {
		t.Errorf("unexpected idle prompt %q", StatusIdle.Prompt())
	}
}
