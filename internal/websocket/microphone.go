package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/voicekey/server/domain"
	"github.com/satriahrh/voicekey/server/internal/audio/capture"
)

// flushTimeout bounds how long a stream waits for recording_flushed.
const flushTimeout = 5 * time.Second

var errClientDisconnected = errors.New("client disconnected")

type accessReply struct {
	stream capture.InputStream
	err    error
}

// Microphone is the browser microphone of one WebSocket client. Access is
// negotiated with microphone_request / microphone_granted / microphone_denied
// and audio arrives as binary frames.
type Microphone struct {
	send   func(v interface{})
	logger *zap.Logger

	mu      sync.Mutex
	pending chan accessReply
	stream  *remoteStream
	closed  bool
	done    chan struct{}
}

// NewMicrophone creates a microphone that talks to the browser through send.
func NewMicrophone(send func(v interface{}), logger *zap.Logger) *Microphone {
	return &Microphone{
		send:   send,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// RequestAccess asks the browser to open its microphone and waits for the answer.
func (m *Microphone) RequestAccess(ctx context.Context) (capture.InputStream, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, capture.ErrDeviceUnavailable
	}
	reply := make(chan accessReply, 1)
	m.pending = reply
	m.mu.Unlock()

	m.send(&domain.MicrophoneRequestMessage{
		BaseMessage: newBase(domain.MessageTypeMicrophoneRequest),
		Encoding:    capture.EncodingPCM16LE,
	})

	select {
	case r := <-reply:
		return r.stream, r.err
	case <-ctx.Done():
		m.mu.Lock()
		if m.pending == reply {
			m.pending = nil
		}
		m.mu.Unlock()
		// a grant may have raced the cancellation
		select {
		case r := <-reply:
			if r.stream != nil {
				r.stream.Close()
			}
		default:
		}
		return nil, ctx.Err()
	case <-m.done:
		return nil, capture.ErrDeviceUnavailable
	}
}

// granted resolves the pending request with a new stream.
func (m *Microphone) granted(msg *domain.MicrophoneGrantedMessage) {
	format := capture.Format{
		MIMEType:   msg.MIMEType,
		SampleRate: msg.SampleRate,
		Encoding:   msg.Encoding,
	}

	m.mu.Lock()
	reply := m.pending
	m.pending = nil
	if reply == nil || m.closed {
		m.mu.Unlock()
		m.logger.Warn("Microphone granted without a pending request")
		m.send(CreateControlMessage(domain.MessageTypeMicrophoneRelease))
		return
	}
	if m.stream != nil {
		m.stream.end(nil)
	}
	stream := newRemoteStream(format, m.send, m.logger)
	m.stream = stream
	m.mu.Unlock()

	reply <- accessReply{stream: stream}
}

// denied resolves the pending request with the matching capture error.
func (m *Microphone) denied(reason string) {
	var err error
	switch reason {
	case domain.DeniedReasonPermission:
		err = capture.ErrPermissionDenied
	case domain.DeniedReasonUnsupported:
		err = capture.ErrUnsupportedPlatform
	default:
		err = capture.ErrDeviceUnavailable
	}

	m.mu.Lock()
	reply := m.pending
	m.pending = nil
	m.mu.Unlock()

	if reply != nil {
		reply <- accessReply{err: err}
	}
}

func (m *Microphone) current() *remoteStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stream
}

// deliver forwards a binary frame to the open stream, if any.
func (m *Microphone) deliver(chunk []byte) {
	if s := m.current(); s != nil {
		s.deliver(chunk)
		return
	}
	m.logger.Debug("Dropping audio chunk without an open stream", zap.Int("size", len(chunk)))
}

// flushed marks the end of the audio requested by recorder_flush.
func (m *Microphone) flushed() {
	if s := m.current(); s != nil {
		s.end(nil)
	}
}

// shutdown fails any pending request and ends the open stream abnormally.
func (m *Microphone) shutdown() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.done)
	stream := m.stream
	m.mu.Unlock()

	if stream != nil {
		stream.end(errClientDisconnected)
	}
}

// remoteStream is an InputStream fed by binary WebSocket frames.
type remoteStream struct {
	format capture.Format
	send   func(v interface{})
	logger *zap.Logger

	chunks   chan []byte
	ending   chan struct{}
	inflight sync.WaitGroup

	mu       sync.Mutex
	ended    bool
	flushing bool
	released bool
	err      error
	timer    *time.Timer
}

func newRemoteStream(format capture.Format, send func(v interface{}), logger *zap.Logger) *remoteStream {
	return &remoteStream{
		format: format,
		send:   send,
		logger: logger,
		chunks: make(chan []byte, 256),
		ending: make(chan struct{}),
	}
}

func (s *remoteStream) Format() capture.Format { return s.format }

func (s *remoteStream) Chunks() <-chan []byte { return s.chunks }

func (s *remoteStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Flush asks the browser for its remaining audio. The stream ends when
// recording_flushed arrives or after flushTimeout.
func (s *remoteStream) Flush() {
	s.mu.Lock()
	if s.ended || s.flushing {
		s.mu.Unlock()
		return
	}
	s.flushing = true
	s.timer = time.AfterFunc(flushTimeout, func() {
		s.logger.Warn("Timed out waiting for recording flush")
		s.end(nil)
	})
	s.mu.Unlock()

	s.send(CreateControlMessage(domain.MessageTypeRecorderFlush))
}

// Close tells the browser to stop its tracks. Chunks already received stay
// readable; a pending flush is still honoured.
func (s *remoteStream) Close() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}
	s.released = true
	flushing := s.flushing
	s.mu.Unlock()

	s.send(CreateControlMessage(domain.MessageTypeMicrophoneRelease))
	if !flushing {
		s.end(nil)
	}
	return nil
}

func (s *remoteStream) deliver(chunk []byte) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	select {
	case s.chunks <- chunk:
	case <-s.ending:
	}
}

// end closes the chunk channel once. err marks an abnormal end.
func (s *remoteStream) end(err error) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.err = err
	if s.timer != nil {
		s.timer.Stop()
	}
	close(s.ending)
	s.mu.Unlock()

	s.inflight.Wait()
	close(s.chunks)
}
