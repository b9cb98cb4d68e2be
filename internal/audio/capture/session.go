package capture

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/satriahrh/voicekey/server/internal/audio/analyser"
	"github.com/satriahrh/voicekey/server/internal/audio/pcm"
	"github.com/satriahrh/voicekey/server/internal/datauri"
)

// State is the lifecycle position of a capture session.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Handlers receive the outcome of a recording. They are called from the
// session's pump goroutine and must not wait on a goroutine that may call
// Cancel.
type Handlers struct {
	OnProcessing func()
	OnComplete   func(dataURI string)
	OnError      func(err error)
}

// Config tunes a Session.
type Config struct {
	// MIMEType overrides the MIME type reported by the stream.
	MIMEType string
	Analyser analyser.Options
}

// Session buffers one input stream at a time into an encoded recording.
type Session struct {
	mic      Microphone
	cfg      Config
	handlers Handlers
	logger   *zap.Logger

	mu       sync.Mutex
	state    State
	gen      uint64
	stream   InputStream
	analyser *analyser.Analyser
	chunks   [][]byte

	// held while a handler runs so Cancel can wait it out
	cbMu sync.Mutex
}

// NewSession creates an idle session. mic may be nil on platforms without
// audio capture.
func NewSession(mic Microphone, cfg Config, handlers Handlers, logger *zap.Logger) *Session {
	return &Session{
		mic:      mic,
		cfg:      cfg,
		handlers: handlers,
		logger:   logger,
	}
}

// RequestAccess asks the microphone for a new input stream.
func (s *Session) RequestAccess(ctx context.Context) (InputStream, error) {
	if s.mic == nil {
		return nil, ErrUnsupportedPlatform
	}
	return s.mic.RequestAccess(ctx)
}

// Start begins buffering stream. The session takes ownership of stream and
// closes it on failure.
func (s *Session) Start(stream InputStream) error {
	s.mu.Lock()
	if s.state == StateRecording || s.state == StateProcessing {
		s.mu.Unlock()
		stream.Close()
		return ErrSessionActive
	}

	an, err := analyser.New(s.cfg.Analyser)
	if err != nil {
		s.mu.Unlock()
		stream.Close()
		return fmt.Errorf("failed to create analyser: %w", err)
	}

	s.gen++
	gen := s.gen
	s.stream = stream
	s.analyser = an
	s.chunks = nil
	s.state = StateRecording
	s.mu.Unlock()

	format := stream.Format()
	s.logger.Debug("Capture session started",
		zap.String("mime_type", format.MIMEType),
		zap.Int("sample_rate", format.SampleRate),
		zap.String("encoding", format.Encoding))

	go s.pump(gen, stream, an)
	return nil
}

// Analyser returns the analysis context of the current recording, or nil
// before the first Start.
func (s *Session) Analyser() *analyser.Analyser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyser
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stop requests the final chunk and releases the stream and analysis context.
// The recording is delivered to OnComplete once the stream has drained. Stop
// does nothing unless the session is recording.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording || s.stream == nil {
		return
	}
	s.stream.Flush()
	s.releaseLocked()
}

// Release stops every track and closes the analysis context. It is safe to
// call at any time and more than once.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
}

// Cancel discards buffered audio and releases every resource. No handler is
// invoked for the cancelled recording once Cancel returns.
func (s *Session) Cancel() {
	s.mu.Lock()
	s.gen++
	s.chunks = nil
	s.state = StateIdle
	s.releaseLocked()
	s.mu.Unlock()

	s.cbMu.Lock()
	s.cbMu.Unlock()
}

func (s *Session) releaseLocked() {
	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			s.logger.Debug("Failed to close input stream", zap.Error(err))
		}
		s.stream = nil
	}
	if s.analyser != nil {
		s.analyser.Close()
	}
}

func (s *Session) pump(gen uint64, stream InputStream, an *analyser.Analyser) {
	format := stream.Format()
	for chunk := range stream.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			continue
		}
		s.chunks = append(s.chunks, chunk)
		s.mu.Unlock()

		if format.IsPCM() {
			an.WritePCM16(chunk)
		}
	}
	s.finalize(gen, stream, format)
}

func (s *Session) finalize(gen uint64, stream InputStream, format Format) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	if err := stream.Err(); err != nil {
		s.chunks = nil
		s.state = StateIdle
		s.releaseLocked()
		s.mu.Unlock()

		s.logger.Warn("Input stream ended abnormally", zap.Error(err))
		if s.handlers.OnError != nil {
			s.handlers.OnError(fmt.Errorf("audio stream ended: %w", err))
		}
		return
	}
	chunks := s.chunks
	s.chunks = nil
	s.state = StateProcessing
	s.releaseLocked()
	s.mu.Unlock()

	if s.handlers.OnProcessing != nil {
		s.handlers.OnProcessing()
	}

	uri := s.encode(format, chunks)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.state = StateFinished
	s.mu.Unlock()

	s.logger.Info("Recording finalized",
		zap.Int("chunks", len(chunks)),
		zap.Int("data_uri_length", len(uri)))

	if s.handlers.OnComplete != nil {
		s.handlers.OnComplete(uri)
	}
}

func (s *Session) encode(format Format, chunks [][]byte) string {
	size := 0
	for _, c := range chunks {
		size += len(c)
	}
	data := make([]byte, 0, size)
	for _, c := range chunks {
		data = append(data, c...)
	}

	mimeType := s.cfg.MIMEType
	if mimeType == "" && format.IsPCM() {
		mimeType = pcm.MIMEType(format.SampleRate)
	}
	if mimeType == "" {
		mimeType = format.MIMEType
	}
	return datauri.Encode(mimeType, data)
}
