package websocket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/voicekey/server/domain"
	"github.com/satriahrh/voicekey/server/internal/audio/capture"
)

type sentLog struct {
	mu   sync.Mutex
	msgs []interface{}
	ch   chan interface{}
}

func newSentLog() *sentLog {
	return &sentLog{ch: make(chan interface{}, 32)}
}

func (s *sentLog) send(v interface{}) {
	s.mu.Lock()
	s.msgs = append(s.msgs, v)
	s.mu.Unlock()
	s.ch <- v
}

func (s *sentLog) types() []domain.MessageType {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.MessageType
	for _, m := range s.msgs {
		switch v := m.(type) {
		case *domain.ControlMessage:
			out = append(out, v.Type)
		case *domain.MicrophoneRequestMessage:
			out = append(out, v.Type)
		}
	}
	return out
}

func grantAsync(t *testing.T, m *Microphone, log *sentLog, format capture.Format) {
	go func() {
		<-log.ch
		m.granted(&domain.MicrophoneGrantedMessage{
			MIMEType:   format.MIMEType,
			SampleRate: format.SampleRate,
			Encoding:   format.Encoding,
		})
	}()
}

func TestMicrophoneGrantFlushAndRelease(t *testing.T) {
	log := newSentLog()
	m := NewMicrophone(log.send, zaptest.NewLogger(t))

	grantAsync(t, m, log, capture.Format{MIMEType: "audio/pcm", SampleRate: 16000, Encoding: capture.EncodingPCM16LE})
	stream, err := m.RequestAccess(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 16000, stream.Format().SampleRate)

	m.deliver([]byte{1, 2})
	m.deliver([]byte{3, 4})

	stream.Flush()
	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())

	// late audio sent before the browser acknowledges the flush still counts
	m.deliver([]byte{5, 6})
	m.flushed()

	var got []byte
	for chunk := range stream.Chunks() {
		got = append(got, chunk...)
	}
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, got)
	assert.NoError(t, stream.Err())
	assert.Equal(t, []domain.MessageType{
		domain.MessageTypeMicrophoneRequest,
		domain.MessageTypeRecorderFlush,
		domain.MessageTypeMicrophoneRelease,
	}, log.types())
}

func TestMicrophoneCloseWithoutFlushEndsStream(t *testing.T) {
	log := newSentLog()
	m := NewMicrophone(log.send, zaptest.NewLogger(t))

	grantAsync(t, m, log, capture.Format{MIMEType: "audio/webm", Encoding: "opus"})
	stream, err := m.RequestAccess(context.Background())
	require.NoError(t, err)

	m.deliver([]byte("kept"))
	require.NoError(t, stream.Close())
	m.deliver([]byte("dropped"))

	var got []string
	for chunk := range stream.Chunks() {
		got = append(got, string(chunk))
	}
	assert.Equal(t, []string{"kept"}, got)
}

func TestMicrophoneDenied(t *testing.T) {
	cases := map[string]error{
		domain.DeniedReasonPermission:  capture.ErrPermissionDenied,
		domain.DeniedReasonDevice:      capture.ErrDeviceUnavailable,
		domain.DeniedReasonUnsupported: capture.ErrUnsupportedPlatform,
	}
	for reason, want := range cases {
		t.Run(reason, func(t *testing.T) {
			log := newSentLog()
			m := NewMicrophone(log.send, zaptest.NewLogger(t))
			go func() {
				<-log.ch
				m.denied(reason)
			}()

			stream, err := m.RequestAccess(context.Background())
			assert.Nil(t, stream)
			assert.True(t, errors.Is(err, want), "got %v", err)
		})
	}
}

func TestMicrophoneRequestCancelled(t *testing.T) {
	log := newSentLog()
	m := NewMicrophone(log.send, zaptest.NewLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.RequestAccess(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// a grant after cancellation is refused
	m.granted(&domain.MicrophoneGrantedMessage{MIMEType: "audio/pcm", Encoding: capture.EncodingPCM16LE})
	assert.Nil(t, m.current())
}

func TestMicrophoneShutdown(t *testing.T) {
	log := newSentLog()
	m := NewMicrophone(log.send, zaptest.NewLogger(t))

	grantAsync(t, m, log, capture.Format{MIMEType: "audio/pcm", Encoding: capture.EncodingPCM16LE})
	stream, err := m.RequestAccess(context.Background())
	require.NoError(t, err)

	m.shutdown()
	m.shutdown()

	for range stream.Chunks() {
	}
	assert.ErrorIs(t, stream.Err(), errClientDisconnected)

	_, err = m.RequestAccess(context.Background())
	assert.ErrorIs(t, err, capture.ErrDeviceUnavailable)
}
