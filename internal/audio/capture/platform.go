// Package capture buffers a live microphone stream into a single encoded
// recording while feeding the samples to a frequency analyser.
package capture

import (
	"context"
	"errors"
)

var (
	ErrPermissionDenied    = errors.New("microphone permission denied")
	ErrDeviceUnavailable   = errors.New("no usable audio input device")
	ErrUnsupportedPlatform = errors.New("audio capture is not supported on this platform")
	ErrSessionActive       = errors.New("capture session already active")
)

// EncodingPCM16LE marks a stream carrying raw little-endian signed 16-bit mono
// samples. Only streams in this encoding are analysed and wrapped as WAV.
const EncodingPCM16LE = "pcm_s16le"

// Format describes the audio an InputStream produces.
type Format struct {
	MIMEType   string
	SampleRate int
	Encoding   string
}

// IsPCM reports whether the stream carries raw PCM samples.
func (f Format) IsPCM() bool {
	return f.Encoding == EncodingPCM16LE
}

// Microphone grants exclusive access to an audio input.
type Microphone interface {
	// RequestAccess asks for permission and opens an input stream. It fails
	// with ErrPermissionDenied, ErrDeviceUnavailable or ErrUnsupportedPlatform.
	RequestAccess(ctx context.Context) (InputStream, error)
}

// InputStream is a live audio input.
type InputStream interface {
	Format() Format
	// Chunks delivers encoded audio in capture order. The channel is closed
	// once a requested flush has completed or the stream has ended.
	Chunks() <-chan []byte
	// Flush asks the stream to deliver any pending audio and close Chunks.
	Flush()
	// Err returns a non-nil error if the stream ended abnormally.
	Err() error
	// Close stops every track. It does not drop chunks already captured and
	// is safe to call more than once.
	Close() error
}
