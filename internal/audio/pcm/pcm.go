// Package pcm labels raw 16-bit PCM recordings and wraps them in a WAV
// container for consumers that need one.
package pcm

import (
	"bytes"
	"encoding/binary"
	"mime"
	"strconv"
	"strings"
)

// L16 is the RFC 2586 media type of 16-bit linear PCM.
const L16 = "audio/L16"

// DefaultSampleRate is assumed when a stream does not report a rate.
const DefaultSampleRate = 48000

const (
	WAVHeaderSize    = 44
	wavPCMFormat     = 1
	wavChannels      = 1
	wavBitsPerSample = 16
)

// MIMEType returns the label of mono 16-bit PCM at rate, for example
// "audio/L16;rate=16000;channels=1".
func MIMEType(rate int) string {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return L16 + ";rate=" + strconv.Itoa(rate) + ";channels=1"
}

// ParseMIMEType reports whether mimeType labels L16 audio and returns its
// sample rate, DefaultSampleRate when the rate parameter is absent.
func ParseMIMEType(mimeType string) (rate int, ok bool) {
	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil || !strings.EqualFold(mediaType, L16) {
		return 0, false
	}
	rate, err = strconv.Atoi(params["rate"])
	if err != nil || rate <= 0 {
		rate = DefaultSampleRate
	}
	return rate, true
}

// WrapWAV prefixes mono 16-bit little-endian PCM with a canonical RIFF/WAVE header.
func WrapWAV(pcm []byte, sampleRate int) []byte {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	blockAlign := wavChannels * wavBitsPerSample / 8
	byteRate := sampleRate * blockAlign

	var buf bytes.Buffer
	buf.Grow(WAVHeaderSize + len(pcm))

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(wavPCMFormat))
	binary.Write(&buf, binary.LittleEndian, uint16(wavChannels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(wavBitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}
