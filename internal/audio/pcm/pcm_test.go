package pcm

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestMIMETypeRoundTrip(t *testing.T) {
	label := MIMEType(16000)
	if label != "audio/L16;rate=16000;channels=1" {
		t.Fatalf("unexpected label %q", label)
	}
	rate, ok := ParseMIMEType(label)
	if !ok || rate != 16000 {
		t.Errorf("ParseMIMEType(%q) = %d, %v", label, rate, ok)
	}

	if rate, ok := ParseMIMEType("audio/l16"); !ok || rate != DefaultSampleRate {
		t.Errorf("expected default rate for bare L16, got %d, %v", rate, ok)
	}
	for _, other := range []string{"audio/wav", "audio/webm;codecs=opus", ""} {
		if _, ok := ParseMIMEType(other); ok {
			t.Errorf("%q should not parse as L16", other)
		}
	}
}

func TestWrapWAV(t *testing.T) {
	data := []byte{1, 0, 2, 0, 3, 0}
	wav := WrapWAV(data, 16000)

	if len(wav) != WAVHeaderSize+len(data) {
		t.Fatalf("expected %d bytes, got %d", WAVHeaderSize+len(data), len(wav))
	}
	if string(wav[:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Errorf("malformed header %q", wav[:WAVHeaderSize])
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 16000 {
		t.Errorf("expected rate 16000, got %d", rate)
	}
	if size := binary.LittleEndian.Uint32(wav[40:44]); size != uint32(len(data)) {
		t.Errorf("expected data size %d, got %d", len(data), size)
	}
	if !bytes.Equal(wav[WAVHeaderSize:], data) {
		t.Errorf("payload changed: %v", wav[WAVHeaderSize:])
	}
}
