// Package datauri encodes and parses base64 data URIs of the form
// "data:<mime>;base64,<payload>".
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	scheme       = "data:"
	base64Marker = ";base64"

	// DefaultMIMEType labels recordings whose platform did not report a type.
	DefaultMIMEType = "audio/wav"
)

var (
	ErrMissingScheme   = errors.New("datauri: missing data: scheme")
	ErrMissingMIMEType = errors.New("datauri: missing mime type")
	ErrNotBase64       = errors.New("datauri: payload is not base64 encoded")
)

// DataURI is a decoded data URI.
type DataURI struct {
	MIMEType string
	Data     []byte
}

// Encode returns the textual data URI for data labelled with mimeType.
// An empty payload still produces a valid URI with an empty body.
func Encode(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	var b strings.Builder
	b.Grow(len(scheme) + len(mimeType) + len(base64Marker) + 1 + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString(scheme)
	b.WriteString(mimeType)
	b.WriteString(base64Marker)
	b.WriteByte(',')
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

// String implements fmt.Stringer.
func (u DataURI) String() string {
	return Encode(u.MIMEType, u.Data)
}

// Parse decodes a base64 data URI. MIME parameters other than base64 (for
// example ";codecs=opus") are kept as part of MIMEType.
func Parse(s string) (DataURI, error) {
	if !strings.HasPrefix(s, scheme) {
		return DataURI{}, ErrMissingScheme
	}
	header, body, ok := strings.Cut(s[len(scheme):], ",")
	if !ok {
		return DataURI{}, fmt.Errorf("datauri: missing payload separator")
	}
	mimeType, ok := strings.CutSuffix(header, base64Marker)
	if !ok {
		return DataURI{}, ErrNotBase64
	}
	if mimeType == "" {
		return DataURI{}, ErrMissingMIMEType
	}
	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return DataURI{}, fmt.Errorf("datauri: decode payload: %w", err)
	}
	return DataURI{MIMEType: mimeType, Data: data}, nil
}

// Validate reports whether s is a well-formed base64 data URI.
func Validate(s string) error {
	_, err := Parse(s)
	return err
}
