package domain

// MessageType defines the type of a recorder WebSocket message
type MessageType string

// Messages sent by the browser.
const (
	MessageTypeRecordingToggle   MessageType = "recording_toggle"
	MessageTypeRecordingStart    MessageType = "recording_start"
	MessageTypeRecordingStop     MessageType = "recording_stop"
	MessageTypeMicrophoneGranted MessageType = "microphone_granted"
	MessageTypeMicrophoneDenied  MessageType = "microphone_denied"
	MessageTypeRecordingFlushed  MessageType = "recording_flushed"
	MessageTypePing              MessageType = "ping"
)

// Messages sent by the server.
const (
	MessageTypeMicrophoneRequest MessageType = "microphone_request"
	MessageTypeMicrophoneRelease MessageType = "microphone_release"
	MessageTypeRecorderFlush     MessageType = "recorder_flush"
	MessageTypeStatus            MessageType = "status"
	MessageTypeWaveform          MessageType = "waveform"
	MessageTypeRecordingComplete MessageType = "recording_complete"
	MessageTypeError             MessageType = "error"
	MessageTypePong              MessageType = "pong"
)

// Reasons a browser gives for refusing microphone access.
const (
	DeniedReasonPermission  = "permission_denied"
	DeniedReasonDevice      = "device_unavailable"
	DeniedReasonUnsupported = "unsupported"
)

// Error codes carried by ErrorMessage.
const (
	ErrorCodePermissionDenied    = "permission_denied"
	ErrorCodeDeviceUnavailable   = "device_unavailable"
	ErrorCodeUnsupportedPlatform = "unsupported_platform"
	ErrorCodeRecorderBusy        = "recorder_busy"
	ErrorCodeRecordingFailed     = "recording_failed"
	ErrorCodeInvalidMessage      = "invalid_message"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type" validate:"required"`
	Timestamp string      `json:"timestamp,omitempty"`
	MessageID string      `json:"message_id,omitempty"`
}

// ControlMessage carries no payload beyond its type.
type ControlMessage struct {
	BaseMessage
}

// MicrophoneGrantedMessage announces an open microphone and the format of the
// binary frames that will follow.
type MicrophoneGrantedMessage struct {
	BaseMessage
	MIMEType   string `json:"mime_type" validate:"required"`
	SampleRate int    `json:"sample_rate" validate:"omitempty,min=8000,max=192000"`
	Encoding   string `json:"encoding" validate:"required"`
}

// MicrophoneDeniedMessage reports why access could not be granted.
type MicrophoneDeniedMessage struct {
	BaseMessage
	Reason string `json:"reason" validate:"required,oneof=permission_denied device_unavailable unsupported"`
}

// MicrophoneRequestMessage asks the browser to open its microphone.
type MicrophoneRequestMessage struct {
	BaseMessage
	RecorderID string `json:"recorder_id"`
	Encoding   string `json:"preferred_encoding,omitempty"`
}

// StatusMessage publishes the recorder status and the record button state.
type StatusMessage struct {
	BaseMessage
	RecorderID string `json:"recorder_id"`
	Status     string `json:"status"`
	Label      string `json:"label"`
	Enabled    bool   `json:"enabled"`
	Prompt     string `json:"prompt,omitempty"`
}

// WaveformMessage carries one frame of the live waveform as SVG path data.
type WaveformMessage struct {
	BaseMessage
	Path   string  `json:"path"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RecordingCompleteMessage delivers the finished recording.
type RecordingCompleteMessage struct {
	BaseMessage
	RecorderID string `json:"recorder_id"`
	DataURI    string `json:"data_uri"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// PingMessage represents a ping message for connection health check
type PingMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// PongMessage represents a pong response
type PongMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}
