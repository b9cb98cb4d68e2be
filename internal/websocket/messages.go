package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/satriahrh/voicekey/server/domain"
)

// MessageValidator parses and validates incoming text frames
type MessageValidator struct {
	validate *validator.Validate
}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{validate: validator.New()}
}

// ValidateMessage decodes an incoming message into its concrete type
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	// First parse as base message to get type
	var base domain.BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}
	if err := v.validate.Struct(base); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	var msg interface{}
	switch base.Type {
	case domain.MessageTypeRecordingToggle,
		domain.MessageTypeRecordingStart,
		domain.MessageTypeRecordingStop,
		domain.MessageTypeRecordingFlushed:
		msg = &domain.ControlMessage{}
	case domain.MessageTypeMicrophoneGranted:
		msg = &domain.MicrophoneGrantedMessage{}
	case domain.MessageTypeMicrophoneDenied:
		msg = &domain.MicrophoneDeniedMessage{}
	case domain.MessageTypePing:
		msg = &domain.PingMessage{}
	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}

	if err := json.Unmarshal(messageBytes, msg); err != nil {
		return nil, fmt.Errorf("invalid %s message: %w", base.Type, err)
	}
	if err := v.validate.Struct(msg); err != nil {
		return nil, fmt.Errorf("invalid %s message: %w", base.Type, err)
	}
	return msg, nil
}

func newBase(t domain.MessageType) domain.BaseMessage {
	return domain.BaseMessage{
		Type:      t,
		Timestamp: time.Now().Format(time.RFC3339),
		MessageID: uuid.New().String(),
	}
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message, details string) *domain.ErrorMessage {
	return &domain.ErrorMessage{
		BaseMessage: newBase(domain.MessageTypeError),
		Code:        code,
		Message:     message,
		Details:     details,
	}
}

// CreatePongMessage creates a pong response message
func CreatePongMessage(data string) *domain.PongMessage {
	return &domain.PongMessage{
		BaseMessage: newBase(domain.MessageTypePong),
		Data:        data,
	}
}

// CreateControlMessage creates a payload-free message of type t
func CreateControlMessage(t domain.MessageType) *domain.ControlMessage {
	return &domain.ControlMessage{BaseMessage: newBase(t)}
}
