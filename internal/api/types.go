package api

import (
	"time"

	"github.com/satriahrh/voicekey/server/domain/entities"
)

// RegisterRequest represents the request payload for voice registration
type RegisterRequest struct {
	Username   string `json:"username" validate:"required"`
	VoicePrint string `json:"voice_print" validate:"required"`
}

// RegisterResponse represents the response payload for voice registration
type RegisterResponse struct {
	ID string `json:"id"`
}

// LoginRequest represents the request payload for voice login
type LoginRequest struct {
	VoicePrint string `json:"voice_print" validate:"required"`
}

// LoginResponse represents the response payload for voice login
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
}

// AnalysisResponse is the security analysis result
type AnalysisResponse = entities.AnalysisResult

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
