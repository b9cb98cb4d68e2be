package llm

import (
	"context"
	"sync"

	"github.com/satriahrh/voicekey/server/domain/entities"
	"github.com/satriahrh/voicekey/server/internal/datauri"
)

// MockAnalyzer returns a canned assessment without calling a model. Set Err
// to simulate an outage.
type MockAnalyzer struct {
	Err error

	mu       sync.Mutex
	requests []entities.AnalysisRequest
}

// NewMockAnalyzer creates a new mock analyzer
func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{}
}

// Analyze implements repositories.VoicePrintAnalyzer
func (m *MockAnalyzer) Analyze(ctx context.Context, req entities.AnalysisRequest) (*entities.AnalysisOutput, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	uri, err := datauri.Parse(req.VoicePrintDataURI)
	if err != nil {
		return nil, err
	}

	assessment := entities.SecurityAssessment{
		IsSecure:           true,
		ThreatLevel:        entities.ThreatLevelLow,
		AnomaliesDetected:  []string{},
		RecommendedActions: []string{"Re-record your passphrase periodically to keep the voice print current."},
	}
	if len(uri.Data) == 0 {
		assessment.IsSecure = false
		assessment.ThreatLevel = entities.ThreatLevelMedium
		assessment.AnomaliesDetected = []string{"The voice print contains no audio."}
		assessment.RecommendedActions = []string{"Record the passphrase again in a quiet room."}
	}
	return &entities.AnalysisOutput{SecurityAssessment: assessment}, nil
}

// Requests returns the requests seen so far
func (m *MockAnalyzer) Requests() []entities.AnalysisRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entities.AnalysisRequest(nil), m.requests...)
}
