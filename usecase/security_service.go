package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/voicekey/server/domain/entities"
	"github.com/satriahrh/voicekey/server/domain/repositories"
)

// Messages returned in a failed AnalysisResult.
const (
	MsgServiceUnavailable = "AI service is currently unavailable. Please try again later."
	MsgUnexpectedError    = "An unexpected error occurred during security analysis."
	MsgNoVoicePrint       = "No voice print found for analysis."
)

// ErrRemoteServiceUnavailable wraps any failure of the analyzer.
var ErrRemoteServiceUnavailable = errors.New("remote service unavailable")

// SecurityService runs the AI security analysis of voice prints. Failures are
// reported in the result, never retried.
type SecurityService struct {
	analyzer repositories.VoicePrintAnalyzer
	store    repositories.AuthStore
	logger   *zap.Logger
}

// NewSecurityService creates a new security service
func NewSecurityService(analyzer repositories.VoicePrintAnalyzer, store repositories.AuthStore, logger *zap.Logger) *SecurityService {
	return &SecurityService{analyzer: analyzer, store: store, logger: logger}
}

// Analyze sends req to the analyzer. The threat level of a successful result
// is normalised.
func (s *SecurityService) Analyze(ctx context.Context, req entities.AnalysisRequest) (result entities.AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Security analysis panicked", zap.Any("panic", r), zap.String("userID", req.UserID))
			result = entities.AnalysisResult{Success: false, Error: MsgUnexpectedError}
		}
	}()

	output, err := s.analyze(ctx, req)
	if err != nil {
		s.logger.Error("Security analysis failed", zap.String("userID", req.UserID), zap.Error(err))
		return entities.AnalysisResult{Success: false, Error: MsgServiceUnavailable}
	}

	output.SecurityAssessment.ThreatLevel = entities.NormalizeThreatLevel(output.SecurityAssessment.ThreatLevel)
	return entities.AnalysisResult{Success: true, Data: output}
}

// AnalyzeCurrentUser analyses the voice print of the registered user.
func (s *SecurityService) AnalyzeCurrentUser(ctx context.Context) entities.AnalysisResult {
	user, err := s.store.GetUser(ctx)
	if err != nil || user.VoicePrint == "" {
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			s.logger.Error("Failed to read registered user", zap.Error(err))
		}
		return entities.AnalysisResult{Success: false, Error: MsgNoVoicePrint}
	}

	return s.Analyze(ctx, entities.AnalysisRequest{
		VoicePrintDataURI: user.VoicePrint,
		UserID:            user.ID,
	})
}

func (s *SecurityService) analyze(ctx context.Context, req entities.AnalysisRequest) (*entities.AnalysisOutput, error) {
	output, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteServiceUnavailable, err)
	}
	if output == nil {
		return nil, fmt.Errorf("%w: empty response", ErrRemoteServiceUnavailable)
	}
	return output, nil
}
