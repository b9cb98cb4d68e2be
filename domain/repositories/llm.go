package repositories

import (
	"context"

	"github.com/satriahrh/voicekey/server/domain/entities"
)

// VoicePrintAnalyzer abstracts the hosted model that reviews a voice print
// for cloning, mimicry and other anomalies.
type VoicePrintAnalyzer interface {
	Analyze(ctx context.Context, req entities.AnalysisRequest) (*entities.AnalysisOutput, error)
}
