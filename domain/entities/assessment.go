package entities

import "strings"

// Threat levels the analyzer is asked to report.
const (
	ThreatLevelLow    = "low"
	ThreatLevelMedium = "medium"
	ThreatLevelHigh   = "high"
)

// SecurityAssessment is the AI verdict on a stored voice print.
type SecurityAssessment struct {
	IsSecure           bool     `json:"isSecure" yaml:"is_secure"`
	ThreatLevel        string   `json:"threatLevel" yaml:"threat_level"`
	AnomaliesDetected  []string `json:"anomaliesDetected" yaml:"anomalies_detected"`
	RecommendedActions []string `json:"recommendedActions" yaml:"recommended_actions"`
	VoiceWordCloud     string   `json:"voiceWordCloud,omitempty" yaml:"voice_word_cloud,omitempty"`
}

// AnalysisRequest is the input of a security analysis.
type AnalysisRequest struct {
	VoicePrintDataURI string `json:"voicePrintDataUri"`
	UserID            string `json:"userId"`
}

// AnalysisOutput wraps the assessment the way the analyzer returns it.
type AnalysisOutput struct {
	SecurityAssessment SecurityAssessment `json:"securityAssessment" yaml:"security_assessment"`
}

// AnalysisResult is what callers of the security analysis receive. Exactly
// one of Data and Error is set.
type AnalysisResult struct {
	Success bool            `json:"success" yaml:"success"`
	Data    *AnalysisOutput `json:"data,omitempty" yaml:"data,omitempty"`
	Error   string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// NormalizeThreatLevel lower-cases the known levels. Free-form answers such as
// "Low - consistent voice" are reduced to their leading level; anything else
// is returned trimmed but otherwise untouched.
func NormalizeThreatLevel(level string) string {
	trimmed := strings.TrimSpace(level)
	lower := strings.ToLower(trimmed)
	for _, known := range []string{ThreatLevelLow, ThreatLevelMedium, ThreatLevelHigh} {
		if lower == known {
			return known
		}
		if strings.HasPrefix(lower, known) {
			rest := lower[len(known):]
			if rest[0] == ' ' || rest[0] == '-' || rest[0] == ':' || rest[0] == ',' || rest[0] == '.' {
				return known
			}
		}
	}
	return trimmed
}
