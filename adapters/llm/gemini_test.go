package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/voicekey/server/domain/entities"
	"github.com/satriahrh/voicekey/server/internal/audio/pcm"
)

func TestValidateGeminiConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  GeminiConfig
		wantErr bool
	}{
		{"valid", GeminiConfig{APIKey: "key"}, false},
		{"missing key", GeminiConfig{}, true},
		{"temperature too high", GeminiConfig{APIKey: "key", Temperature: 1.5}, true},
		{"negative tokens", GeminiConfig{APIKey: "key", MaxOutputTokens: -1}, true},
		{"negative timeout", GeminiConfig{APIKey: "key", TimeoutSeconds: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGeminiConfig(tt.config)
			assert.Equal(t, tt.wantErr, err != nil, "error = %v", err)
		})
	}
}

func TestBuildContents(t *testing.T) {
	contents, err := buildContents(entities.AnalysisRequest{
		UserID:            "alice",
		VoicePrintDataURI: "data:audio/webm;codecs=opus;base64,AAH+/w==",
	})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	parts := contents[0].Parts
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].Text, "User ID: alice")
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "audio/webm", parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte{0x00, 0x01, 0xfe, 0xff}, parts[1].InlineData.Data)

	contents, err = buildContents(entities.AnalysisRequest{
		UserID:            "alice",
		VoicePrintDataURI: "data:audio/L16;rate=16000;channels=1;base64,AQACAAMA",
	})
	require.NoError(t, err)
	blob := contents[0].Parts[1].InlineData
	assert.Equal(t, "audio/wav", blob.MIMEType)
	require.Len(t, blob.Data, pcm.WAVHeaderSize+6)
	assert.Equal(t, "RIFF", string(blob.Data[:4]))
	assert.Equal(t, []byte{1, 0, 2, 0, 3, 0}, blob.Data[pcm.WAVHeaderSize:])

	_, err = buildContents(entities.AnalysisRequest{UserID: "alice", VoicePrintDataURI: "not a uri"})
	assert.Error(t, err)
}

func TestParseAssessment(t *testing.T) {
	wrapped := `{"securityAssessment":{"isSecure":false,"threatLevel":"High","anomaliesDetected":["synthetic artifacts"],"recommendedActions":["re-enroll"]}}`
	out, err := parseAssessment(wrapped)
	require.NoError(t, err)
	assert.False(t, out.SecurityAssessment.IsSecure)
	assert.Equal(t, "High", out.SecurityAssessment.ThreatLevel)
	assert.Equal(t, []string{"synthetic artifacts"}, out.SecurityAssessment.AnomaliesDetected)

	fenced := "```json\n{\"isSecure\":true,\"threatLevel\":\"low\"}\n```"
	out, err = parseAssessment(fenced)
	require.NoError(t, err)
	assert.True(t, out.SecurityAssessment.IsSecure)
	assert.Equal(t, []string{}, out.SecurityAssessment.AnomaliesDetected)
	assert.Equal(t, []string{}, out.SecurityAssessment.RecommendedActions)

	for _, bad := range []string{"", "not json", `{"isSecure":true}`} {
		_, err := parseAssessment(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestMockAnalyzer(t *testing.T) {
	ctx := context.Background()
	mock := NewMockAnalyzer()

	out, err := mock.Analyze(ctx, entities.AnalysisRequest{UserID: "alice", VoicePrintDataURI: "data:audio/wav;base64,UklGRg=="})
	require.NoError(t, err)
	assert.True(t, out.SecurityAssessment.IsSecure)
	assert.Equal(t, entities.ThreatLevelLow, out.SecurityAssessment.ThreatLevel)

	out, err = mock.Analyze(ctx, entities.AnalysisRequest{UserID: "alice", VoicePrintDataURI: "data:audio/wav;base64,"})
	require.NoError(t, err)
	assert.False(t, out.SecurityAssessment.IsSecure)

	mock.Err = errors.New("quota exceeded")
	_, err = mock.Analyze(ctx, entities.AnalysisRequest{UserID: "alice", VoicePrintDataURI: "data:audio/wav;base64,"})
	assert.Error(t, err)
	assert.Len(t, mock.Requests(), 3)
}
