package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/voicekey/server/domain/entities"
	"github.com/satriahrh/voicekey/server/internal/audio/pcm"
	"github.com/satriahrh/voicekey/server/internal/datauri"
)

const (
	defaultModel          = "gemini-2.0-flash"
	defaultTemperature    = 0.2
	defaultMaxTokens      = 1024
	defaultTimeoutSeconds = 30
)

// GeminiConfig configures the Gemini voice print analyzer
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int
	TimeoutSeconds  int
}

// ValidateGeminiConfig validates the GeminiConfig
func ValidateGeminiConfig(config GeminiConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("Google AI API key is required")
	}

	// Validate temperature is in the valid range
	if config.Temperature != 0 && (config.Temperature < 0 || config.Temperature > 1) {
		return fmt.Errorf("temperature must be between 0 and 1, got %f", config.Temperature)
	}

	if config.MaxOutputTokens < 0 {
		return fmt.Errorf("max output tokens must be positive, got %d", config.MaxOutputTokens)
	}

	// Validate timeout is reasonable if specified
	if config.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout must be positive, got %d", config.TimeoutSeconds)
	}

	return nil
}

// GeminiAnalyzer implements repositories.VoicePrintAnalyzer with Google's Gemini API.
// The recording is sent inline and the answer is constrained to a JSON schema.
type GeminiAnalyzer struct {
	client      *genai.Client
	logger      *zap.Logger
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
}

// NewGeminiAnalyzer creates a new Gemini analyzer
func NewGeminiAnalyzer(ctx context.Context, config GeminiConfig, logger *zap.Logger) (*GeminiAnalyzer, error) {
	if err := ValidateGeminiConfig(config); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Apply defaults where needed
	model := config.Model
	if model == "" {
		model = defaultModel
		logger.Info("Using default model", zap.String("model", model))
	}

	temperature := config.Temperature
	if temperature == 0 {
		temperature = float32(defaultTemperature)
	}

	maxTokens := config.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	timeoutSeconds := config.TimeoutSeconds
	if timeoutSeconds == 0 {
		timeoutSeconds = defaultTimeoutSeconds
		logger.Info("Using default timeoutSeconds", zap.Int("timeoutSeconds", timeoutSeconds))
	}

	return &GeminiAnalyzer{
		client:      client,
		logger:      logger,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// Analyze implements repositories.VoicePrintAnalyzer
func (g *GeminiAnalyzer) Analyze(ctx context.Context, req entities.AnalysisRequest) (*entities.AnalysisOutput, error) {
	contents, err := buildContents(req)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
		MaxOutputTokens:   int32(g.maxTokens),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    assessmentSchema,
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate assessment: %w", err)
	}

	output, err := parseAssessment(response.Text())
	if err != nil {
		return nil, err
	}

	g.logger.Info("Voice print analyzed",
		zap.String("userID", req.UserID),
		zap.Bool("isSecure", output.SecurityAssessment.IsSecure),
		zap.String("threatLevel", output.SecurityAssessment.ThreatLevel),
		zap.Duration("elapsed", time.Since(start)))

	return output, nil
}

// buildContents sends the prompt and the decoded recording as one user turn.
func buildContents(req entities.AnalysisRequest) ([]*genai.Content, error) {
	uri, err := datauri.Parse(req.VoicePrintDataURI)
	if err != nil {
		return nil, fmt.Errorf("invalid voice print: %w", err)
	}

	audio, mimeType := uri.Data, uri.MIMEType
	if rate, ok := pcm.ParseMIMEType(mimeType); ok {
		// Raw PCM has no container Gemini understands.
		audio, mimeType = pcm.WrapWAV(audio, rate), "audio/wav"
	}
	// Gemini rejects MIME parameters such as ";codecs=opus".
	mimeType, _, _ = strings.Cut(mimeType, ";")

	parts := []*genai.Part{
		genai.NewPartFromText(userPrompt(req.UserID)),
		genai.NewPartFromBytes(audio, strings.TrimSpace(mimeType)),
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil
}

// parseAssessment decodes the model answer. Code fences are tolerated and a
// bare assessment object is accepted as well as the wrapped form.
func parseAssessment(text string) (*entities.AnalysisOutput, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty assessment")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, fmt.Errorf("failed to decode assessment: %w", err)
	}

	var output entities.AnalysisOutput
	if raw, ok := fields["securityAssessment"]; ok {
		if err := json.Unmarshal(raw, &output.SecurityAssessment); err != nil {
			return nil, fmt.Errorf("failed to decode assessment: %w", err)
		}
	} else if err := json.Unmarshal([]byte(text), &output.SecurityAssessment); err != nil {
		return nil, fmt.Errorf("failed to decode assessment: %w", err)
	}

	a := &output.SecurityAssessment
	if a.ThreatLevel == "" {
		return nil, errors.New("assessment is missing a threat level")
	}
	if a.AnomaliesDetected == nil {
		a.AnomaliesDetected = []string{}
	}
	if a.RecommendedActions == nil {
		a.RecommendedActions = []string{}
	}
	return &output, nil
}
