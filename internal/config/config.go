// Package config loads the server configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/satriahrh/voicekey/server/internal/audio/analyser"
	"github.com/satriahrh/voicekey/server/internal/audio/capture"
	"github.com/satriahrh/voicekey/server/internal/recorder"
	"github.com/satriahrh/voicekey/server/internal/waveform"
)

const (
	StoreMemory = "memory"
	StoreBadger = "badger"
	StoreMongo  = "mongo"

	AnalyzerGemini = "gemini"
	AnalyzerMock   = "mock"
)

// Config is the application configuration
type Config struct {
	Port     int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`

	JWTSecret string        `mapstructure:"jwt_secret" validate:"required"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" validate:"gt=0"`

	StoreBackend  string `mapstructure:"store_backend" validate:"oneof=memory badger mongo"`
	BadgerDir     string `mapstructure:"badger_dir" validate:"required_if=StoreBackend badger"`
	MongoURI      string `mapstructure:"mongodb_uri"`
	MongoDatabase string `mapstructure:"mongodb_database"`

	Analyzer             string `mapstructure:"analyzer" validate:"oneof=gemini mock"`
	GeminiAPIKey         string `mapstructure:"gemini_api_key" validate:"required_if=Analyzer gemini"`
	GeminiModel          string `mapstructure:"gemini_model"`
	GeminiTimeoutSeconds int    `mapstructure:"gemini_timeout_seconds" validate:"min=0"`

	RecordingMIMEType string  `mapstructure:"recording_mime_type"`
	FFTSize           int     `mapstructure:"fft_size" validate:"min=32,max=32768"`
	FrameRate         int     `mapstructure:"frame_rate" validate:"min=1,max=240"`
	WaveformWidth     float64 `mapstructure:"waveform_width" validate:"gt=0"`
	WaveformHeight    float64 `mapstructure:"waveform_height" validate:"gt=0"`
}

func setDefault(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("JWT_SECRET", "voicekey-dev-secret")
	v.SetDefault("TOKEN_TTL", "24h")

	v.SetDefault("STORE_BACKEND", StoreMemory)
	v.SetDefault("BADGER_DIR", "./data/badger")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "voicekey")

	v.SetDefault("ANALYZER", AnalyzerMock)
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("GEMINI_TIMEOUT_SECONDS", 30)

	v.SetDefault("RECORDING_MIME_TYPE", "")
	v.SetDefault("FFT_SIZE", analyser.DefaultFFTSize)
	v.SetDefault("FRAME_RATE", waveform.DefaultFrameRate)
	v.SetDefault("WAVEFORM_WIDTH", waveform.DefaultWidth)
	v.SetDefault("WAVEFORM_HEIGHT", waveform.DefaultHeight)
}

// Load reads envFile (ignored when missing) into the environment, then
// resolves every key from the environment or its default.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefault(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.FFTSize&(cfg.FFTSize-1) != 0 {
		return nil, fmt.Errorf("invalid config: FFT_SIZE must be a power of two, got %d", cfg.FFTSize)
	}
	return &cfg, nil
}

// Recorder returns the recorder settings for every client session.
func (c *Config) Recorder() recorder.Config {
	return recorder.Config{
		Capture: capture.Config{
			MIMEType: c.RecordingMIMEType,
			Analyser: analyser.Options{FFTSize: c.FFTSize},
		},
		Waveform: waveform.LoopConfig{
			Width:     c.WaveformWidth,
			Height:    c.WaveformHeight,
			FrameRate: c.FrameRate,
		},
	}
}

// NewLogger builds a development logger for debug and a production logger
// at the configured level otherwise.
func (c *Config) NewLogger() (*zap.Logger, error) {
	if c.LogLevel == "debug" {
		return zap.NewDevelopment()
	}
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = level
	return zc.Build()
}
