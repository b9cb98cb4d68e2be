package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/voicekey/server/adapters"
	"github.com/satriahrh/voicekey/server/adapters/badger"
	"github.com/satriahrh/voicekey/server/adapters/llm"
	"github.com/satriahrh/voicekey/server/adapters/mongo"
	"github.com/satriahrh/voicekey/server/domain/repositories"
	"github.com/satriahrh/voicekey/server/internal/config"
)

// openStore builds the auth store selected by STORE_BACKEND. The returned
// func releases the backend.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.AuthStore, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreBadger:
		db, err := badger.Open(badger.Options{Dir: cfg.BadgerDir}, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close BadgerDB", zap.Error(err))
			}
		}
		return adapters.NewKeyValueAuthStore(db, logger), closeFn, nil

	case config.StoreMongo:
		client, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Close(context.Background()) }
		return client.AuthStore(), closeFn, nil

	default:
		return adapters.NewKeyValueAuthStore(adapters.NewMemoryKeyValue(), logger), func() {}, nil
	}
}

func newAnalyzer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.VoicePrintAnalyzer, error) {
	if cfg.Analyzer != config.AnalyzerGemini {
		logger.Info("Using mock voice print analyzer")
		return llm.NewMockAnalyzer(), nil
	}
	analyzer, err := llm.NewGeminiAnalyzer(ctx, llm.GeminiConfig{
		APIKey:         cfg.GeminiAPIKey,
		Model:          cfg.GeminiModel,
		TimeoutSeconds: cfg.GeminiTimeoutSeconds,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}
	return analyzer, nil
}
