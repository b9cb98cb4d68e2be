package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/satriahrh/voicekey/server/adapters"
)

const (
	DefaultURI      = "mongodb://localhost:27017"
	DefaultDatabase = "voicekey"

	connectTimeout = 10 * time.Second
)

// Client is a connection to the database holding the VoiceKey auth state.
type Client struct {
	*mongo.Client
	Database *mongo.Database
	logger   *zap.Logger
}

// clientOptions configures a small pool for the auth store.
func clientOptions(uri string) *options.ClientOptions {
	return options.Client().
		ApplyURI(uri).
		SetAppName("voicekey").
		SetMaxPoolSize(4).
		SetMinPoolSize(0).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(connectTimeout)
}

// NewClient connects to uri and selects dbName. Empty values fall back to
// DefaultURI and DefaultDatabase.
func NewClient(ctx context.Context, uri, dbName string, logger *zap.Logger) (*Client, error) {
	if uri == "" {
		uri = DefaultURI
	}
	if dbName == "" {
		dbName = DefaultDatabase
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect auth store database: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("auth store database unreachable: %w", err)
	}

	logger.Info("Auth store database connected",
		zap.String("database", dbName),
		zap.String("collection", AuthStateCollection))

	return &Client{
		Client:   client,
		Database: client.Database(dbName),
		logger:   logger,
	}, nil
}

// AuthStore returns the auth store kept in this database.
func (c *Client) AuthStore() *adapters.KeyValueAuthStore {
	return adapters.NewKeyValueAuthStore(NewKeyValueRepository(c.Database), c.logger)
}

// Close disconnects from the database
func (c *Client) Close(ctx context.Context) error {
	if err := c.Client.Disconnect(ctx); err != nil {
		c.logger.Error("Failed to disconnect auth store database", zap.Error(err))
		return err
	}
	c.logger.Info("Auth store database disconnected")
	return nil
}
