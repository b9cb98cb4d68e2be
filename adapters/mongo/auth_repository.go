package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/satriahrh/voicekey/server/domain/repositories"
)

// AuthStateCollection holds one document per auth key.
const AuthStateCollection = "auth_state"

type entry struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// KeyValueRepository stores keyed auth entries as MongoDB documents
type KeyValueRepository struct {
	collection *mongo.Collection
}

// NewKeyValueRepository creates a new MongoDB key/value repository
func NewKeyValueRepository(db *mongo.Database) *KeyValueRepository {
	return &KeyValueRepository{
		collection: db.Collection(AuthStateCollection),
	}
}

// Get implements adapters.KeyValue
func (r *KeyValueRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}

	var doc entry
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return []byte(doc.Value), nil
}

// Set implements adapters.KeyValue
func (r *KeyValueRepository) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	update := bson.M{
		"$set": bson.M{
			"value":      string(value),
			"updated_at": time.Now(),
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}
