package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/voicekey/server/domain/entities"
	"github.com/satriahrh/voicekey/server/domain/repositories"
)

// KeyValue is raw keyed storage. Get returns repositories.ErrNotFound for a
// missing key.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// KeyValueAuthStore keeps the auth state as two JSON entries, the user record
// under repositories.UserKey and the boolean flag under repositories.AuthFlagKey.
type KeyValueAuthStore struct {
	kv     KeyValue
	logger *zap.Logger
}

// NewKeyValueAuthStore creates an AuthStore over kv
func NewKeyValueAuthStore(kv KeyValue, logger *zap.Logger) *KeyValueAuthStore {
	return &KeyValueAuthStore{kv: kv, logger: logger}
}

// GetUser implements repositories.AuthStore
func (s *KeyValueAuthStore) GetUser(ctx context.Context) (*entities.User, error) {
	raw, err := s.kv.Get(ctx, repositories.UserKey)
	if err != nil {
		return nil, err
	}
	var user entities.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode stored user: %w", err)
	}
	return &user, nil
}

// SetUser implements repositories.AuthStore
func (s *KeyValueAuthStore) SetUser(ctx context.Context, user *entities.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := s.kv.Set(ctx, repositories.UserKey, raw); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	s.logger.Debug("Stored user", zap.String("userID", user.ID))
	return nil
}

// IsAuthenticated implements repositories.AuthStore
func (s *KeyValueAuthStore) IsAuthenticated(ctx context.Context) (bool, error) {
	raw, err := s.kv.Get(ctx, repositories.AuthFlagKey)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var authenticated bool
	if err := json.Unmarshal(raw, &authenticated); err != nil {
		return false, fmt.Errorf("failed to decode auth flag: %w", err)
	}
	return authenticated, nil
}

// SetAuthenticated implements repositories.AuthStore
func (s *KeyValueAuthStore) SetAuthenticated(ctx context.Context, authenticated bool) error {
	raw, _ := json.Marshal(authenticated)
	if err := s.kv.Set(ctx, repositories.AuthFlagKey, raw); err != nil {
		return fmt.Errorf("failed to store auth flag: %w", err)
	}
	return nil
}
