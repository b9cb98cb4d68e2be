package repositories

import (
	"context"
	"errors"

	"github.com/satriahrh/voicekey/server/domain/entities"
)

// Keys under which the auth state is persisted.
const (
	UserKey     = "voicekey_user"
	AuthFlagKey = UserKey + "_auth"
)

// ErrNotFound is returned by an AuthStore when no user has been stored.
var ErrNotFound = errors.New("not found")

// AuthStore persists the single registered user and the auth flag as two
// keyed entries.
type AuthStore interface {
	// GetUser returns ErrNotFound when no user is registered.
	GetUser(ctx context.Context) (*entities.User, error)
	SetUser(ctx context.Context, user *entities.User) error
	// IsAuthenticated reports the stored auth flag, false when absent.
	IsAuthenticated(ctx context.Context) (bool, error)
	SetAuthenticated(ctx context.Context, authenticated bool) error
}
