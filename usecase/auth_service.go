package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/voicekey/server/domain/entities"
	"github.com/satriahrh/voicekey/server/domain/repositories"
	"github.com/satriahrh/voicekey/server/internal/auth"
	"github.com/satriahrh/voicekey/server/internal/datauri"
)

// Messages shown to the user when a form is incomplete.
const (
	MsgRegistrationIncomplete = "Please provide a username and record your voice passphrase."
	MsgLoginIncomplete        = "Please record your voice passphrase to log in."
)

var (
	ErrMissingFields  = errors.New("missing required fields")
	ErrDuplicateUser  = errors.New("user already registered")
	ErrUserNotFound   = errors.New("no registered user")
	ErrSessionInvalid = errors.New("session is not active")
)

// LoginResult is a successful voice login.
type LoginResult struct {
	Session *entities.Session
	Token   string
}

// Profile is the dashboard view of the current account.
type Profile struct {
	ID            string `json:"id"`
	Authenticated bool   `json:"authenticated"`
	AccountStatus string `json:"account_status"`
}

// AuthService is the mock voice authentication. Registration stores the
// recording; login accepts any recording once a user exists.
type AuthService struct {
	store  repositories.AuthStore
	tokens *auth.TokenManager
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*entities.Session
}

// NewAuthService creates a new auth service
func NewAuthService(store repositories.AuthStore, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:    store,
		tokens:   tokens,
		logger:   logger,
		sessions: make(map[string]*entities.Session),
	}
}

// Register stores username and voicePrint as the registered user and clears
// the auth flag. Registering the same username twice fails with
// ErrDuplicateUser; a different username replaces the stored one.
func (s *AuthService) Register(ctx context.Context, username, voicePrint string) (*entities.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || voicePrint == "" {
		return nil, ErrMissingFields
	}

	user := &entities.User{ID: username, VoicePrint: voicePrint}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingFields, err)
	}
	if err := datauri.Validate(voicePrint); err != nil {
		return nil, fmt.Errorf("%w: invalid voice print: %v", ErrMissingFields, err)
	}

	existing, err := s.store.GetUser(ctx)
	switch {
	case err == nil && existing.ID == username:
		return nil, ErrDuplicateUser
	case err != nil && !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("failed to read registered user: %w", err)
	}

	if err := s.store.SetUser(ctx, user); err != nil {
		return nil, err
	}
	if err := s.store.SetAuthenticated(ctx, false); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.String("userID", user.ID), zap.Int("voicePrintLength", len(voicePrint)))
	return user, nil
}

// Login succeeds for any non-empty recording while a user is registered. The
// recording is not compared with the stored voice print.
func (s *AuthService) Login(ctx context.Context, voicePrint string) (*LoginResult, error) {
	if voicePrint == "" {
		return nil, ErrMissingFields
	}

	user, err := s.store.GetUser(ctx)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registered user: %w", err)
	}

	if err := s.store.SetAuthenticated(ctx, true); err != nil {
		return nil, err
	}

	session := entities.NewSession(user.ID, s.tokens.TTL())
	token, err := s.tokens.Generate(user.ID, session.ID, session.ExpiresAt)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Info("User logged in", zap.String("userID", user.ID), zap.String("sessionID", session.ID))
	return &LoginResult{Session: session, Token: token}, nil
}

// Logout clears the auth flag and terminates the session. The registration
// is kept.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	if session, ok := s.sessions[sessionID]; ok {
		session.Terminate()
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if err := s.store.SetAuthenticated(ctx, false); err != nil {
		return err
	}
	s.logger.Info("User logged out", zap.String("sessionID", sessionID))
	return nil
}

// Authorize validates token and checks that its session is still active.
func (s *AuthService) Authorize(token string) (*auth.JWTClaims, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	session, ok := s.sessions[claims.SessionID]
	s.mu.Unlock()
	if !ok || session.IsExpired() {
		return nil, ErrSessionInvalid
	}
	return claims, nil
}

// CurrentUser restores the stored state: the registered user, if any, and
// whether the auth flag is set.
func (s *AuthService) CurrentUser(ctx context.Context) (*entities.User, bool, error) {
	user, err := s.store.GetUser(ctx)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	authenticated, err := s.store.IsAuthenticated(ctx)
	if err != nil {
		return nil, false, err
	}
	return user, authenticated, nil
}

// Profile returns the dashboard view of the registered user.
func (s *AuthService) Profile(ctx context.Context) (*Profile, error) {
	user, authenticated, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return &Profile{
		ID:            user.ID,
		Authenticated: authenticated,
		AccountStatus: entities.AccountStatus(authenticated),
	}, nil
}

// PruneSessions drops expired sessions.
func (s *AuthService) PruneSessions(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for id, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, id)
			pruned++
		}
	}
	return pruned
}
