package usecase

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultCleanupInterval is how often expired login sessions are dropped.
const DefaultCleanupInterval = 10 * time.Minute

// SessionPruner drops sessions that expired before now.
type SessionPruner interface {
	PruneSessions(now time.Time) int
}

// SessionCleanupService handles background pruning of login sessions
type SessionCleanupService struct {
	pruner   SessionPruner
	interval time.Duration
	logger   *zap.Logger

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewSessionCleanupService creates a new session cleanup service
func NewSessionCleanupService(pruner SessionPruner, interval time.Duration, logger *zap.Logger) *SessionCleanupService {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &SessionCleanupService{
		pruner:   pruner,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the background cleanup process
func (s *SessionCleanupService) Start() {
	go s.cleanupLoop()
	s.logger.Info("Session cleanup service started", zap.Duration("interval", s.interval))
}

// Stop stops the cleanup loop and waits for it to exit. Stop must follow Start.
func (s *SessionCleanupService) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	<-s.done
	s.logger.Info("Session cleanup service stopped")
}

func (s *SessionCleanupService) cleanupLoop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case now := <-ticker.C:
			if n := s.pruner.PruneSessions(now); n > 0 {
				s.logger.Info("Expired sessions pruned", zap.Int("count", n))
			}
		}
	}
}
