package service

import (
	"context"
	"time"

	"github.com/Kerhoff/GroceryboT/pkg/logger"
)

// StartJanitor runs a background loop that drops sessions idle longer than
// the configured TTL, checking every interval. It blocks until the context
// is cancelled, so it should be launched in a separate goroutine.
func (s *Service) StartJanitor(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		s.logger.Info("Session janitor disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Infof("Session janitor started (ttl=%s, interval=%s)", s.ttl, interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Session janitor stopped")
			return
		case <-ticker.C:
			s.evictIdle()
		}
	}
}

// evictIdle removes every session whose last use is older than the TTL and
// returns how many were dropped.
func (s *Service) evictIdle() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, sess := range s.sessions {
		if sess.idleSince(now) <= s.ttl {
			continue
		}
		delete(s.sessions, key)
		s.metrics.SessionClosed(true)
		evicted++
		logger.WithSession(s.logger, key).Info("Evicted idle session")
	}
	return evicted
}
