package service

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GroceryboT/internal/metrics"
	"github.com/Kerhoff/GroceryboT/internal/repository"
	"github.com/Kerhoff/GroceryboT/internal/repository/memory"
	"github.com/Kerhoff/GroceryboT/pkg/logger"
)

// StoreFactory creates the list owned by a new session.
type StoreFactory func() repository.ListStore

// DefaultStoreFactory returns an empty in-memory list with UUID ids.
func DefaultStoreFactory() repository.ListStore {
	return memory.NewListStore()
}

// Service keeps one Session per user and hands it to the presentation
// layers. It is safe for concurrent use.
type Service struct {
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	ttl      time.Duration
	newStore StoreFactory
	now      func() time.Time
	max      int

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures a Service.
type Option func(*Service)

// WithMaxSessions caps the number of live sessions. When the cap is reached
// the least recently used session is evicted to make room. Zero means no
// cap.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.max = n
		}
	}
}

// New creates a Service. Sessions idle for longer than ttl are dropped by
// the janitor; a ttl of zero keeps them forever.
func New(logger *logrus.Logger, m *metrics.Metrics, ttl time.Duration, newStore StoreFactory, opts ...Option) *Service {
	if newStore == nil {
		newStore = DefaultStoreFactory
	}
	s := &Service{
		logger:   logger,
		metrics:  m,
		ttl:      ttl,
		newStore: newStore,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session returns the session for key, creating it on first use.
func (s *Service) Session(key string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[key]; ok {
		return sess
	}
	if s.max > 0 && len(s.sessions) >= s.max {
		s.evictOldest()
	}

	sess := &Session{
		key:     key,
		store:   s.newStore(),
		used:    s.now(),
		now:     s.now,
		observe: s.observe,
	}
	s.sessions[key] = sess
	s.metrics.SessionOpened()
	logger.WithSession(s.logger, key).Debug("Created new session")
	return sess
}

// Lookup returns the session for key without creating one.
func (s *Service) Lookup(key string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	return sess, ok
}

// Drop forgets the session for key. It reports whether one existed.
func (s *Service) Drop(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[key]; !ok {
		return false
	}
	delete(s.sessions, key)
	s.metrics.SessionClosed(false)
	logger.WithSession(s.logger, key).Info("Dropped session")
	return true
}

// Len returns the number of live sessions.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// evictOldest drops the least recently used session. s.mu must be held.
func (s *Service) evictOldest() {
	now := s.now()

	var (
		oldest string
		idle   time.Duration = -1
	)
	for key, sess := range s.sessions {
		if d := sess.idleSince(now); d > idle {
			oldest, idle = key, d
		}
	}
	if idle < 0 {
		return
	}
	delete(s.sessions, oldest)
	s.metrics.SessionClosed(true)
	logger.WithSession(s.logger, oldest).Info("Evicted least recently used session")
}

func (s *Service) observe(key, operation string, err error) {
	s.metrics.ObserveOperation(operation, err)

	entry := logger.WithSession(s.logger, key).WithFields(logrus.Fields{
		"operation": operation,
		"result":    metrics.Result(err),
	})
	if err != nil {
		entry.WithError(err).Debug("List operation rejected")
		return
	}
	entry.Debug("List operation applied")
}
