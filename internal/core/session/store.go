// Package session keeps one workspace per browser session and evicts the
// ones that have gone idle.
package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/duynhne/user-console/middleware"
)

// Closer is anything a session owns that must be released on eviction.
type Closer interface {
	Close()
}

type slot[W Closer] struct {
	value    W
	lastSeen time.Time
}

// Store maps session ids to workspaces created on first use.
type Store[W Closer] struct {
	factory func() W
	idleTTL time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*slot[W]

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewStore creates a store. A positive idleTTL starts a sweep loop that
// runs every idleTTL/2.
func NewStore[W Closer](factory func() W, idleTTL time.Duration, logger *zap.Logger) *Store[W] {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store[W]{
		factory:  factory,
		idleTTL:  idleTTL,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*slot[W]),
		stopCh:   make(chan struct{}),
	}
	if idleTTL > 0 {
		go s.sweepLoop(idleTTL / 2)
	}
	return s
}

// Get returns the workspace for sid, creating it if needed, and marks the
// session as active.
func (s *Store[W]) Get(sid string) W {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.sessions[sid]
	if !ok {
		sl = &slot[W]{value: s.factory()}
		s.sessions[sid] = sl
		middleware.SetActiveSessions(len(s.sessions))
		s.logger.Debug("Session workspace created", zap.String("session_id", sid))
	}
	sl.lastSeen = s.now()
	return sl.value
}

// Peek returns the workspace for sid only if it already exists. It neither
// creates one nor refreshes the idle clock.
func (s *Store[W]) Peek(sid string) (W, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.sessions[sid]
	if !ok {
		var zero W
		return zero, false
	}
	return sl.value, true
}

// Len returns the number of live sessions
func (s *Store[W]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep closes and forgets sessions idle for longer than the TTL.
// It returns how many were evicted.
func (s *Store[W]) Sweep() int {
	if s.idleTTL <= 0 {
		return 0
	}

	s.mu.Lock()
	now := s.now()
	var expired []W
	for sid, sl := range s.sessions {
		if now.Sub(sl.lastSeen) > s.idleTTL {
			expired = append(expired, sl.value)
			delete(s.sessions, sid)
		}
	}
	middleware.SetActiveSessions(len(s.sessions))
	s.mu.Unlock()

	for _, w := range expired {
		w.Close()
	}
	if len(expired) > 0 {
		s.logger.Info("Evicted idle sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Close stops the sweep loop and releases every session.
func (s *Store[W]) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })

	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*slot[W])
	middleware.SetActiveSessions(0)
	s.mu.Unlock()

	for _, sl := range all {
		sl.value.Close()
	}
}

func (s *Store[W]) sweepLoop(interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stopCh:
			return
		}
	}
}
