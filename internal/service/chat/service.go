package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/k2-chat/backend/internal/model/chat"
)

var (
	ErrProfileRequired = errors.New("profile id is required")
	ErrSessionNotFound = errors.New("session not found")
	ErrReplyCancelled  = errors.New("reply cancelled")
)

// Service keeps one Session per page instance.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     Options
}

// NewService bootstraps the in-memory session registry.
func NewService(opts Options) *Service {
	return &Service{
		sessions: make(map[string]*Session),
		opts:     opts.withDefaults(),
	}
}

// CreateSession provisions an anonymous session bound to a profile.
func (s *Service) CreateSession(_ context.Context, profileID string) (*Session, error) {
	if profileID == "" {
		return nil, ErrProfileRequired
	}

	session := NewSession(chat.Session{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		CreatedAt: s.opts.Clock.Now().UTC(),
	}, s.opts)

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	s.opts.Logger.Info("session created",
		zap.String("session", session.ID()),
		zap.String("profile", profileID))
	return session, nil
}

// GetSession retrieves a session by identifier and marks it active.
func (s *Service) GetSession(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	session.touch()
	return session, nil
}

// DeleteSession closes and forgets a session.
func (s *Service) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	session.Close()
	return nil
}

// Sweep closes sessions idle for longer than the configured TTL and
// returns how many were removed. Sessions with a live subscriber are never
// idle. A non-positive TTL disables eviction.
func (s *Service) Sweep(now time.Time) int {
	if s.opts.IdleTTL <= 0 {
		return 0
	}

	var expired []*Session
	s.mu.Lock()
	for id, session := range s.sessions {
		if session.Attached() {
			continue
		}
		if now.Sub(session.LastActive()) > s.opts.IdleTTL {
			expired = append(expired, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range expired {
		session.Close()
		s.opts.Logger.Info("session expired", zap.String("session", session.ID()))
	}
	return len(expired)
}

// Len reports the number of live sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close ends every session.
func (s *Service) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}
