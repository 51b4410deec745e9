package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/chat-widget/internal/logging"
)

var ErrSessionNotFound = errors.New("session not found")

// Service keeps the live sessions of every mounted view.
type Service struct {
	ctx       context.Context
	responder Responder
	opts      []Option
	logger    *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	// inflight counts outbound calls of every session, mounted or not.
	inflight sync.WaitGroup
}

// NewService creates the in-memory registry. ctx bounds outbound calls of every session.
func NewService(ctx context.Context, responder Responder, logger *zap.Logger, opts ...Option) *Service {
	logger = logging.OrNop(logger)
	s := &Service{
		ctx:       ctx,
		responder: responder,
		logger:    logger,
		sessions:  make(map[string]*Session),
	}
	s.opts = append([]Option{WithLogger(logger), trackedBy(&s.inflight)}, opts...)
	return s
}

// CreateSession mounts a new seeded session.
func (s *Service) CreateSession(_ context.Context) (*Session, error) {
	session := NewSession(s.ctx, s.responder, s.opts...)

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	s.logger.Info("session mounted", zap.String("session", session.ID()))
	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// CloseSession unmounts a session. A call still in flight completes into the detached session.
func (s *Service) CloseSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.logger.Info("session unmounted", zap.String("session", sessionID))
	return nil
}

// Len returns the number of mounted sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Wait blocks until no outbound call of any session created here is outstanding,
// including sessions already closed.
func (s *Service) Wait() {
	s.inflight.Wait()
}

// CloseIdle unmounts every session that has been idle for at least maxIdle as of now
// and returns how many were removed.
func (s *Service) CloseIdle(now time.Time, maxIdle time.Duration) int {
	s.mu.Lock()
	var closed []string
	for id, session := range s.sessions {
		if session.IdleFor(now) >= maxIdle {
			delete(s.sessions, id)
			closed = append(closed, id)
		}
	}
	s.mu.Unlock()

	for _, id := range closed {
		s.logger.Info("session expired", zap.String("session", id))
	}
	return len(closed)
}

// ExpireIdle runs CloseIdle every interval until ctx is done.
func (s *Service) ExpireIdle(ctx context.Context, maxIdle, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.CloseIdle(now, maxIdle)
		}
	}
}
