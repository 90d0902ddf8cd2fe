package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mait-chat/backend/internal/model/persona"
	"github.com/mait-chat/backend/internal/service/completion"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoCompleter     = errors.New("completer is required")
)

// Service keeps the live chat sessions in memory.
type Service struct {
	completer completion.Completer
	personas  persona.Store
	logger    *zap.Logger
	onClose   []func(sessionID string)

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option configures a Service.
type Option func(*Service)

// OnSessionClosed registers fn to run after a session is torn down.
func OnSessionClosed(fn func(sessionID string)) Option {
	return func(s *Service) {
		if fn != nil {
			s.onClose = append(s.onClose, fn)
		}
	}
}

// NewService builds a registry whose sessions greet with the default persona
// and complete through completer.
func NewService(completer completion.Completer, personas persona.Store, logger *zap.Logger, opts ...Option) (*Service, error) {
	if completer == nil {
		return nil, ErrNoCompleter
	}
	if personas == nil {
		personas = persona.NewMemoryStore(persona.Seed())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{
		completer: completer,
		personas:  personas,
		logger:    logger,
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateSession provisions and activates a new session.
func (s *Service) CreateSession(_ context.Context) (*Session, error) {
	greeting := s.personas.Default().OpeningLine
	session := NewSession(uuid.NewString(), greeting, s.completer, s.logger)
	session.Activate()

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	s.logger.Info("session created", zap.String("session", session.ID()))
	return session, nil
}

// GetSession retrieves a live session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// CloseSession tears a session down and forgets it.
func (s *Service) CloseSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.release(session)
	s.logger.Info("session closed", zap.String("session", sessionID))
	return nil
}

// Count returns the number of live sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep closes sessions idle for longer than idle and reports how many went.
// Sessions waiting on a completion are kept.
func (s *Service) Sweep(idle time.Duration) int {
	cutoff := time.Now().UTC().Add(-idle)

	var stale []*Session
	s.mu.Lock()
	for id, session := range s.sessions {
		if session.Pending() || session.LastActive().After(cutoff) {
			continue
		}
		delete(s.sessions, id)
		stale = append(stale, session)
	}
	s.mu.Unlock()

	for _, session := range stale {
		s.release(session)
	}
	if len(stale) > 0 {
		s.logger.Info("swept idle sessions", zap.Int("count", len(stale)))
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done, then closes every session.
func (s *Service) Run(ctx context.Context, interval, idle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return nil
		case <-ticker.C:
			s.Sweep(idle)
		}
	}
}

func (s *Service) closeAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		s.release(session)
	}
}

func (s *Service) release(session *Session) {
	session.Close()
	for _, fn := range s.onClose {
		fn(session.ID())
	}
}
