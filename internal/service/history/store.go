package history

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrVisitorRequired = errors.New("visitor id is required")

// Role distinguishes the two sides of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one remembered exchange line for a visitor.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store keeps a bounded, in-memory transcript per visitor.
type Store struct {
	limit int

	mu    sync.RWMutex
	turns map[string][]Turn
}

// NewStore keeps at most limit turns per visitor. limit < 1 means 1.
func NewStore(limit int) *Store {
	if limit < 1 {
		limit = 1
	}
	return &Store{
		limit: limit,
		turns: make(map[string][]Turn),
	}
}

// Append records a turn, dropping the oldest beyond the limit.
func (s *Store) Append(_ context.Context, visitorID string, role Role, content string) error {
	if visitorID == "" {
		return ErrVisitorRequired
	}

	turn := Turn{Role: role, Content: content, CreatedAt: time.Now().UTC()}

	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.turns[visitorID], turn)
	if over := len(turns) - s.limit; over > 0 {
		turns = append([]Turn(nil), turns[over:]...)
	}
	s.turns[visitorID] = turns
	return nil
}

// Recent returns a copy of the visitor's remembered turns, oldest first.
func (s *Store) Recent(_ context.Context, visitorID string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.turns[visitorID]
	copied := make([]Turn, len(turns))
	copy(copied, turns)
	return copied
}

// Forget drops a visitor's transcript.
func (s *Store) Forget(visitorID string) {
	s.mu.Lock()
	delete(s.turns, visitorID)
	s.mu.Unlock()
}
