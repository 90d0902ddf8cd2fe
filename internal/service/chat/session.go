package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mait-chat/backend/internal/model/chat"
	"github.com/mait-chat/backend/internal/service/completion"
)

// DefaultFallback is shown when a completion fails without a description.
const DefaultFallback = "Sorry, I'm having trouble connecting right now. Please try again later."

// Session is one activation of the chat widget. All transitions go through
// its methods; the pending flag admits one completion at a time.
type Session struct {
	id        string
	greeting  string
	completer completion.Completer
	logger    *zap.Logger
	createdAt time.Time

	mu         sync.Mutex
	messages   []chat.Message
	draft      string
	pending    bool
	closed     bool
	lastActive time.Time
	subs       map[int]chan chat.State
	nextSub    int
}

// NewSession creates an empty, inactive session.
func NewSession(id, greeting string, completer completion.Completer, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := time.Now().UTC()
	return &Session{
		id:         id,
		greeting:   greeting,
		completer:  completer,
		logger:     logger.With(zap.String("session", id)),
		createdAt:  now,
		lastActive: now,
		messages:   make([]chat.Message, 0, 16),
		subs:       make(map[int]chan chat.State),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Activate inserts the greeting into an empty transcript. Calling it again is
// a no-op.
func (s *Session) Activate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.touch()
	if len(s.messages) > 0 {
		return
	}
	s.messages = append(s.messages, chat.BotMessage(s.greeting))
	s.publish()
}

// UpdateDraft replaces the unsent input.
func (s *Session) UpdateDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.touch()
	s.draft = text
	s.publish()
}

// Submit sends the draft. It returns false without touching state when the
// draft is blank, a completion is already pending, or the session is closed.
// Otherwise it blocks until the completion resolves; the reply, or a fallback
// on failure, is appended before it returns true.
func (s *Session) Submit(ctx context.Context) bool {
	s.mu.Lock()
	if s.closed || s.pending || strings.TrimSpace(s.draft) == "" {
		s.mu.Unlock()
		return false
	}
	text := s.draft
	s.messages = append(s.messages, chat.UserMessage(text))
	s.draft = ""
	s.pending = true
	s.touch()
	s.publish()
	s.mu.Unlock()

	reply, err := s.completer.Complete(completion.WithConversation(ctx, s.id), text)
	if err != nil {
		s.logger.Warn("completion failed", zap.Error(err))
		reply = completion.Describe(err)
		if reply == "" {
			reply = DefaultFallback
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = false
	if s.closed {
		s.logger.Debug("discarding reply for closed session")
		return true
	}
	s.messages = append(s.messages, chat.BotMessage(reply))
	s.touch()
	s.publish()
	return true
}

// State returns a snapshot of the session.
func (s *Session) State() chat.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Pending reports whether a completion is outstanding.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// LastActive reports the time of the last state change or activation.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Subscribe returns a feed of snapshots, starting with the current one. A
// slow reader may miss intermediate snapshots but always receives the latest.
// The channel is closed by cancel or when the session closes.
func (s *Session) Subscribe() (<-chan chat.State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan chat.State, 1)
	ch <- s.snapshot()
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
}

// Close tears the session down. A completion resolving afterwards is
// dropped. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.publish()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Session) touch() {
	s.lastActive = time.Now().UTC()
}

func (s *Session) snapshot() chat.State {
	messages := make([]chat.Message, len(s.messages))
	copy(messages, s.messages)
	return chat.State{
		ID:        s.id,
		Messages:  messages,
		Draft:     s.draft,
		Pending:   s.pending,
		Closed:    s.closed,
		CreatedAt: s.createdAt,
	}
}

// publish must be called with mu held.
func (s *Session) publish() {
	if len(s.subs) == 0 {
		return
	}
	state := s.snapshot()
	for _, ch := range s.subs {
		select {
		case ch <- state:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
}
