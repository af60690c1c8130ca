// Package memory holds per-session conversation history. Sessions are
// append-only logs of (user, assistant) turns; the router appends only
// after a turn completes successfully.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	lcmemory "github.com/tmc/langchaingo/memory"
)

// Store owns all sessions. Whether callers share one session or get their
// own is decided at the edge; the core only ever sees a *Session handle.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	maxTurns int
}

// NewStore creates a store. maxTurns bounds each session to its most
// recent turns; 0 keeps the full history.
func NewStore(maxTurns int) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		maxTurns: maxTurns,
	}
}

// Session returns the session for id, creating it on first use. The empty
// id maps to a single shared session.
func (s *Store) Session(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = newSession(s.maxTurns)
		s.sessions[id] = sess
	}
	return sess
}

// NewSessionID mints a fresh session identifier.
func (s *Store) NewSessionID() string {
	return uuid.NewString()
}

// Session is one conversation. All access is serialized by an internal
// lock so concurrent requests cannot interleave turns.
type Session struct {
	mu       sync.Mutex
	history  *lcmemory.ChatMessageHistory
	maxTurns int
}

func newSession(maxTurns int) *Session {
	return &Session{
		history:  lcmemory.NewChatMessageHistory(),
		maxTurns: maxTurns,
	}
}

// LoadHistory renders the conversation as plain text, oldest first.
func (s *Session) LoadHistory(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.history.Messages(ctx)
	if err != nil {
		return "", err
	}
	return llms.GetBufferString(messages, "Human", "AI")
}

// AppendTurn records one completed (user, assistant) exchange atomically.
func (s *Session) AppendTurn(ctx context.Context, user, assistant string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.history.AddUserMessage(ctx, user); err != nil {
		return err
	}
	if err := s.history.AddAIMessage(ctx, assistant); err != nil {
		return err
	}
	return s.trim(ctx)
}

// Len reports the number of stored messages (two per turn).
func (s *Session) Len(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.history.Messages(ctx)
	if err != nil {
		return 0, err
	}
	return len(messages), nil
}

// trim drops the oldest turns past the window. Caller holds the lock.
func (s *Session) trim(ctx context.Context) error {
	if s.maxTurns <= 0 {
		return nil
	}
	messages, err := s.history.Messages(ctx)
	if err != nil {
		return err
	}
	limit := 2 * s.maxTurns
	if len(messages) <= limit {
		return nil
	}
	s.history = lcmemory.NewChatMessageHistory(
		lcmemory.WithPreviousMessages(messages[len(messages)-limit:]))
	return nil
}
