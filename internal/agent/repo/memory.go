package repo

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/xsharmas/Brainhealer-bot/internal/agent/model"
	logx "github.com/xsharmas/Brainhealer-bot/pkg/logger"
)

// session holds one user's turns behind its own lock, so concurrent users
// never contend and two exchanges for the same user append whole pairs
// without interleaving.
type session struct {
	mu       sync.Mutex
	messages []*schema.Message
}

// MemoryConversationStore keeps sessions in process memory only. Sessions
// are created lazily on first touch and vanish on Clear or process exit.
type MemoryConversationStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	maxPairs int
}

// NewMemoryConversationStore creates a store capped at the configured
// number of (user, assistant) pairs per session.
func NewMemoryConversationStore(cfg model.ConversationConfig) *MemoryConversationStore {
	pairs := cfg.HistoryPairs
	if pairs < 1 {
		pairs = 1
	}
	return &MemoryConversationStore{
		sessions: make(map[string]*session),
		maxPairs: pairs,
	}
}

func (s *MemoryConversationStore) get(userID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{}
		s.sessions[userID] = sess
		logx.Debug().Str("user_id", userID).Msg("New conversation session")
	}
	return sess
}

func (s *MemoryConversationStore) History(ctx context.Context, userID string) ([]*schema.Message, error) {
	sess := s.get(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	out := make([]*schema.Message, len(sess.messages))
	copy(out, sess.messages)
	return out, nil
}

func (s *MemoryConversationStore) AppendExchange(ctx context.Context, userID string, user, assistant *schema.Message) error {
	sess := s.get(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.messages = append(sess.messages, user, assistant)
	if max := s.maxPairs * 2; len(sess.messages) > max {
		trimmed := make([]*schema.Message, max)
		copy(trimmed, sess.messages[len(sess.messages)-max:])
		sess.messages = trimmed
	}
	return nil
}

func (s *MemoryConversationStore) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

func (s *MemoryConversationStore) Len(ctx context.Context, userID string) (int, error) {
	sess := s.get(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return len(sess.messages), nil
}

var _ model.ConversationStore = (*MemoryConversationStore)(nil)
