package conversations

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/xsharmas/Brainhealer-bot/internal/agent/model"
)

// Manager assembles model context from the session store and commits
// finished exchanges back to it. History mutation happens only here, and
// only after a model actually answered.
type Manager struct {
	store model.ConversationStore
}

func NewManager(store model.ConversationStore) *Manager {
	return &Manager{store: store}
}

// BuildReplyContext returns system prompt + stored history + the new user
// turn, ready for a completion call. The new turn is not persisted here;
// CommitExchange stores it only once a reply exists, so a failed dispatch
// leaves no half-written exchange behind.
func (m *Manager) BuildReplyContext(ctx context.Context, userID, systemPrompt, userText string) ([]*schema.Message, error) {
	history, err := m.store.History(ctx, userID)
	if err != nil {
		return nil, err
	}

	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, schema.SystemMessage(systemPrompt))
	for _, msg := range history {
		if msg == nil || msg.Content == "" {
			continue
		}
		messages = append(messages, msg)
	}
	messages = append(messages, schema.UserMessage(userText))

	return messages, nil
}

// CommitExchange persists the (user, assistant) pair for a successful turn.
func (m *Manager) CommitExchange(ctx context.Context, userID, userText, reply string) error {
	return m.store.AppendExchange(ctx, userID,
		schema.UserMessage(userText),
		schema.AssistantMessage(reply, nil),
	)
}

// Reset drops the user's session history.
func (m *Manager) Reset(ctx context.Context, userID string) error {
	return m.store.Clear(ctx, userID)
}

// HistoryLen reports the number of stored messages for the user.
func (m *Manager) HistoryLen(ctx context.Context, userID string) (int, error) {
	return m.store.Len(ctx, userID)
}
