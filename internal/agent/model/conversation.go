package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ConversationStore is the per-user session history contract. History lives
// for the process lifetime at most; there is deliberately no durable
// backing store.
type ConversationStore interface {
	// History returns a copy of the stored turns for the user, oldest first.
	History(ctx context.Context, userID string) ([]*schema.Message, error)

	// AppendExchange appends one (user, assistant) pair atomically and
	// evicts the oldest turns beyond the configured cap. Concurrent
	// exchanges for the same user never interleave their pairs.
	AppendExchange(ctx context.Context, userID string, user, assistant *schema.Message) error

	// Clear removes all history for the user, keeping no trace.
	Clear(ctx context.Context, userID string) error

	// Len returns the number of stored messages for the user.
	Len(ctx context.Context, userID string) (int, error)
}
