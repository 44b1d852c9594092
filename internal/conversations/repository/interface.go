package repository

import (
	"context"

	"convoscore_backend/internal/conversations/domain"

	"github.com/google/uuid"
)

// ConversationReader provides read-only access to conversations and
// their message history.
type ConversationReader interface {
	GetConversation(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Conversation, error)
	GetConversationByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error)
	ListConversationIDs(ctx context.Context, afterID uuid.UUID, limit int) ([]uuid.UUID, error)
}

// ConversationWriter registers conversations and appends messages.
type ConversationWriter interface {
	CreateConversation(ctx context.Context, params CreateConversationParams) (domain.Conversation, error)
	InsertMessage(ctx context.Context, params InsertMessageParams) (domain.Message, error)
}

// MetricsStore persists and reads computed metrics snapshots.
type MetricsStore interface {
	UpsertMetrics(ctx context.Context, metrics domain.ConversationMetrics) error
	GetMetrics(ctx context.Context, conversationID uuid.UUID, organizationID uuid.UUID) (domain.ConversationMetrics, error)
	ListScored(ctx context.Context, organizationID uuid.UUID, params ListScoredParams) ([]ScoredConversation, int, error)
	ListScoredConversationIDs(ctx context.Context, afterID uuid.UUID, limit int) ([]uuid.UUID, error)
}

// Store is the full persistence surface the conversations service needs.
type Store interface {
	ConversationReader
	ConversationWriter
	MetricsStore
}

var _ Store = (*Repository)(nil)
