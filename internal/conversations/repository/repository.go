package repository

import (
	"context"
	"errors"
	"time"

	"convoscore_backend/internal/conversations/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("conversation not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateConversationParams contains the parameters for registering a conversation.
type CreateConversationParams struct {
	OrganizationID     uuid.UUID
	ConsumerName       string
	ConsumerPhone      string
	AssignedAgentEmail *string
	AssignedAgentPhone *string
}

func (r *Repository) CreateConversation(ctx context.Context, params CreateConversationParams) (domain.Conversation, error) {
	var conv domain.Conversation
	err := r.pool.QueryRow(ctx, `
		INSERT INTO conversations (organization_id, consumer_name, consumer_phone, assigned_agent_email, assigned_agent_phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, organization_id, consumer_name, consumer_phone, assigned_agent_email, assigned_agent_phone, created_at, updated_at
	`,
		params.OrganizationID, params.ConsumerName, params.ConsumerPhone, params.AssignedAgentEmail, params.AssignedAgentPhone,
	).Scan(
		&conv.ID, &conv.OrganizationID, &conv.ConsumerName, &conv.ConsumerPhone,
		&conv.AssignedAgentEmail, &conv.AssignedAgentPhone, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err != nil {
		return domain.Conversation{}, err
	}
	return conv, nil
}

func (r *Repository) GetConversation(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Conversation, error) {
	var conv domain.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id, organization_id, consumer_name, consumer_phone, assigned_agent_email, assigned_agent_phone, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND organization_id = $2
	`, id, organizationID).Scan(
		&conv.ID, &conv.OrganizationID, &conv.ConsumerName, &conv.ConsumerPhone,
		&conv.AssignedAgentEmail, &conv.AssignedAgentPhone, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Conversation{}, ErrNotFound
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	return conv, nil
}

// GetConversationByID looks a conversation up without tenant scoping.
// Background workers resolve the organization from the row itself.
func (r *Repository) GetConversationByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	var conv domain.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id, organization_id, consumer_name, consumer_phone, assigned_agent_email, assigned_agent_phone, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`, id).Scan(
		&conv.ID, &conv.OrganizationID, &conv.ConsumerName, &conv.ConsumerPhone,
		&conv.AssignedAgentEmail, &conv.AssignedAgentPhone, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Conversation{}, ErrNotFound
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	return conv, nil
}

// ListConversationIDs pages conversation ids by keyset for batch jobs.
// Pass uuid.Nil to start from the beginning.
func (r *Repository) ListConversationIDs(ctx context.Context, afterID uuid.UUID, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id
		FROM conversations
		WHERE id > $1
		ORDER BY id ASC
		LIMIT $2
	`, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0, limit)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return ids, nil
}

// InsertMessageParams contains the parameters for appending a message to a conversation.
type InsertMessageParams struct {
	ConversationID uuid.UUID
	SenderRole     domain.SenderRole
	SentAt         *time.Time
	TextContent    *string
	MediaURL       *string
}

func (r *Repository) InsertMessage(ctx context.Context, params InsertMessageParams) (domain.Message, error) {
	var msg domain.Message
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, sender_role, sent_at, text_content, media_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, conversation_id, sender_role, sent_at, text_content, media_url, created_at
	`,
		params.ConversationID, params.SenderRole, params.SentAt, params.TextContent, params.MediaURL,
	).Scan(
		&msg.ID, &msg.ConversationID, &msg.SenderRole, &msg.SentAt, &msg.TextContent, &msg.MediaURL, &msg.CreatedAt,
	)
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// ListMessages returns the full history ordered by sent_at, messages
// without a timestamp last. Insertion order breaks ties so the
// response-time walk sees a stable sequence.
func (r *Repository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, sender_role, sent_at, text_content, media_url, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY sent_at ASC NULLS LAST, created_at ASC
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderRole, &msg.SentAt, &msg.TextContent, &msg.MediaURL, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return messages, nil
}
