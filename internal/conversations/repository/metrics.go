package repository

import (
	"context"
	"errors"
	"time"

	"convoscore_backend/internal/conversations/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UpsertMetrics replaces the metrics row for a conversation in place.
// One row per conversation; the last writer wins, including writes that
// set previously non-null columns back to null.
func (r *Repository) UpsertMetrics(ctx context.Context, metrics domain.ConversationMetrics) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO conversation_metrics (
			conversation_id, organization_id,
			lead_avg_response_time_ms, agent_avg_response_time_ms, lead_fastest_response_ms,
			messages_from_lead, messages_from_agent, total_messages, media_shared,
			avg_message_length, conversation_duration_ms, basic_lead_score,
			last_lead_message_at, last_agent_message_at, computed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (conversation_id) DO UPDATE SET
			organization_id = EXCLUDED.organization_id,
			lead_avg_response_time_ms = EXCLUDED.lead_avg_response_time_ms,
			agent_avg_response_time_ms = EXCLUDED.agent_avg_response_time_ms,
			lead_fastest_response_ms = EXCLUDED.lead_fastest_response_ms,
			messages_from_lead = EXCLUDED.messages_from_lead,
			messages_from_agent = EXCLUDED.messages_from_agent,
			total_messages = EXCLUDED.total_messages,
			media_shared = EXCLUDED.media_shared,
			avg_message_length = EXCLUDED.avg_message_length,
			conversation_duration_ms = EXCLUDED.conversation_duration_ms,
			basic_lead_score = EXCLUDED.basic_lead_score,
			last_lead_message_at = EXCLUDED.last_lead_message_at,
			last_agent_message_at = EXCLUDED.last_agent_message_at,
			computed_at = EXCLUDED.computed_at
	`,
		metrics.ConversationID, metrics.OrganizationID,
		metrics.LeadAvgResponseTimeMs, metrics.AgentAvgResponseTimeMs, metrics.LeadFastestResponseMs,
		metrics.MessagesFromLead, metrics.MessagesFromAgent, metrics.TotalMessages, metrics.MediaShared,
		metrics.AvgMessageLength, metrics.ConversationDurationMs, metrics.BasicLeadScore,
		metrics.LastLeadMessageAt, metrics.LastAgentMessageAt, metrics.ComputedAt,
	)
	return err
}

func (r *Repository) GetMetrics(ctx context.Context, conversationID uuid.UUID, organizationID uuid.UUID) (domain.ConversationMetrics, error) {
	var metrics domain.ConversationMetrics
	err := r.pool.QueryRow(ctx, `
		SELECT conversation_id, organization_id,
			lead_avg_response_time_ms, agent_avg_response_time_ms, lead_fastest_response_ms,
			messages_from_lead, messages_from_agent, total_messages, media_shared,
			avg_message_length, conversation_duration_ms, basic_lead_score,
			last_lead_message_at, last_agent_message_at, computed_at
		FROM conversation_metrics
		WHERE conversation_id = $1 AND organization_id = $2
	`, conversationID, organizationID).Scan(
		&metrics.ConversationID, &metrics.OrganizationID,
		&metrics.LeadAvgResponseTimeMs, &metrics.AgentAvgResponseTimeMs, &metrics.LeadFastestResponseMs,
		&metrics.MessagesFromLead, &metrics.MessagesFromAgent, &metrics.TotalMessages, &metrics.MediaShared,
		&metrics.AvgMessageLength, &metrics.ConversationDurationMs, &metrics.BasicLeadScore,
		&metrics.LastLeadMessageAt, &metrics.LastAgentMessageAt, &metrics.ComputedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ConversationMetrics{}, ErrNotFound
	}
	if err != nil {
		return domain.ConversationMetrics{}, err
	}
	return metrics, nil
}

// ScoredConversation is a triage row joining the conversation with its
// latest metrics snapshot.
type ScoredConversation struct {
	Conversation      domain.Conversation
	BasicLeadScore    *int
	LastLeadMessageAt *time.Time
	TotalMessages     int
	ComputedAt        time.Time
}

// ListScoredParams filters and pages the triage listing. A tier filter
// arrives as the tier's score range.
type ListScoredParams struct {
	MinScore *int
	MaxScore *int
	Limit    int
	Offset   int
}

// ListScored returns scored conversations for an organization, highest
// score first. Conversations without a metrics row are excluded.
func (r *Repository) ListScored(ctx context.Context, organizationID uuid.UUID, params ListScoredParams) ([]ScoredConversation, int, error) {
	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	minScore := 0
	if params.MinScore != nil {
		minScore = *params.MinScore
	}
	maxScore := 100
	if params.MaxScore != nil {
		maxScore = *params.MaxScore
	}

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM conversation_metrics m
		WHERE m.organization_id = $1 AND COALESCE(m.basic_lead_score, 0) BETWEEN $2 AND $3
	`, organizationID, minScore, maxScore).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.organization_id, c.consumer_name, c.consumer_phone,
			c.assigned_agent_email, c.assigned_agent_phone, c.created_at, c.updated_at,
			m.basic_lead_score, m.last_lead_message_at, m.total_messages, m.computed_at
		FROM conversation_metrics m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE m.organization_id = $1 AND COALESCE(m.basic_lead_score, 0) BETWEEN $2 AND $3
		ORDER BY m.basic_lead_score DESC NULLS LAST, m.last_lead_message_at DESC NULLS LAST
		LIMIT $4 OFFSET $5
	`, organizationID, minScore, maxScore, limit, params.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]ScoredConversation, 0, limit)
	for rows.Next() {
		var item ScoredConversation
		if err := rows.Scan(
			&item.Conversation.ID, &item.Conversation.OrganizationID, &item.Conversation.ConsumerName, &item.Conversation.ConsumerPhone,
			&item.Conversation.AssignedAgentEmail, &item.Conversation.AssignedAgentPhone, &item.Conversation.CreatedAt, &item.Conversation.UpdatedAt,
			&item.BasicLeadScore, &item.LastLeadMessageAt, &item.TotalMessages, &item.ComputedAt,
		); err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return items, total, nil
}

// ListOrganizationIDs returns every organization holding at least one
// metrics snapshot. The snapshot export fans out over these.
func (r *Repository) ListOrganizationIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT organization_id
		FROM conversation_metrics
		ORDER BY organization_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
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

// ListScoredConversationIDs pages conversation ids that already carry a
// metrics row, for the nightly rescore sweep. Keyset paged by id.
func (r *Repository) ListScoredConversationIDs(ctx context.Context, afterID uuid.UUID, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT conversation_id
		FROM conversation_metrics
		WHERE conversation_id > $1
		ORDER BY conversation_id ASC
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
