package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"convoscore_backend/internal/conversations/domain"
	"convoscore_backend/internal/conversations/insight"
	"convoscore_backend/internal/conversations/repository"
	"convoscore_backend/internal/conversations/transport"
	"convoscore_backend/internal/events"
	"convoscore_backend/platform/apperr"
	"convoscore_backend/platform/logger"
	"convoscore_backend/platform/phone"
)

// Service provides business logic for conversations: recording history,
// recomputing metrics and serving scores.
type Service struct {
	repo repository.Store
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new conversations service.
func New(repo repository.Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// CreateConversation registers a conversation for an organization.
func (s *Service) CreateConversation(ctx context.Context, tenantID uuid.UUID, req transport.CreateConversationRequest) (transport.ConversationResponse, error) {
	agentPhone := req.AssignedAgentPhone
	if agentPhone != nil {
		normalized := phone.NormalizeE164(*agentPhone)
		agentPhone = &normalized
	}

	conv, err := s.repo.CreateConversation(ctx, repository.CreateConversationParams{
		OrganizationID:     tenantID,
		ConsumerName:       req.ConsumerName,
		ConsumerPhone:      phone.NormalizeE164(req.ConsumerPhone),
		AssignedAgentEmail: req.AssignedAgentEmail,
		AssignedAgentPhone: agentPhone,
	})
	if err != nil {
		return transport.ConversationResponse{}, err
	}

	s.log.Info("conversation created", "id", conv.ID, "organizationId", conv.OrganizationID)
	return toConversationResponse(conv), nil
}

// RecordMessage appends a message to the conversation's history and
// publishes MessageRecorded so the recompute pipeline picks it up.
func (s *Service) RecordMessage(ctx context.Context, tenantID uuid.UUID, conversationID uuid.UUID, req transport.RecordMessageRequest) (transport.MessageResponse, error) {
	role := domain.SenderRole(req.SenderRole)
	if !role.Valid() {
		return transport.MessageResponse{}, apperr.Validation("unknown sender role")
	}

	if _, err := s.repo.GetConversation(ctx, conversationID, tenantID); err != nil {
		return transport.MessageResponse{}, s.mapNotFound(err)
	}

	msg, err := s.repo.InsertMessage(ctx, repository.InsertMessageParams{
		ConversationID: conversationID,
		SenderRole:     role,
		SentAt:         req.SentAt,
		TextContent:    req.TextContent,
		MediaURL:       req.MediaURL,
	})
	if err != nil {
		return transport.MessageResponse{}, err
	}

	s.bus.Publish(ctx, events.MessageRecorded{
		BaseEvent:      events.NewBaseEvent(),
		ConversationID: conversationID,
		TenantID:       tenantID,
		MessageID:      msg.ID,
		SenderRole:     string(msg.SenderRole),
		SentAt:         msg.SentAt,
	})

	return toMessageResponse(msg), nil
}

// ListMessages returns the full ordered history for a conversation.
func (s *Service) ListMessages(ctx context.Context, tenantID uuid.UUID, conversationID uuid.UUID) (transport.MessageListResponse, error) {
	if _, err := s.repo.GetConversation(ctx, conversationID, tenantID); err != nil {
		return transport.MessageListResponse{}, s.mapNotFound(err)
	}

	messages, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return transport.MessageListResponse{}, err
	}

	items := make([]transport.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		items = append(items, toMessageResponse(msg))
	}

	return transport.MessageListResponse{Items: items, Total: len(items)}, nil
}

// Recompute re-derives the metrics snapshot from the full history,
// rescores it and replaces the stored row. It publishes
// ConversationScored always and LeadTierChanged when the tier moved.
// Concurrent recomputes are safe: each writes a complete snapshot and
// the last writer wins.
func (s *Service) Recompute(ctx context.Context, conversationID uuid.UUID) (domain.ConversationMetrics, domain.LeadScoreResult, error) {
	conv, err := s.repo.GetConversationByID(ctx, conversationID)
	if err != nil {
		return domain.ConversationMetrics{}, domain.LeadScoreResult{}, s.mapNotFound(err)
	}

	messages, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return domain.ConversationMetrics{}, domain.LeadScoreResult{}, err
	}

	now := time.Now().UTC()
	metrics := insight.ExtractMetrics(conversationID, messages)
	metrics.OrganizationID = conv.OrganizationID
	metrics.ComputedAt = now

	result := insight.ScoreLead(metrics, now)
	metrics.BasicLeadScore = &result.Score

	previousTier := ""
	prev, err := s.repo.GetMetrics(ctx, conversationID, conv.OrganizationID)
	switch {
	case err == nil:
		if prev.BasicLeadScore != nil {
			previousTier = string(insight.TierFor(*prev.BasicLeadScore))
		}
	case errors.Is(err, repository.ErrNotFound):
		// first score for this conversation
	default:
		return domain.ConversationMetrics{}, domain.LeadScoreResult{}, err
	}

	if err := s.repo.UpsertMetrics(ctx, metrics); err != nil {
		return domain.ConversationMetrics{}, domain.LeadScoreResult{}, err
	}

	s.log.ScoreEvent(conversationID.String(), result.Score, string(result.Tier))

	s.bus.Publish(ctx, events.ConversationScored{
		BaseEvent:      events.NewBaseEvent(),
		ConversationID: conversationID,
		TenantID:       conv.OrganizationID,
		Score:          result.Score,
		Tier:           string(result.Tier),
		ComputedAt:     now,
	})

	if previousTier != string(result.Tier) {
		s.bus.Publish(ctx, events.LeadTierChanged{
			BaseEvent:          events.NewBaseEvent(),
			ConversationID:     conversationID,
			TenantID:           conv.OrganizationID,
			ConsumerName:       conv.ConsumerName,
			ConsumerPhone:      conv.ConsumerPhone,
			AssignedAgentEmail: conv.AssignedAgentEmail,
			AssignedAgentPhone: conv.AssignedAgentPhone,
			PreviousTier:       previousTier,
			NewTier:            string(result.Tier),
			Score:              result.Score,
		})
	}

	return metrics, result, nil
}

// RecomputeForTenant verifies tenant scope before recomputing. The HTTP
// surface uses this; background workers call Recompute directly.
func (s *Service) RecomputeForTenant(ctx context.Context, tenantID uuid.UUID, conversationID uuid.UUID) (domain.ConversationMetrics, domain.LeadScoreResult, error) {
	if _, err := s.repo.GetConversation(ctx, conversationID, tenantID); err != nil {
		return domain.ConversationMetrics{}, domain.LeadScoreResult{}, s.mapNotFound(err)
	}
	return s.Recompute(ctx, conversationID)
}

// Metrics returns the stored snapshot as last computed.
func (s *Service) Metrics(ctx context.Context, tenantID uuid.UUID, conversationID uuid.UUID) (transport.MetricsResponse, error) {
	metrics, err := s.repo.GetMetrics(ctx, conversationID, tenantID)
	if err != nil {
		return transport.MetricsResponse{}, s.mapNotFound(err)
	}
	return toMetricsResponse(metrics), nil
}

// Score rescores the stored snapshot at the current instant. Counts and
// response times come from the snapshot; the recency factor reflects
// the time of the request, so the same snapshot cools off over time.
func (s *Service) Score(ctx context.Context, tenantID uuid.UUID, conversationID uuid.UUID) (transport.ScoreResponse, error) {
	metrics, err := s.repo.GetMetrics(ctx, conversationID, tenantID)
	if err != nil {
		return transport.ScoreResponse{}, s.mapNotFound(err)
	}

	now := time.Now().UTC()
	result := insight.ScoreLead(metrics, now)

	return transport.ScoreResponse{
		ConversationID: conversationID,
		Score:          result.Score,
		Factors: transport.ScoreFactorsResponse{
			Engagement:     result.Factors.Engagement,
			ResponseSpeed:  result.Factors.ResponseSpeed,
			ContentQuality: result.Factors.ContentQuality,
			Recency:        result.Factors.Recency,
		},
		Tier:     string(result.Tier),
		ScoredAt: now,
	}, nil
}

// ListScored serves the triage listing, highest scores first.
func (s *Service) ListScored(ctx context.Context, tenantID uuid.UUID, req transport.ListScoredRequest) (transport.ScoredListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}

	params := repository.ListScoredParams{
		MinScore: req.MinScore,
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	}
	if req.Tier != "" {
		min, max := tierScoreRange(domain.Tier(req.Tier))
		params.MinScore, params.MaxScore = &min, &max
	}

	items, total, err := s.repo.ListScored(ctx, tenantID, params)
	if err != nil {
		return transport.ScoredListResponse{}, err
	}

	responses := make([]transport.ScoredConversationResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toScoredResponse(item))
	}

	totalPages := (total + pageSize - 1) / pageSize
	return transport.ScoredListResponse{
		Items:      responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// tierScoreRange maps a tier back onto its inclusive score range.
func tierScoreRange(tier domain.Tier) (int, int) {
	switch tier {
	case domain.TierHot:
		return 70, 100
	case domain.TierWarm:
		return 40, 69
	case domain.TierCold:
		return 15, 39
	default:
		return 0, 14
	}
}

func (s *Service) mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("conversation not found")
	}
	return err
}

func toConversationResponse(conv domain.Conversation) transport.ConversationResponse {
	return transport.ConversationResponse{
		ID:                 conv.ID,
		ConsumerName:       conv.ConsumerName,
		ConsumerPhone:      conv.ConsumerPhone,
		AssignedAgentEmail: conv.AssignedAgentEmail,
		AssignedAgentPhone: conv.AssignedAgentPhone,
		CreatedAt:          conv.CreatedAt,
		UpdatedAt:          conv.UpdatedAt,
	}
}

func toMessageResponse(msg domain.Message) transport.MessageResponse {
	return transport.MessageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderRole:     string(msg.SenderRole),
		SentAt:         msg.SentAt,
		TextContent:    msg.TextContent,
		MediaURL:       msg.MediaURL,
		CreatedAt:      msg.CreatedAt,
	}
}

func toMetricsResponse(metrics domain.ConversationMetrics) transport.MetricsResponse {
	return transport.MetricsResponse{
		ConversationID:         metrics.ConversationID,
		LeadAvgResponseTimeMs:  metrics.LeadAvgResponseTimeMs,
		AgentAvgResponseTimeMs: metrics.AgentAvgResponseTimeMs,
		LeadFastestResponseMs:  metrics.LeadFastestResponseMs,
		MessagesFromLead:       metrics.MessagesFromLead,
		MessagesFromAgent:      metrics.MessagesFromAgent,
		TotalMessages:          metrics.TotalMessages,
		MediaShared:            metrics.MediaShared,
		AvgMessageLength:       metrics.AvgMessageLength,
		ConversationDurationMs: metrics.ConversationDurationMs,
		BasicLeadScore:         metrics.BasicLeadScore,
		LastLeadMessageAt:      metrics.LastLeadMessageAt,
		LastAgentMessageAt:     metrics.LastAgentMessageAt,
		ComputedAt:             metrics.ComputedAt,
	}
}

func toScoredResponse(item repository.ScoredConversation) transport.ScoredConversationResponse {
	tier := string(domain.TierInactive)
	if item.BasicLeadScore != nil {
		tier = string(insight.TierFor(*item.BasicLeadScore))
	}
	return transport.ScoredConversationResponse{
		ID:                item.Conversation.ID,
		ConsumerName:      item.Conversation.ConsumerName,
		ConsumerPhone:     item.Conversation.ConsumerPhone,
		Score:             item.BasicLeadScore,
		Tier:              tier,
		TotalMessages:     item.TotalMessages,
		LastLeadMessageAt: item.LastLeadMessageAt,
		ScoredAt:          item.ComputedAt,
	}
}
