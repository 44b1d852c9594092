package transport

import (
	"time"

	"github.com/google/uuid"
)

// Conversations

type CreateConversationRequest struct {
	ConsumerName       string  `json:"consumerName" validate:"required,min=1,max=200"`
	ConsumerPhone      string  `json:"consumerPhone" validate:"required,min=5,max=32"`
	AssignedAgentEmail *string `json:"assignedAgentEmail,omitempty" validate:"omitempty,email"`
	AssignedAgentPhone *string `json:"assignedAgentPhone,omitempty" validate:"omitempty,min=5,max=32"`
}

type ConversationResponse struct {
	ID                 uuid.UUID `json:"id"`
	ConsumerName       string    `json:"consumerName"`
	ConsumerPhone      string    `json:"consumerPhone"`
	AssignedAgentEmail *string   `json:"assignedAgentEmail,omitempty"`
	AssignedAgentPhone *string   `json:"assignedAgentPhone,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Messages

type RecordMessageRequest struct {
	SenderRole  string     `json:"senderRole" validate:"required,oneof=LEAD AGENT_HUMAN AGENT_AUTOMATED SYSTEM"`
	SentAt      *time.Time `json:"sentAt,omitempty"`
	TextContent *string    `json:"textContent,omitempty" validate:"omitempty,max=10000"`
	MediaURL    *string    `json:"mediaUrl,omitempty" validate:"omitempty,url,max=2048"`
}

type MessageResponse struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversationId"`
	SenderRole     string     `json:"senderRole"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
	TextContent    *string    `json:"textContent,omitempty"`
	MediaURL       *string    `json:"mediaUrl,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type MessageListResponse struct {
	Items []MessageResponse `json:"items"`
	Total int               `json:"total"`
}

// Metrics and scoring

type MetricsResponse struct {
	ConversationID         uuid.UUID  `json:"conversationId"`
	LeadAvgResponseTimeMs  *int64     `json:"leadAvgResponseTimeMs"`
	AgentAvgResponseTimeMs *int64     `json:"agentAvgResponseTimeMs"`
	LeadFastestResponseMs  *int64     `json:"leadFastestResponseMs"`
	MessagesFromLead       int        `json:"messagesFromLead"`
	MessagesFromAgent      int        `json:"messagesFromAgent"`
	TotalMessages          int        `json:"totalMessages"`
	MediaShared            int        `json:"mediaShared"`
	AvgMessageLength       *int       `json:"avgMessageLength"`
	ConversationDurationMs *int64     `json:"conversationDurationMs"`
	BasicLeadScore         *int       `json:"basicLeadScore"`
	LastLeadMessageAt      *time.Time `json:"lastLeadMessageAt"`
	LastAgentMessageAt     *time.Time `json:"lastAgentMessageAt"`
	ComputedAt             time.Time  `json:"computedAt"`
}

type ScoreFactorsResponse struct {
	Engagement     float64 `json:"engagementScore"`
	ResponseSpeed  float64 `json:"responseSpeed"`
	ContentQuality float64 `json:"contentQuality"`
	Recency        float64 `json:"recency"`
}

type ScoreResponse struct {
	ConversationID uuid.UUID            `json:"conversationId"`
	Score          int                  `json:"score"`
	Factors        ScoreFactorsResponse `json:"factors"`
	Tier           string               `json:"tier"`
	ScoredAt       time.Time            `json:"scoredAt"`
}

type RecomputeResponse struct {
	ConversationID uuid.UUID `json:"conversationId"`
	Score          int       `json:"score"`
	Tier           string    `json:"tier"`
	ComputedAt     time.Time `json:"computedAt"`
}

// Triage listing

type ListScoredRequest struct {
	Tier     string `form:"tier" validate:"omitempty,oneof=HOT WARM COLD INACTIVE"`
	MinScore *int   `form:"minScore" validate:"omitempty,min=0,max=100"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=200"`
}

type ScoredConversationResponse struct {
	ID                uuid.UUID  `json:"id"`
	ConsumerName      string     `json:"consumerName"`
	ConsumerPhone     string     `json:"consumerPhone"`
	Score             *int       `json:"score"`
	Tier              string     `json:"tier"`
	TotalMessages     int        `json:"totalMessages"`
	LastLeadMessageAt *time.Time `json:"lastLeadMessageAt,omitempty"`
	ScoredAt          time.Time  `json:"scoredAt"`
}

type ScoredListResponse struct {
	Items      []ScoredConversationResponse `json:"items"`
	Total      int                          `json:"total"`
	Page       int                          `json:"page"`
	PageSize   int                          `json:"pageSize"`
	TotalPages int                          `json:"totalPages"`
}
