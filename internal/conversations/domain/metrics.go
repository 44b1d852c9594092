package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConversationMetrics is the derived per-conversation snapshot.
// Nil means "insufficient data", never zero: a conversation with no
// measured lead response has LeadAvgResponseTimeMs == nil, not 0, so a
// missing measurement can never read as an instant reply.
type ConversationMetrics struct {
	ConversationID         uuid.UUID
	OrganizationID         uuid.UUID
	LeadAvgResponseTimeMs  *int64
	AgentAvgResponseTimeMs *int64
	LeadFastestResponseMs  *int64
	MessagesFromLead       int
	MessagesFromAgent      int
	TotalMessages          int
	MediaShared            int
	AvgMessageLength       *int
	ConversationDurationMs *int64
	BasicLeadScore         *int
	LastLeadMessageAt      *time.Time
	LastAgentMessageAt     *time.Time
	ComputedAt             time.Time
}

// Tier is the coarse triage bucket derived from the numeric score.
type Tier string

const (
	TierHot      Tier = "HOT"
	TierWarm     Tier = "WARM"
	TierCold     Tier = "COLD"
	TierInactive Tier = "INACTIVE"
)

// ScoreFactors holds the four independent sub-scores, each in [0, 25].
// Sub-scores may be fractional (the engagement ratio falloff is linear);
// only the summed total is rounded.
type ScoreFactors struct {
	Engagement     float64 `json:"engagementScore"`
	ResponseSpeed  float64 `json:"responseSpeed"`
	ContentQuality float64 `json:"contentQuality"`
	Recency        float64 `json:"recency"`
}

// LeadScoreResult is the scoring output. Only Score is persisted (onto
// ConversationMetrics.BasicLeadScore); factors and tier are re-derived
// from stored metrics on demand.
type LeadScoreResult struct {
	Score   int          `json:"score"`
	Factors ScoreFactors `json:"factors"`
	Tier    Tier         `json:"tier"`
}
