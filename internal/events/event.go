// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"convoscore_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Conversation Domain Events
// =============================================================================

// MessageRecorded is published when a message is appended to a
// conversation's history.
type MessageRecorded struct {
	BaseEvent
	ConversationID uuid.UUID  `json:"conversationId"`
	TenantID       uuid.UUID  `json:"tenantId"`
	MessageID      uuid.UUID  `json:"messageId"`
	SenderRole     string     `json:"senderRole"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
}

func (e MessageRecorded) EventName() string { return "conversations.message.recorded" }

// ConversationScored is published after a recompute persists a fresh
// metrics snapshot.
type ConversationScored struct {
	BaseEvent
	ConversationID uuid.UUID `json:"conversationId"`
	TenantID       uuid.UUID `json:"tenantId"`
	Score          int       `json:"score"`
	Tier           string    `json:"tier"`
	ComputedAt     time.Time `json:"computedAt"`
}

func (e ConversationScored) EventName() string { return "conversations.scored" }

// LeadTierChanged is published when a recompute moves a conversation
// into a different tier than its previous snapshot.
type LeadTierChanged struct {
	BaseEvent
	ConversationID     uuid.UUID `json:"conversationId"`
	TenantID           uuid.UUID `json:"tenantId"`
	ConsumerName       string    `json:"consumerName"`
	ConsumerPhone      string    `json:"consumerPhone"`
	AssignedAgentEmail *string   `json:"assignedAgentEmail,omitempty"`
	AssignedAgentPhone *string   `json:"assignedAgentPhone,omitempty"`
	PreviousTier       string    `json:"previousTier,omitempty"`
	NewTier            string    `json:"newTier"`
	Score              int       `json:"score"`
}

func (e LeadTierChanged) EventName() string { return "conversations.tier.changed" }
