// Package domain holds the conversation bounded context's core types.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// SenderRole classifies who produced a message.
type SenderRole string

const (
	// SenderLead is the prospective customer.
	SenderLead SenderRole = "LEAD"
	// SenderAgentHuman is a human agent on the organization side.
	SenderAgentHuman SenderRole = "AGENT_HUMAN"
	// SenderAgentAutomated is an automated responder on the organization side.
	// Metric computation treats it identically to SenderAgentHuman; the
	// distinction exists for upstream bookkeeping only.
	SenderAgentAutomated SenderRole = "AGENT_AUTOMATED"
	// SenderSystem marks channel/system notices. Counted in totals but
	// excluded from response-time and content computation.
	SenderSystem SenderRole = "SYSTEM"
)

// IsAgent reports whether the role belongs to the organization side.
func (r SenderRole) IsAgent() bool {
	return r == SenderAgentHuman || r == SenderAgentAutomated
}

// Valid reports whether the role is one of the known values.
func (r SenderRole) Valid() bool {
	switch r {
	case SenderLead, SenderAgentHuman, SenderAgentAutomated, SenderSystem:
		return true
	}
	return false
}

// Message is one inbound or outbound message in a conversation.
// SentAt may be nil for malformed channel records; such messages are
// excluded from time-based calculations but still counted.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	SenderRole     SenderRole
	SentAt         *time.Time
	TextContent    *string
	MediaURL       *string
	CreatedAt      time.Time
}

// Conversation is the aggregate root: one thread with one lead.
type Conversation struct {
	ID                 uuid.UUID
	OrganizationID     uuid.UUID
	ConsumerName       string
	ConsumerPhone      string
	AssignedAgentEmail *string
	AssignedAgentPhone *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
