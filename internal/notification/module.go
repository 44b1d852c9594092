// Package notification turns scoring events into agent alerts. It
// subscribes to the event bus and inverts the dependency: the scoring
// pipeline never needs to know about mail servers or chat gateways.
package notification

import (
	"context"
	"fmt"

	"convoscore_backend/internal/email"
	"convoscore_backend/internal/events"
	"convoscore_backend/platform/logger"

	"github.com/hashicorp/go-multierror"
)

// WhatsAppSender sends WhatsApp messages. A nil implementation value
// disables the channel.
type WhatsAppSender interface {
	SendMessage(ctx context.Context, phoneNumber string, message string) error
}

// Module fans LeadTierChanged events out to the assigned agent.
type Module struct {
	sender   email.Sender
	whatsapp WhatsAppSender
	log      *logger.Logger
}

// New creates the notification module. whatsapp may be nil.
func New(sender email.Sender, whatsapp WhatsAppSender, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{sender: sender, whatsapp: whatsapp, log: log}
}

// RegisterHandlers subscribes the module to scoring events.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.LeadTierChanged{}.EventName(), m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadTierChanged:
		return m.handleTierChanged(ctx, e)
	default:
		return nil
	}
}

// handleTierChanged alerts the assigned agent when a conversation heats
// up to HOT. Cooling transitions stay quiet.
func (m *Module) handleTierChanged(ctx context.Context, event events.LeadTierChanged) error {
	if event.NewTier != "HOT" {
		return nil
	}

	var result *multierror.Error

	if event.AssignedAgentEmail != nil && *event.AssignedAgentEmail != "" {
		err := m.sender.SendTierAlertEmail(ctx, *event.AssignedAgentEmail, event.ConsumerName, event.ConsumerPhone, event.NewTier, event.Score)
		if err != nil {
			m.log.Error("tier alert email failed", "conversationId", event.ConversationID, "error", err)
			result = multierror.Append(result, err)
		}
	}

	if m.whatsapp != nil && event.AssignedAgentPhone != nil && *event.AssignedAgentPhone != "" {
		message := fmt.Sprintf("Lead %s (%s) is nu HOT met score %d. Reageer snel!", event.ConsumerName, event.ConsumerPhone, event.Score)
		if err := m.whatsapp.SendMessage(ctx, *event.AssignedAgentPhone, message); err != nil {
			m.log.Error("tier alert whatsapp failed", "conversationId", event.ConversationID, "error", err)
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}
