package notification

import (
	"context"
	"testing"

	"convoscore_backend/internal/events"
	"convoscore_backend/platform/logger"

	"github.com/google/uuid"
)

type testSender struct {
	calls   int
	toEmail string
	tier    string
	score   int
}

func (s *testSender) SendTierAlertEmail(_ context.Context, toEmail, _, _, tier string, score int) error {
	s.calls++
	s.toEmail = toEmail
	s.tier = tier
	s.score = score
	return nil
}

type testWhatsApp struct {
	calls int
	phone string
}

func (w *testWhatsApp) SendMessage(_ context.Context, phoneNumber string, _ string) error {
	w.calls++
	w.phone = phoneNumber
	return nil
}

func tierEvent(newTier string) events.LeadTierChanged {
	agentEmail := "agent@example.com"
	agentPhone := "+31687654321"
	return events.LeadTierChanged{
		BaseEvent:          events.NewBaseEvent(),
		ConversationID:     uuid.New(),
		TenantID:           uuid.New(),
		ConsumerName:       "Jane Jansen",
		ConsumerPhone:      "+31612345678",
		AssignedAgentEmail: &agentEmail,
		AssignedAgentPhone: &agentPhone,
		PreviousTier:       "WARM",
		NewTier:            newTier,
		Score:              82,
	}
}

func TestHandleTierChangedAlertsOnHot(t *testing.T) {
	sender := &testSender{}
	whatsapp := &testWhatsApp{}
	m := New(sender, whatsapp, logger.New("development"))

	if err := m.Handle(context.Background(), tierEvent("HOT")); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if sender.calls != 1 {
		t.Fatalf("expected 1 email, got %d", sender.calls)
	}
	if sender.toEmail != "agent@example.com" || sender.tier != "HOT" || sender.score != 82 {
		t.Fatalf("unexpected email call: %+v", sender)
	}
	if whatsapp.calls != 1 {
		t.Fatalf("expected 1 whatsapp message, got %d", whatsapp.calls)
	}
	if whatsapp.phone != "+31687654321" {
		t.Fatalf("expected agent phone, got %s", whatsapp.phone)
	}
}

func TestHandleTierChangedIgnoresCoolingTransitions(t *testing.T) {
	sender := &testSender{}
	whatsapp := &testWhatsApp{}
	m := New(sender, whatsapp, logger.New("development"))

	for _, tier := range []string{"WARM", "COLD", "INACTIVE"} {
		if err := m.Handle(context.Background(), tierEvent(tier)); err != nil {
			t.Fatalf("Handle(%s) failed: %v", tier, err)
		}
	}

	if sender.calls != 0 || whatsapp.calls != 0 {
		t.Fatalf("expected no alerts for non-HOT tiers, got email=%d whatsapp=%d", sender.calls, whatsapp.calls)
	}
}

func TestHandleTierChangedWithoutAgentContact(t *testing.T) {
	sender := &testSender{}
	m := New(sender, nil, logger.New("development"))

	event := tierEvent("HOT")
	event.AssignedAgentEmail = nil
	event.AssignedAgentPhone = nil

	if err := m.Handle(context.Background(), event); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if sender.calls != 0 {
		t.Fatalf("expected no email without agent address, got %d", sender.calls)
	}
}
