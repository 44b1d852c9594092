package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"convoscore_backend/internal/conversations/domain"
	"convoscore_backend/internal/conversations/repository"
	"convoscore_backend/internal/conversations/transport"
	"convoscore_backend/internal/events"
	"convoscore_backend/platform/apperr"
	"convoscore_backend/platform/logger"
)

type fakeStore struct {
	conversations map[uuid.UUID]domain.Conversation
	messages      map[uuid.UUID][]domain.Message
	metrics       map[uuid.UUID]domain.ConversationMetrics

	lastListScored repository.ListScoredParams
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: make(map[uuid.UUID]domain.Conversation),
		messages:      make(map[uuid.UUID][]domain.Message),
		metrics:       make(map[uuid.UUID]domain.ConversationMetrics),
	}
}

func (f *fakeStore) CreateConversation(_ context.Context, params repository.CreateConversationParams) (domain.Conversation, error) {
	conv := domain.Conversation{
		ID:                 uuid.New(),
		OrganizationID:     params.OrganizationID,
		ConsumerName:       params.ConsumerName,
		ConsumerPhone:      params.ConsumerPhone,
		AssignedAgentEmail: params.AssignedAgentEmail,
		AssignedAgentPhone: params.AssignedAgentPhone,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	f.conversations[conv.ID] = conv
	return conv, nil
}

func (f *fakeStore) GetConversation(_ context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Conversation, error) {
	conv, ok := f.conversations[id]
	if !ok || conv.OrganizationID != organizationID {
		return domain.Conversation{}, repository.ErrNotFound
	}
	return conv, nil
}

func (f *fakeStore) GetConversationByID(_ context.Context, id uuid.UUID) (domain.Conversation, error) {
	conv, ok := f.conversations[id]
	if !ok {
		return domain.Conversation{}, repository.ErrNotFound
	}
	return conv, nil
}

func (f *fakeStore) ListConversationIDs(_ context.Context, _ uuid.UUID, _ int) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeStore) InsertMessage(_ context.Context, params repository.InsertMessageParams) (domain.Message, error) {
	msg := domain.Message{
		ID:             uuid.New(),
		ConversationID: params.ConversationID,
		SenderRole:     params.SenderRole,
		SentAt:         params.SentAt,
		TextContent:    params.TextContent,
		MediaURL:       params.MediaURL,
		CreatedAt:      time.Now(),
	}
	f.messages[params.ConversationID] = append(f.messages[params.ConversationID], msg)
	return msg, nil
}

func (f *fakeStore) ListMessages(_ context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	return f.messages[conversationID], nil
}

func (f *fakeStore) UpsertMetrics(_ context.Context, metrics domain.ConversationMetrics) error {
	f.metrics[metrics.ConversationID] = metrics
	return nil
}

func (f *fakeStore) GetMetrics(_ context.Context, conversationID uuid.UUID, organizationID uuid.UUID) (domain.ConversationMetrics, error) {
	metrics, ok := f.metrics[conversationID]
	if !ok || metrics.OrganizationID != organizationID {
		return domain.ConversationMetrics{}, repository.ErrNotFound
	}
	return metrics, nil
}

func (f *fakeStore) ListScored(_ context.Context, _ uuid.UUID, params repository.ListScoredParams) ([]repository.ScoredConversation, int, error) {
	f.lastListScored = params
	return nil, 0, nil
}

func (f *fakeStore) ListScoredConversationIDs(_ context.Context, _ uuid.UUID, _ int) ([]uuid.UUID, error) {
	return nil, nil
}

// recordingBus captures published events synchronously.
type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) byName(name string) []events.Event {
	var matched []events.Event
	for _, e := range b.published {
		if e.EventName() == name {
			matched = append(matched, e)
		}
	}
	return matched
}

func newTestService(t *testing.T) (*Service, *fakeStore, *recordingBus) {
	t.Helper()
	store := newFakeStore()
	bus := &recordingBus{}
	return New(store, bus, logger.New("test")), store, bus
}

func seedConversation(store *fakeStore, tenantID uuid.UUID) domain.Conversation {
	conv := domain.Conversation{
		ID:             uuid.New(),
		OrganizationID: tenantID,
		ConsumerName:   "Jane Jansen",
		ConsumerPhone:  "+31612345678",
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	store.conversations[conv.ID] = conv
	return conv
}

func TestRecordMessagePublishesEvent(t *testing.T) {
	svc, store, bus := newTestService(t)
	tenantID := uuid.New()
	conv := seedConversation(store, tenantID)

	sentAt := time.Now().Add(-time.Minute)
	text := "hello, I am interested"
	resp, err := svc.RecordMessage(context.Background(), tenantID, conv.ID, transport.RecordMessageRequest{
		SenderRole:  "LEAD",
		SentAt:      &sentAt,
		TextContent: &text,
	})
	if err != nil {
		t.Fatalf("RecordMessage failed: %v", err)
	}
	if resp.SenderRole != "LEAD" {
		t.Fatalf("expected sender role LEAD, got %s", resp.SenderRole)
	}
	if len(store.messages[conv.ID]) != 1 {
		t.Fatalf("expected 1 stored message, got %d", len(store.messages[conv.ID]))
	}

	recorded := bus.byName(events.MessageRecorded{}.EventName())
	if len(recorded) != 1 {
		t.Fatalf("expected 1 MessageRecorded event, got %d", len(recorded))
	}
	event := recorded[0].(events.MessageRecorded)
	if event.ConversationID != conv.ID || event.TenantID != tenantID {
		t.Fatalf("event carries wrong ids: %+v", event)
	}
}

func TestRecordMessageUnknownConversation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.RecordMessage(context.Background(), uuid.New(), uuid.New(), transport.RecordMessageRequest{
		SenderRole: "LEAD",
	})
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not-found kind, got %v", err)
	}
}

func TestRecordMessageRejectsUnknownRole(t *testing.T) {
	svc, store, _ := newTestService(t)
	tenantID := uuid.New()
	conv := seedConversation(store, tenantID)

	_, err := svc.RecordMessage(context.Background(), tenantID, conv.ID, transport.RecordMessageRequest{
		SenderRole: "CHATBOT",
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation kind, got %v", err)
	}
}

func TestRecordMessageTenantIsolation(t *testing.T) {
	svc, store, _ := newTestService(t)
	conv := seedConversation(store, uuid.New())

	_, err := svc.RecordMessage(context.Background(), uuid.New(), conv.ID, transport.RecordMessageRequest{
		SenderRole: "LEAD",
	})
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not-found for foreign tenant, got %v", err)
	}
}

func TestRecomputeStoresSnapshotAndPublishes(t *testing.T) {
	svc, store, bus := newTestService(t)
	tenantID := uuid.New()
	conv := seedConversation(store, tenantID)

	base := time.Now().Add(-time.Hour)
	text := "I would like a quote for the whole roof, including gutters"
	for i, role := range []domain.SenderRole{domain.SenderAgentHuman, domain.SenderLead, domain.SenderAgentHuman, domain.SenderLead} {
		sentAt := base.Add(time.Duration(i) * 2 * time.Minute)
		store.messages[conv.ID] = append(store.messages[conv.ID], domain.Message{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			SenderRole:     role,
			SentAt:         &sentAt,
			TextContent:    &text,
			CreatedAt:      sentAt,
		})
	}

	metrics, result, err := svc.Recompute(context.Background(), conv.ID)
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if metrics.BasicLeadScore == nil || *metrics.BasicLeadScore != result.Score {
		t.Fatalf("stored score %v does not match result %d", metrics.BasicLeadScore, result.Score)
	}
	if metrics.OrganizationID != tenantID {
		t.Fatalf("expected organization %s, got %s", tenantID, metrics.OrganizationID)
	}

	stored, ok := store.metrics[conv.ID]
	if !ok {
		t.Fatal("expected metrics row upserted")
	}
	if stored.TotalMessages != 4 || stored.MessagesFromLead != 2 {
		t.Fatalf("unexpected stored counts: %+v", stored)
	}

	if got := bus.byName(events.ConversationScored{}.EventName()); len(got) != 1 {
		t.Fatalf("expected 1 ConversationScored event, got %d", len(got))
	}
	// First score always moves the tier off the empty state.
	if got := bus.byName(events.LeadTierChanged{}.EventName()); len(got) != 1 {
		t.Fatalf("expected 1 LeadTierChanged event, got %d", len(got))
	}
}

func TestRecomputeStableTierPublishesNoChange(t *testing.T) {
	svc, store, bus := newTestService(t)
	tenantID := uuid.New()
	conv := seedConversation(store, tenantID)

	sentAt := time.Now().Add(-10 * time.Minute)
	store.messages[conv.ID] = append(store.messages[conv.ID], domain.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderRole:     domain.SenderLead,
		SentAt:         &sentAt,
		CreatedAt:      sentAt,
	})

	if _, _, err := svc.Recompute(context.Background(), conv.ID); err != nil {
		t.Fatalf("first recompute failed: %v", err)
	}
	if _, _, err := svc.Recompute(context.Background(), conv.ID); err != nil {
		t.Fatalf("second recompute failed: %v", err)
	}

	if got := bus.byName(events.LeadTierChanged{}.EventName()); len(got) != 1 {
		t.Fatalf("expected a single tier change from the first score, got %d", len(got))
	}
	if got := bus.byName(events.ConversationScored{}.EventName()); len(got) != 2 {
		t.Fatalf("expected 2 ConversationScored events, got %d", len(got))
	}
}

func TestRecomputeReplacesPreviousSnapshot(t *testing.T) {
	svc, store, _ := newTestService(t)
	tenantID := uuid.New()
	conv := seedConversation(store, tenantID)

	sentAt := time.Now().Add(-5 * time.Minute)
	store.messages[conv.ID] = []domain.Message{{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderRole:     domain.SenderLead,
		SentAt:         &sentAt,
		CreatedAt:      sentAt,
	}}

	stale := int64(99999)
	score := 80
	store.metrics[conv.ID] = domain.ConversationMetrics{
		ConversationID:        conv.ID,
		OrganizationID:        tenantID,
		LeadAvgResponseTimeMs: &stale,
		TotalMessages:         42,
		BasicLeadScore:        &score,
		ComputedAt:            time.Now().Add(-time.Hour),
	}

	metrics, _, err := svc.Recompute(context.Background(), conv.ID)
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}

	// A single lead message yields no response samples: the stale
	// non-null average must be overwritten with null, not retained.
	if metrics.LeadAvgResponseTimeMs != nil {
		t.Fatalf("expected stale average replaced with null, got %v", *metrics.LeadAvgResponseTimeMs)
	}
	if stored := store.metrics[conv.ID]; stored.TotalMessages != 1 {
		t.Fatalf("expected snapshot replaced in place, got %+v", stored)
	}
}

func TestScoreUsesRequestClock(t *testing.T) {
	svc, store, _ := newTestService(t)
	tenantID := uuid.New()
	conv := seedConversation(store, tenantID)

	lastLead := time.Now().Add(-40 * 24 * time.Hour)
	score := 55
	store.metrics[conv.ID] = domain.ConversationMetrics{
		ConversationID:   conv.ID,
		OrganizationID:   tenantID,
		MessagesFromLead: 3,
		TotalMessages:    5,
		// snapshot scored weeks ago while the lead was active
		BasicLeadScore:    &score,
		LastLeadMessageAt: &lastLead,
		ComputedAt:        lastLead,
	}

	resp, err := svc.Score(context.Background(), tenantID, conv.ID)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if resp.Factors.Recency != 0 {
		t.Fatalf("expected recency decayed to 0, got %v", resp.Factors.Recency)
	}
	if resp.Score >= *store.metrics[conv.ID].BasicLeadScore {
		t.Fatalf("expected live score below stale stored score, got %d", resp.Score)
	}
}

func TestListScoredTierFilter(t *testing.T) {
	svc, store, _ := newTestService(t)

	_, err := svc.ListScored(context.Background(), uuid.New(), transport.ListScoredRequest{Tier: "HOT"})
	if err != nil {
		t.Fatalf("ListScored failed: %v", err)
	}

	params := store.lastListScored
	if params.MinScore == nil || *params.MinScore != 70 {
		t.Fatalf("expected min score 70 for HOT, got %v", params.MinScore)
	}
	if params.MaxScore == nil || *params.MaxScore != 100 {
		t.Fatalf("expected max score 100 for HOT, got %v", params.MaxScore)
	}
}
