package insight

import (
	"reflect"
	"testing"
	"time"

	"convoscore_backend/internal/conversations/domain"

	"github.com/google/uuid"
)

var testBase = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func at(offsetMs int64) *time.Time {
	ts := testBase.Add(time.Duration(offsetMs) * time.Millisecond)
	return &ts
}

func msg(role domain.SenderRole, sentAt *time.Time) domain.Message {
	return domain.Message{
		ID:         uuid.New(),
		SenderRole: role,
		SentAt:     sentAt,
	}
}

func text(value string) *string {
	return &value
}

func TestExtractMetricsEmptyHistory(t *testing.T) {
	conversationID := uuid.New()
	metrics := ExtractMetrics(conversationID, nil)

	if metrics.ConversationID != conversationID {
		t.Fatalf("expected conversation id %s, got %s", conversationID, metrics.ConversationID)
	}
	if metrics.TotalMessages != 0 || metrics.MessagesFromLead != 0 || metrics.MessagesFromAgent != 0 || metrics.MediaShared != 0 {
		t.Fatalf("expected zero counts, got %+v", metrics)
	}
	if metrics.LeadAvgResponseTimeMs != nil || metrics.AgentAvgResponseTimeMs != nil || metrics.LeadFastestResponseMs != nil {
		t.Fatalf("expected nil response times, got %+v", metrics)
	}
	if metrics.AvgMessageLength != nil || metrics.ConversationDurationMs != nil {
		t.Fatalf("expected nil content/duration, got %+v", metrics)
	}
	if metrics.LastLeadMessageAt != nil || metrics.LastAgentMessageAt != nil {
		t.Fatalf("expected nil last-activity timestamps, got %+v", metrics)
	}
}

func TestExtractMetricsResponseTimePairing(t *testing.T) {
	messages := []domain.Message{
		msg(domain.SenderAgentHuman, at(0)),
		msg(domain.SenderLead, at(60000)),
		msg(domain.SenderAgentHuman, at(90000)),
	}

	metrics := ExtractMetrics(uuid.New(), messages)

	if metrics.LeadAvgResponseTimeMs == nil || *metrics.LeadAvgResponseTimeMs != 60000 {
		t.Fatalf("expected lead avg 60000, got %v", metrics.LeadAvgResponseTimeMs)
	}
	if metrics.LeadFastestResponseMs == nil || *metrics.LeadFastestResponseMs != 60000 {
		t.Fatalf("expected lead fastest 60000, got %v", metrics.LeadFastestResponseMs)
	}
	if metrics.AgentAvgResponseTimeMs == nil || *metrics.AgentAvgResponseTimeMs != 30000 {
		t.Fatalf("expected agent avg 30000, got %v", metrics.AgentAvgResponseTimeMs)
	}
}

func TestExtractMetricsOutlierGuard(t *testing.T) {
	eightDaysMs := int64(8 * 24 * 3600 * 1000)
	messages := []domain.Message{
		msg(domain.SenderLead, at(0)),
		msg(domain.SenderAgentHuman, at(eightDaysMs)),
	}

	metrics := ExtractMetrics(uuid.New(), messages)

	if metrics.AgentAvgResponseTimeMs != nil {
		t.Fatalf("expected >7 day pair discarded, got %v", *metrics.AgentAvgResponseTimeMs)
	}
	// The outlier guard applies to the response samples only; duration
	// still spans first to last timestamped message.
	if metrics.ConversationDurationMs == nil || *metrics.ConversationDurationMs != eightDaysMs {
		t.Fatalf("expected duration %d, got %v", eightDaysMs, metrics.ConversationDurationMs)
	}
}

func TestExtractMetricsDefensiveSort(t *testing.T) {
	ordered := []domain.Message{
		msg(domain.SenderAgentHuman, at(0)),
		msg(domain.SenderLead, at(60000)),
		msg(domain.SenderAgentHuman, at(90000)),
	}
	shuffled := []domain.Message{ordered[2], ordered[0], ordered[1]}

	got := ExtractMetrics(uuid.Nil, shuffled)
	want := ExtractMetrics(uuid.Nil, ordered)

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("extraction is order-sensitive: got %+v, want %+v", got, want)
	}
}

func TestExtractMetricsCountIdentity(t *testing.T) {
	messages := []domain.Message{
		msg(domain.SenderLead, at(0)),
		msg(domain.SenderSystem, at(1000)),
		msg(domain.SenderAgentAutomated, at(2000)),
		msg(domain.SenderSystem, nil),
		msg(domain.SenderAgentHuman, at(3000)),
		msg(domain.SenderLead, nil),
	}

	metrics := ExtractMetrics(uuid.New(), messages)

	if metrics.TotalMessages != 6 {
		t.Fatalf("expected 6 total, got %d", metrics.TotalMessages)
	}
	if metrics.MessagesFromLead != 2 {
		t.Fatalf("expected 2 lead messages, got %d", metrics.MessagesFromLead)
	}
	if metrics.MessagesFromAgent != 2 {
		t.Fatalf("expected 2 agent messages, got %d", metrics.MessagesFromAgent)
	}
	systemCount := metrics.TotalMessages - metrics.MessagesFromLead - metrics.MessagesFromAgent
	if systemCount != 2 {
		t.Fatalf("expected 2 system messages, got %d", systemCount)
	}
}

func TestExtractMetricsSystemBreaksPairing(t *testing.T) {
	messages := []domain.Message{
		msg(domain.SenderAgentHuman, at(0)),
		msg(domain.SenderSystem, at(30000)),
		msg(domain.SenderLead, at(60000)),
	}

	metrics := ExtractMetrics(uuid.New(), messages)

	// agent -> system and system -> lead are not cross-party pairs.
	if metrics.LeadAvgResponseTimeMs != nil {
		t.Fatalf("expected no lead sample across system message, got %v", *metrics.LeadAvgResponseTimeMs)
	}
}

func TestExtractMetricsMissingTimestampsSkipPairsButCount(t *testing.T) {
	messages := []domain.Message{
		msg(domain.SenderAgentHuman, at(0)),
		msg(domain.SenderLead, nil),
		msg(domain.SenderAgentHuman, at(90000)),
	}

	metrics := ExtractMetrics(uuid.New(), messages)

	if metrics.TotalMessages != 3 {
		t.Fatalf("expected untimestamped message counted, got total %d", metrics.TotalMessages)
	}
	if metrics.LeadAvgResponseTimeMs != nil || metrics.AgentAvgResponseTimeMs != nil {
		t.Fatalf("expected no samples when timestamps missing, got %+v", metrics)
	}
}

func TestExtractMetricsDurationSkipsUntimestamped(t *testing.T) {
	tests := []struct {
		name     string
		messages []domain.Message
		want     *int64
	}{
		{
			name: "fewer than two timestamped",
			messages: []domain.Message{
				msg(domain.SenderLead, at(5000)),
				msg(domain.SenderAgentHuman, nil),
			},
			want: nil,
		},
		{
			name: "untimestamped edges ignored",
			messages: []domain.Message{
				msg(domain.SenderSystem, nil),
				msg(domain.SenderLead, at(10000)),
				msg(domain.SenderAgentHuman, at(40000)),
				msg(domain.SenderSystem, nil),
			},
			want: int64Ptr(30000),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			metrics := ExtractMetrics(uuid.New(), tc.messages)
			if (metrics.ConversationDurationMs == nil) != (tc.want == nil) {
				t.Fatalf("duration presence mismatch: got %v, want %v", metrics.ConversationDurationMs, tc.want)
			}
			if tc.want != nil && *metrics.ConversationDurationMs != *tc.want {
				t.Fatalf("expected duration %d, got %d", *tc.want, *metrics.ConversationDurationMs)
			}
		})
	}
}

func TestExtractMetricsContentAndMedia(t *testing.T) {
	media := "https://cdn.example.com/photo.jpg"
	leadLong := msg(domain.SenderLead, at(0))
	leadLong.TextContent = text("this lead message is exactly forty chars")
	leadShort := msg(domain.SenderLead, at(1000))
	leadShort.TextContent = text("ok, thanks")
	leadNoText := msg(domain.SenderLead, at(2000))
	leadNoText.MediaURL = &media
	agent := msg(domain.SenderAgentHuman, at(3000))
	agent.TextContent = text("agent text never feeds the lead average, however long it runs")
	agent.MediaURL = &media

	metrics := ExtractMetrics(uuid.New(), []domain.Message{leadLong, leadShort, leadNoText, agent})

	// (40 + 10) / 2 over lead messages with text content only.
	if metrics.AvgMessageLength == nil || *metrics.AvgMessageLength != 25 {
		t.Fatalf("expected avg length 25, got %v", metrics.AvgMessageLength)
	}
	// Media counts from any sender.
	if metrics.MediaShared != 2 {
		t.Fatalf("expected media count 2, got %d", metrics.MediaShared)
	}
}

func TestExtractMetricsLastActivity(t *testing.T) {
	messages := []domain.Message{
		msg(domain.SenderLead, at(0)),
		msg(domain.SenderAgentHuman, at(60000)),
		msg(domain.SenderLead, at(120000)),
	}

	metrics := ExtractMetrics(uuid.New(), messages)

	if metrics.LastLeadMessageAt == nil || !metrics.LastLeadMessageAt.Equal(*at(120000)) {
		t.Fatalf("expected last lead at offset 120000, got %v", metrics.LastLeadMessageAt)
	}
	if metrics.LastAgentMessageAt == nil || !metrics.LastAgentMessageAt.Equal(*at(60000)) {
		t.Fatalf("expected last agent at offset 60000, got %v", metrics.LastAgentMessageAt)
	}
}

func TestExtractMetricsDeterministic(t *testing.T) {
	messages := []domain.Message{
		msg(domain.SenderAgentHuman, at(0)),
		msg(domain.SenderLead, at(45000)),
		msg(domain.SenderSystem, nil),
	}
	conversationID := uuid.New()

	first := ExtractMetrics(conversationID, messages)
	second := ExtractMetrics(conversationID, messages)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("extraction not deterministic: %+v vs %+v", first, second)
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}
