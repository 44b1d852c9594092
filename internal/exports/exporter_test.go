package exports

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"convoscore_backend/internal/conversations/domain"
	"convoscore_backend/internal/conversations/repository"
)

func TestSnapshotRow(t *testing.T) {
	score := 73
	lastLead := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	computedAt := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	id := uuid.New()

	row := snapshotRow(repository.ScoredConversation{
		Conversation: domain.Conversation{
			ID:            id,
			ConsumerName:  "Jane Jansen",
			ConsumerPhone: "+31612345678",
		},
		BasicLeadScore:    &score,
		LastLeadMessageAt: &lastLead,
		TotalMessages:     14,
		ComputedAt:        computedAt,
	})

	want := []string{id.String(), "Jane Jansen", "+31612345678", "73", "HOT", "14", "2026-03-01T10:30:00Z", "2026-03-01T11:00:00Z"}
	if len(row) != len(want) {
		t.Fatalf("expected %d columns, got %d", len(want), len(row))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Fatalf("column %d: expected %q, got %q", i, want[i], row[i])
		}
	}
}

func TestSnapshotRowUnscored(t *testing.T) {
	row := snapshotRow(repository.ScoredConversation{
		Conversation: domain.Conversation{ID: uuid.New()},
		ComputedAt:   time.Now(),
	})

	if row[3] != "" {
		t.Fatalf("expected empty score column, got %q", row[3])
	}
	if row[4] != "INACTIVE" {
		t.Fatalf("expected INACTIVE tier for unscored row, got %q", row[4])
	}
	if row[6] != "" {
		t.Fatalf("expected empty last-lead column, got %q", row[6])
	}
}
