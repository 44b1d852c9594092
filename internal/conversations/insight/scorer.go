package insight

import (
	"math"
	"time"

	"convoscore_backend/internal/conversations/domain"
)

// Tier thresholds, inclusive on the lower bound.
const (
	tierHotMin  = 70
	tierWarmMin = 40
	tierColdMin = 15
)

// ScoreLead computes the 0-100 lead score from a metrics snapshot.
// now is the evaluation instant: the recency factor decays purely with
// wall-clock time since the lead's last message, so the same stored
// metrics score lower on a later day. Callers pass the execution clock,
// never a cached instant.
func ScoreLead(metrics domain.ConversationMetrics, now time.Time) domain.LeadScoreResult {
	factors := domain.ScoreFactors{
		Engagement:     engagementScore(metrics),
		ResponseSpeed:  responseSpeedScore(metrics.LeadAvgResponseTimeMs),
		ContentQuality: contentQualityScore(metrics),
		Recency:        recencyScore(metrics.LastLeadMessageAt, now),
	}

	total := factors.Engagement + factors.ResponseSpeed + factors.ContentQuality + factors.Recency
	score := clampScore(total)

	return domain.LeadScoreResult{
		Score:   score,
		Factors: factors,
		Tier:    TierFor(score),
	}
}

// TierFor maps a numeric score onto the triage tier.
func TierFor(score int) domain.Tier {
	switch {
	case score >= tierHotMin:
		return domain.TierHot
	case score >= tierWarmMin:
		return domain.TierWarm
	case score >= tierColdMin:
		return domain.TierCold
	default:
		return domain.TierInactive
	}
}

// engagementScore rewards lead message volume and a balanced exchange.
// A lead that has reached out with no agent reply yet gets partial
// credit instead of a ratio, so fresh outreach never scores as silence.
func engagementScore(metrics domain.ConversationMetrics) float64 {
	if metrics.TotalMessages == 0 {
		return 0
	}

	countScore := math.Min(10, float64(metrics.MessagesFromLead*2))

	if metrics.MessagesFromAgent == 0 {
		if metrics.MessagesFromLead > 0 {
			return countScore + 5
		}
		return countScore
	}

	ratio := float64(metrics.MessagesFromLead) / float64(metrics.MessagesFromAgent)
	var ratioScore float64
	switch {
	case ratio >= 0.5 && ratio <= 2:
		ratioScore = 15 // healthy back-and-forth
	case ratio > 2:
		ratioScore = 12 // lead very talkative, slightly below balanced
	default:
		ratioScore = math.Max(0, ratio*20) // linear falloff as the lead goes quiet
	}

	return clampFloat(countScore+ratioScore, 0, 25)
}

// responseSpeedScore bands the lead's average response time. No sample
// yet is neutral (12), not penalized. Bands are half-open on the lower
// bound: exactly 5 minutes lands in the <30-minute band.
func responseSpeedScore(leadAvgMs *int64) float64 {
	if leadAvgMs == nil {
		return 12
	}

	avg := time.Duration(*leadAvgMs) * time.Millisecond
	switch {
	case avg < 5*time.Minute:
		return 25
	case avg < 30*time.Minute:
		return 20
	case avg < 2*time.Hour:
		return 15
	case avg < 24*time.Hour:
		return 10
	default:
		return 5
	}
}

// contentQualityScore is a coarse length/media heuristic, not semantic
// analysis. Media counts from any sender because the extractor tallies
// mediaShared across all roles.
func contentQualityScore(metrics domain.ConversationMetrics) float64 {
	if metrics.MessagesFromLead == 0 {
		return 0
	}

	var lengthScore float64
	if metrics.AvgMessageLength != nil {
		switch length := *metrics.AvgMessageLength; {
		case length > 100:
			lengthScore = 15
		case length > 50:
			lengthScore = 12
		case length > 20:
			lengthScore = 8
		default:
			lengthScore = 4
		}
	}

	mediaScore := math.Min(10, float64(metrics.MediaShared*3))

	return clampFloat(lengthScore+mediaScore, 0, 25)
}

// recencyScore decays with elapsed time since the lead's last message.
// This is the only factor that changes without new activity.
func recencyScore(lastLeadMessageAt *time.Time, now time.Time) float64 {
	if lastLeadMessageAt == nil {
		return 0
	}

	elapsed := now.Sub(*lastLeadMessageAt)
	switch {
	case elapsed < time.Hour:
		return 25
	case elapsed < 24*time.Hour:
		return 20
	case elapsed < 3*24*time.Hour:
		return 15
	case elapsed < 7*24*time.Hour:
		return 10
	case elapsed < 30*24*time.Hour:
		return 5
	default:
		return 0
	}
}

func clampScore(value float64) int {
	rounded := int(math.Round(value))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

func clampFloat(value float64, min float64, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
