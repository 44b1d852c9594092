// Package insight computes engagement metrics and lead scores from a
// conversation's message history. Both passes are pure: no I/O, no shared
// state, safe to run concurrently for different conversations.
package insight

import (
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"convoscore_backend/internal/conversations/domain"

	"github.com/google/uuid"
)

// maxResponseGap guards the response-time samples against multi-day gaps.
// A reply more than 7 days after the previous message is a new session,
// not a slow response, and is discarded from both samples.
const maxResponseGap = 7 * 24 * time.Hour

// ExtractMetrics derives a ConversationMetrics snapshot from the message
// history. It never fails: empty or malformed input degrades to a
// zero/nil record. Messages are defensively re-sorted by SentAt
// (stable, nil timestamps last) because the response-time walk is
// adjacency-based and order-sensitive.
func ExtractMetrics(conversationID uuid.UUID, messages []domain.Message) domain.ConversationMetrics {
	metrics := domain.ConversationMetrics{ConversationID: conversationID}
	if len(messages) == 0 {
		return metrics
	}

	ordered := sortBySentAt(messages)

	var (
		lastLead     *domain.Message
		lastAgent    *domain.Message
		textLenTotal int
		textLenCount int
	)

	for i := range ordered {
		msg := &ordered[i]
		metrics.TotalMessages++
		if msg.MediaURL != nil {
			metrics.MediaShared++
		}

		switch {
		case msg.SenderRole == domain.SenderLead:
			metrics.MessagesFromLead++
			lastLead = msg
			if msg.TextContent != nil {
				textLenTotal += utf8.RuneCountInString(*msg.TextContent)
				textLenCount++
			}
		case msg.SenderRole.IsAgent():
			metrics.MessagesFromAgent++
			lastAgent = msg
		}
		// SYSTEM and unknown roles count toward totals only.
	}

	leadSample, agentSample := responseSamples(ordered)
	metrics.LeadAvgResponseTimeMs = meanMs(leadSample)
	metrics.LeadFastestResponseMs = minMs(leadSample)
	metrics.AgentAvgResponseTimeMs = meanMs(agentSample)

	if textLenCount > 0 {
		avg := int(math.Round(float64(textLenTotal) / float64(textLenCount)))
		metrics.AvgMessageLength = &avg
	}

	metrics.ConversationDurationMs = duration(ordered)

	if lastLead != nil {
		metrics.LastLeadMessageAt = lastLead.SentAt
	}
	if lastAgent != nil {
		metrics.LastAgentMessageAt = lastAgent.SentAt
	}

	return metrics
}

// responseSamples walks adjacent pairs and collects cross-party deltas.
// Pairs with a missing timestamp, same-party pairs, pairs involving
// SYSTEM, and gaps beyond maxResponseGap contribute to neither sample.
func responseSamples(ordered []domain.Message) (leadSample, agentSample []int64) {
	for i := 1; i < len(ordered); i++ {
		prev, cur := &ordered[i-1], &ordered[i]
		if prev.SentAt == nil || cur.SentAt == nil {
			continue
		}

		delta := cur.SentAt.Sub(*prev.SentAt)
		if delta > maxResponseGap {
			continue
		}

		switch {
		case cur.SenderRole == domain.SenderLead && prev.SenderRole.IsAgent():
			leadSample = append(leadSample, delta.Milliseconds())
		case cur.SenderRole.IsAgent() && prev.SenderRole == domain.SenderLead:
			agentSample = append(agentSample, delta.Milliseconds())
		}
	}
	return leadSample, agentSample
}

// duration measures first-to-last over the timestamped subset, so leading
// or trailing malformed messages cannot skew it. Needs at least two
// timestamped messages.
func duration(ordered []domain.Message) *int64 {
	var first, last *time.Time
	count := 0
	for i := range ordered {
		ts := ordered[i].SentAt
		if ts == nil {
			continue
		}
		count++
		if first == nil {
			first = ts
		}
		last = ts
	}
	if count < 2 {
		return nil
	}
	ms := last.Sub(*first).Milliseconds()
	return &ms
}

func sortBySentAt(messages []domain.Message) []domain.Message {
	ordered := make([]domain.Message, len(messages))
	copy(ordered, messages)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].SentAt, ordered[j].SentAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return ordered
}

func meanMs(sample []int64) *int64 {
	if len(sample) == 0 {
		return nil
	}
	var total int64
	for _, v := range sample {
		total += v
	}
	avg := int64(math.Round(float64(total) / float64(len(sample))))
	return &avg
}

func minMs(sample []int64) *int64 {
	if len(sample) == 0 {
		return nil
	}
	fastest := sample[0]
	for _, v := range sample[1:] {
		if v < fastest {
			fastest = v
		}
	}
	return &fastest
}
