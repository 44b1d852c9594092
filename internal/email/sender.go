// Package email delivers transactional mail for scoring alerts.
package email

import "context"

// Sender delivers notification emails to agents.
type Sender interface {
	SendTierAlertEmail(ctx context.Context, toEmail, consumerName, consumerPhone, tier string, score int) error
}

// NoopSender satisfies Sender when email delivery is disabled.
type NoopSender struct{}

func (NoopSender) SendTierAlertEmail(context.Context, string, string, string, string, int) error {
	return nil
}
