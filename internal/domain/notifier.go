package domain

import "context"

// Notifier delivers a text message to a Telegram chat target. Failures are
// returned as errors, never panics; the reminder engine treats them as
// attempted sends.
type Notifier interface {
	SendMessage(ctx context.Context, target, text string) error
}
