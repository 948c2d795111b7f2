// Package notify delivers bot messages to a chat destination.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Notifier sends a text message to its configured destination.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, text string) error

// Send calls f(ctx, text).
func (f NotifierFunc) Send(ctx context.Context, text string) error {
	return f(ctx, text)
}

// BestEffort wraps a Notifier so delivery failures are logged and dropped.
// Callers never observe a send error; there is no retry.
type BestEffort struct {
	next   Notifier
	logger zerolog.Logger
}

// NewBestEffort creates a best-effort wrapper around next.
func NewBestEffort(next Notifier, logger zerolog.Logger) *BestEffort {
	return &BestEffort{next: next, logger: logger}
}

// Deliver sends text and reports whether the underlying notifier accepted it.
func (b *BestEffort) Deliver(ctx context.Context, text string) bool {
	if err := b.next.Send(ctx, text); err != nil {
		b.logger.Error().
			Err(err).
			Int("message_length", len(text)).
			Msg("failed to deliver notification")
		return false
	}
	return true
}

// Send implements Notifier. It always returns nil.
func (b *BestEffort) Send(ctx context.Context, text string) error {
	b.Deliver(ctx, text)
	return nil
}

// LogNotifier writes messages to the logger instead of a chat.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Send implements Notifier.
func (n LogNotifier) Send(_ context.Context, text string) error {
	n.Logger.Info().Str("text", text).Msg("notification (dry run)")
	return nil
}
