package notify

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Sink delivers human-readable updates to a recipient (a chat id or watch
// id). Delivery is best-effort: callers log failures and never escalate them
// into the trading pipeline.
type Sink interface {
	Notify(ctx context.Context, recipient, message string) error
}

// LogSink writes notifications to the process log. Used when no Telegram
// token is configured and as the sink for simulations.
type LogSink struct{}

func (LogSink) Notify(_ context.Context, recipient, message string) error {
	log.Info().
		Str("component", "notifier").
		Str("recipient", recipient).
		Msg(message)
	return nil
}
