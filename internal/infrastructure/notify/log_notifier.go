// Package notify contains Notifier sinks that do not need external services.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/folioapp/portfolio-api/internal/core/domain"
)

// LogNotifier writes every message to the logger instead of delivering it.
// Used in development, where the links in the body are copied by hand.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) Send(_ context.Context, msg domain.Notification) error {
	n.log.Info().
		Str("notification_id", msg.ID).
		Str("kind", string(msg.Kind)).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("notification")
	return nil
}
