package ports

import (
	"context"

	"github.com/folioapp/portfolio-api/internal/core/domain"
)

// Notifier delivers a single message to the outbound sink.
type Notifier interface {
	Send(ctx context.Context, n domain.Notification) error
}

// NotificationDispatcher hands messages to background delivery. Dispatch
// never blocks on delivery and never reports delivery failures.
type NotificationDispatcher interface {
	Dispatch(n domain.Notification)
}
