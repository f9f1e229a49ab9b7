package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/folioapp/portfolio-api/internal/core/domain"
)

const (
	markTTL      = 24 * time.Hour
	streamMaxLen = 10000
)

// streamClient is the subset of *redis.Client the outbox needs.
type streamClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Outbox appends notifications to a Redis stream consumed by an external
// mailer. Key format for the idempotency mark: notif:<notification_id>
type Outbox struct {
	client streamClient
	stream string
	log    zerolog.Logger
}

// NewOutbox creates an Outbox writing to stream through the given client.
func NewOutbox(client *redis.Client, stream string, log zerolog.Logger) *Outbox {
	return newOutbox(client, stream, log)
}

func newOutbox(client streamClient, stream string, log zerolog.Logger) *Outbox {
	return &Outbox{
		client: client,
		stream: stream,
		log:    log.With().Str("component", "outbox").Logger(),
	}
}

// Send appends n to the stream once. A message whose mark is already set was
// appended by an earlier attempt and is skipped.
func (o *Outbox) Send(ctx context.Context, n domain.Notification) error {
	key := o.key(n.ID)

	fresh, err := o.client.SetNX(ctx, key, "1", markTTL).Result()
	if err != nil {
		return fmt.Errorf("outbox mark: %w", err)
	}
	if !fresh {
		return nil
	}

	err = o.client.XAdd(ctx, &redis.XAddArgs{
		Stream: o.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{
			"id":         n.ID,
			"kind":       string(n.Kind),
			"to":         n.To,
			"subject":    n.Subject,
			"body":       n.Body,
			"created_at": n.CreatedAt.UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		// Clear the mark so the next attempt appends again. A mark left behind
		// makes every retry skip the message until markTTL expires.
		if delErr := o.client.Del(ctx, key).Err(); delErr != nil {
			o.log.Error().
				Err(delErr).
				Str("notification_id", n.ID).
				Str("key", key).
				Msg("failed to clear outbox mark; message will not be retried")
		}
		return fmt.Errorf("outbox append: %w", err)
	}
	return nil
}

func (o *Outbox) key(id string) string {
	return fmt.Sprintf("notif:%s", id)
}
