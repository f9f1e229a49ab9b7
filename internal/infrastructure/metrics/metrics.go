// Package metrics defines the custom Prometheus metrics of the portfolio API.
// It is the single source of truth for metric names, labels, and help strings.
//
// All metrics are registered with the default registry through promauto when
// the package is imported; /metrics is served by echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portfolio"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthEventsTotal counts account lifecycle outcomes.
// Labels:
//   - event: "register", "login", "verify_email", "forgot_password",
//     "reset_password", "change_password", "request_delete", "confirm_delete"
//   - result: "ok" or a short failure reason (e.g. "invalid_credentials")
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of account lifecycle requests, by event and result.",
	},
	[]string{"event", "result"},
)

// TokensIssuedTotal counts signed tokens handed out.
// Label:
//   - type: "access", "email_verify", "password_reset", "account_delete"
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of signed tokens issued, by token type.",
	},
	[]string{"type"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsSentTotal counts notifications delivered to the sink.
// Label:
//   - kind: the notification kind (e.g. "password_reset")
var NotificationsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of notifications delivered to the sink.",
	},
	[]string{"kind"},
)

// NotificationsFailedTotal counts notifications abandoned after the last attempt.
var NotificationsFailedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_failed_total",
		Help:      "Total number of notifications that failed every delivery attempt.",
	},
	[]string{"kind"},
)

// NotificationsDroppedTotal counts notifications rejected because the worker
// queue was full or the dispatcher had stopped.
var NotificationsDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_dropped_total",
		Help:      "Total number of notifications dropped before delivery.",
	},
	[]string{"kind"},
)

// NotificationQueueDepth tracks pending notifications per worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// NotificationDeliveryDuration measures a full delivery including retries.
// Label:
//   - result: "sent" or "failed"
var NotificationDeliveryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_delivery_duration_seconds",
		Help:      "Duration of notification delivery from dequeue to the final attempt.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)
