package domain

import "time"

// NotificationKind tags outbound messages for routing and metrics.
type NotificationKind string

const (
	NotifyEmailVerification NotificationKind = "email_verification"
	NotifyPasswordReset     NotificationKind = "password_reset"
	NotifyPasswordChanged   NotificationKind = "password_changed"
	NotifyDeleteRequested   NotificationKind = "account_delete_requested"
	NotifyAccountDeleted    NotificationKind = "account_deleted"
)

// Notification is a single outbound message for the notification sink.
type Notification struct {
	ID        string
	Kind      NotificationKind
	To        string
	Subject   string
	Body      string
	CreatedAt time.Time
}
