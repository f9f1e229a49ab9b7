package domain

import "time"

// Portfolio is a showcase entry owned by exactly one user.
type Portfolio struct {
	ID          string
	Title       string
	Description string
	Detail      string
	Link        string
	UserID      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
