// Package models - notification.go defines the in-portal Notification model.
package models

import "time"

// Notification types.
const (
	NotificationResponseApproved = "response_approved"
	NotificationResponseRejected = "response_rejected"
	NotificationTicketUpdated    = "ticket_updated"
	NotificationRoleChanged      = "role_changed"
)

// Notification represents an in-portal notification for a user
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	RelatedID *string   `json:"related_id,omitempty"` // ID of the query/ticket the notification refers to
	CreatedAt time.Time `json:"created_at"`
}
