// Package models - ticket.go defines the helpdesk Ticket model and its status
// vocabulary. Closed is terminal; resolved_at is stamped on resolved/closed.
package models

import "time"

// Ticket statuses.
const (
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in_progress"
	TicketStatusResolved   = "resolved"
	TicketStatusClosed     = "closed"
)

// ValidTicketStatus reports whether s is one of the ticket statuses.
func ValidTicketStatus(s string) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// Ticket represents a helpdesk support ticket
type Ticket struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Subject     string     `json:"subject"`
	Description string     `json:"description"`
	Category    *string    `json:"category,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	// Joined fields (not stored in helpdesk_tickets)
	RequesterName *string `json:"requester_name,omitempty"`
}
