// Package models - audit_log.go defines the AuditLog model for recording security-relevant
// events, capturing actor, action, affected resource, client IP, and arbitrary metadata.
package models

import "time"

// AuditLog represents an audit log entry for tracking user actions
type AuditLog struct {
	ID           string                 `json:"id"`
	UserID       *string                `json:"user_id,omitempty"`    // Nullable for system actions
	Action       string                 `json:"action"`               // "forum.respond", "content.publish", "user.create"
	ResourceType string                 `json:"resource_type"`        // "query", "response", "publication", "ticket", "user"
	ResourceID   *string                `json:"resource_id,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`   // JSONB: additional context
	IPAddress    *string                `json:"ip_address,omitempty"` // Client IP
	CreatedAt    time.Time              `json:"created_at"`
}
