// Package auth - scopes.go defines permission scope constants for all portal resources
// and provides HasScope, HasAnyScope, and HasAllScopes helper functions for scope checking.
package auth

import (
	"errors"
	"fmt"
)

// Scope represents a permission/scope type
type Scope string

const (
	// Forum scopes
	ScopeForumRead     Scope = "forum:read"
	ScopeForumWrite    Scope = "forum:write"    // Submit queries
	ScopeForumRespond  Scope = "forum:respond"  // Submit expert responses
	ScopeForumModerate Scope = "forum:moderate" // Approve/reject responses, escalate queries

	// Content scopes (publications, events, announcements)
	ScopeContentRead    Scope = "content:read"
	ScopeContentWrite   Scope = "content:write"   // Create and edit drafts
	ScopeContentPublish Scope = "content:publish" // Publish/unpublish and delete

	// Event registration scope
	ScopeEventsRegister Scope = "events:register"

	// Helpdesk scopes
	ScopeTicketsCreate Scope = "tickets:create"
	ScopeTicketsManage Scope = "tickets:manage" // Assign tickets and advance status

	// User management scopes
	ScopeUsersRead  Scope = "users:read"
	ScopeUsersWrite Scope = "users:write"

	// Role assignment scope
	ScopeRolesManage Scope = "roles:manage"

	// Audit log scope
	ScopeAuditRead Scope = "audit:read"

	// Admin scope (wildcard - all permissions)
	ScopeAdmin Scope = "admin"
)

// AllScopes returns all valid scopes
func AllScopes() []Scope {
	return []Scope{
		ScopeForumRead,
		ScopeForumWrite,
		ScopeForumRespond,
		ScopeForumModerate,
		ScopeContentRead,
		ScopeContentWrite,
		ScopeContentPublish,
		ScopeEventsRegister,
		ScopeTicketsCreate,
		ScopeTicketsManage,
		ScopeUsersRead,
		ScopeUsersWrite,
		ScopeRolesManage,
		ScopeAuditRead,
		ScopeAdmin,
	}
}

// ValidScopes returns a map of valid scope strings
func ValidScopes() map[string]bool {
	validScopes := make(map[string]bool)
	for _, scope := range AllScopes() {
		validScopes[string(scope)] = true
	}
	return validScopes
}

// ValidateScopes checks if all provided scopes are valid
func ValidateScopes(scopes []string) error {
	validScopes := ValidScopes()

	for _, scope := range scopes {
		if !validScopes[scope] {
			return fmt.Errorf("invalid scope: %s", scope)
		}
	}

	return nil
}

// HasScope checks if a user has a required scope
// Supports wildcard admin scope
func HasScope(userScopes []string, required Scope) bool {
	requiredStr := string(required)

	for _, scope := range userScopes {
		// Check for exact match
		if scope == requiredStr {
			return true
		}

		// Check for admin wildcard
		if scope == string(ScopeAdmin) {
			return true
		}

		// Check for wildcard read permissions
		// If user has write/manage permission, they also have read permission
		if required == ScopeForumRead &&
			(scope == string(ScopeForumWrite) || scope == string(ScopeForumRespond) || scope == string(ScopeForumModerate)) {
			return true
		}
		if required == ScopeContentRead &&
			(scope == string(ScopeContentWrite) || scope == string(ScopeContentPublish)) {
			return true
		}
		if required == ScopeUsersRead && scope == string(ScopeUsersWrite) {
			return true
		}
	}

	return false
}

// HasAnyScope checks if a user has at least one of the required scopes
func HasAnyScope(userScopes []string, requiredScopes []Scope) bool {
	for _, required := range requiredScopes {
		if HasScope(userScopes, required) {
			return true
		}
	}
	return false
}

// HasAllScopes checks if a user has all of the required scopes
func HasAllScopes(userScopes []string, requiredScopes []Scope) bool {
	for _, required := range requiredScopes {
		if !HasScope(userScopes, required) {
			return false
		}
	}
	return true
}

// ValidateScopeString validates a single scope string
func ValidateScopeString(scope string) error {
	validScopes := ValidScopes()
	if !validScopes[scope] {
		return errors.New("invalid scope")
	}
	return nil
}
