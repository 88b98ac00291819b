// Package models - user.go defines the User, Profile, and UserRole models for
// portal accounts, along with the helper that resolves a user's effective scopes.
package models

import "time"

// User represents a portal account
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile represents member profile details, keyed 1:1 by user ID
type Profile struct {
	UserID           string    `json:"user_id"`
	FullName         string    `json:"full_name"`
	Phone            *string   `json:"phone,omitempty"`
	MembershipNumber *string   `json:"membership_number,omitempty"`
	AvatarURL        *string   `json:"avatar_url,omitempty"`
	Bio              *string   `json:"bio,omitempty"`
	ExpertiseAreas   []string  `json:"expertise_areas"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UserRole represents the single role tag assigned to a user
type UserRole struct {
	UserID     string    `json:"user_id"`
	Role       string    `json:"role"`
	AssignedBy *string   `json:"assigned_by,omitempty"` // Nullable for the signup default
	AssignedAt time.Time `json:"assigned_at"`
}

// UserWithRole is a user joined with their role tag and profile name, as
// returned by the admin user listing.
type UserWithRole struct {
	User
	Role     string `json:"role"`
	FullName string `json:"full_name"`
}
