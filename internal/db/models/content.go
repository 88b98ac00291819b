// Package models - content.go defines the Publication, Event, Announcement, and
// EventRegistration models plus the shared content lifecycle vocabulary.
package models

import "time"

// Content lifecycle statuses, shared by publications, events, and announcements.
const (
	ContentStatusDraft         = "draft"
	ContentStatusPendingReview = "pending_review"
	ContentStatusPublished     = "published"
	ContentStatusUnpublished   = "unpublished"
	ContentStatusArchived      = "archived"
)

// Committee tags.
const (
	CommitteeDTC   = "DTC"
	CommitteeCITAX = "CITAX"
	CommitteeBoth  = "BOTH"
)

// ValidCommittee reports whether c is one of the committee tags.
func ValidCommittee(c string) bool {
	return c == CommitteeDTC || c == CommitteeCITAX || c == CommitteeBoth
}

// ValidContentStatus reports whether s is one of the lifecycle statuses.
func ValidContentStatus(s string) bool {
	switch s {
	case ContentStatusDraft, ContentStatusPendingReview, ContentStatusPublished,
		ContentStatusUnpublished, ContentStatusArchived:
		return true
	}
	return false
}

// Event types.
const (
	EventTypeWebinar    = "webinar"
	EventTypeSeminar    = "seminar"
	EventTypeConference = "conference"
	EventTypeWorkshop   = "workshop"
)

// ValidEventType reports whether t is one of the event types.
func ValidEventType(t string) bool {
	switch t {
	case EventTypeWebinar, EventTypeSeminar, EventTypeConference, EventTypeWorkshop:
		return true
	}
	return false
}

// Priorities, shared by announcements and helpdesk tickets.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ValidPriority reports whether p is one of the priority levels.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh || p == PriorityUrgent
}

// Publication represents a downloadable publication or article
type Publication struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	Content      *string    `json:"content,omitempty"`
	Category     *string    `json:"category,omitempty"`
	FileURL      *string    `json:"file_url,omitempty"`
	ThumbnailURL *string    `json:"thumbnail_url,omitempty"`
	Committee    string     `json:"committee"`
	Status       string     `json:"status"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	CreatedBy    string     `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Event represents a webinar, seminar, conference, or workshop
type Event struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	EventType    string     `json:"event_type"`
	Committee    string     `json:"committee"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Location     *string    `json:"location,omitempty"`
	OnlineLink   *string    `json:"online_link,omitempty"`
	Speakers     []string   `json:"speakers"` // JSONB array of speaker names
	MaxAttendees *int       `json:"max_attendees,omitempty"`
	Status       string     `json:"status"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	CreatedBy    string     `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	// Joined fields (not stored in events)
	RegisteredCount int64 `json:"registered_count"`
}

// Announcement represents a time-boxed notice shown to members
type Announcement struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Committee   string     `json:"committee"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EventRegistration represents a member's registration for an event
type EventRegistration struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	UserID       string    `json:"user_id"`
	RegisteredAt time.Time `json:"registered_at"`
	// Joined fields (not stored in event_registrations)
	EventTitle *string `json:"event_title,omitempty"`
}
