// Package models - forum.go defines the Query and Response models for the
// members' tax query forum, including the status vocabularies for both.
package models

import "time"

// Query statuses. A query starts as submitted, moves to responded when an
// expert answers, then to approved or rejected by a moderator. Escalated is a
// side state entered by an explicit moderator action.
const (
	QueryStatusSubmitted   = "submitted"
	QueryStatusAssigned    = "assigned"
	QueryStatusResponded   = "responded"
	QueryStatusUnderReview = "under_review"
	QueryStatusApproved    = "approved"
	QueryStatusRejected    = "rejected"
	QueryStatusEscalated   = "escalated"
)

// Response statuses.
const (
	ResponseStatusResponded = "responded"
	ResponseStatusApproved  = "approved"
	ResponseStatusRejected  = "rejected"
)

// Query categories — the closed set of tax topics a query can be filed under.
const (
	CategoryReturnsForms          = "returns_forms"
	CategoryCapitalGains          = "capital_gains"
	CategoryAssessmentProcedure   = "assessment_procedure"
	CategoryInternationalTaxation = "international_taxation"
	CategoryTransferPricing       = "transfer_pricing"
	CategoryMiscellaneous         = "miscellaneous"
)

// ValidCategory reports whether c is one of the query categories.
func ValidCategory(c string) bool {
	switch c {
	case CategoryReturnsForms, CategoryCapitalGains, CategoryAssessmentProcedure,
		CategoryInternationalTaxation, CategoryTransferPricing, CategoryMiscellaneous:
		return true
	}
	return false
}

// Query represents a member's tax query
type Query struct {
	ID               string     `json:"id"`
	MemberID         string     `json:"member_id"`
	Category         string     `json:"category"`
	Subject          string     `json:"subject"`
	Question         string     `json:"question"`
	Status           string     `json:"status"`
	AssignedExpertID *string    `json:"assigned_expert_id,omitempty"`
	AssignedAt       *time.Time `json:"assigned_at,omitempty"`
	EscalationCount  int        `json:"escalation_count"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	// Joined fields (not stored in forum_queries)
	MemberName *string `json:"member_name,omitempty"`
}

// Response represents an expert panellist's answer to a query
type Response struct {
	ID             string     `json:"id"`
	QueryID        string     `json:"query_id"`
	ExpertID       string     `json:"expert_id"`
	Response       string     `json:"response"`
	Status         string     `json:"status"`
	ModeratedBy    *string    `json:"moderated_by,omitempty"`
	ModeratedAt    *time.Time `json:"moderated_at,omitempty"`
	ModeratorNotes *string    `json:"moderator_notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	// Joined fields (not stored in forum_responses)
	ExpertName *string `json:"expert_name,omitempty"`
}

// QueryWithResponses is a query detail joined with its visible responses.
type QueryWithResponses struct {
	Query
	Responses []Response `json:"responses"`
}
