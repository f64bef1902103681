// Package campus implements the Campus LMS API client.
// This package handles all communication with the Campus platform: activity
// completion state, grade histories, course structure, and active enrollments.
package campus

import (
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// API RESPONSE WRAPPERS
// ══════════════════════════════════════════════════════════════════════════════

// APIResponse represents a generic API response wrapper.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Meta contains pagination and additional metadata.
type Meta struct {
	Total      int    `json:"total,omitempty"`
	Page       int    `json:"page,omitempty"`
	PerPage    int    `json:"per_page,omitempty"`
	TotalPages int    `json:"total_pages,omitempty"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// APIErrorDTO is the error body the Campus API returns on 4xx/5xx.
type APIErrorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("campus api: %s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("campus api: %s: %s", e.Code, e.Message)
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY DTOs
// ══════════════════════════════════════════════════════════════════════════════

// ActivityDTO is one course activity with the learner's completion state, as
// returned by the Campus API. This is the external representation mapped onto
// the evidence domain types.
type ActivityDTO struct {
	// ID is the activity's stable identifier.
	ID string `json:"id"`

	// Title is the activity's display name.
	Title string `json:"title"`

	// Position is the activity's 0-based position within the course.
	Position int `json:"position"`

	// Completed reports whether the learner finished the activity.
	Completed bool `json:"completed"`

	// CompletedAt is the completion timestamp (absent when not completed).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// DeadlineAt is the activity deadline (absent when none is set).
	DeadlineAt *time.Time `json:"deadline_at,omitempty"`

	// Gradable reports whether the activity records grades.
	Gradable bool `json:"gradable"`
}

// GradeDTO is one recorded grade attempt.
type GradeDTO struct {
	// RecordedAt is when the grade was recorded.
	RecordedAt time.Time `json:"recorded_at"`

	// Percentage is the grade as a percentage (0-100).
	Percentage float64 `json:"percentage"`
}

// ══════════════════════════════════════════════════════════════════════════════
// COURSE AND USER DTOs
// ══════════════════════════════════════════════════════════════════════════════

// CourseDTO describes a course's structure.
type CourseDTO struct {
	// ID is the course slug.
	ID string `json:"id"`

	// Name is the course's display name.
	Name string `json:"name"`

	// ActivityCount is the total number of activities in the course.
	ActivityCount int `json:"activity_count"`

	// Archived reports whether the course has been retired.
	Archived bool `json:"archived"`
}

// UserDTO describes a learner account.
type UserDTO struct {
	// ID is the learner's UUID.
	ID string `json:"id"`

	// DisplayName is the learner's display name.
	DisplayName string `json:"display_name"`

	// Active reports whether the account is active.
	Active bool `json:"active"`
}

// EnrollmentDTO is one active (user, course) enrollment, the unit the
// qualification engine iterates.
type EnrollmentDTO struct {
	// UserID is the enrolled learner's UUID.
	UserID string `json:"user_id"`

	// CourseID is the course slug.
	CourseID string `json:"course_id"`

	// EnrolledAt is when the enrollment was created.
	EnrolledAt time.Time `json:"enrolled_at"`
}

// TokenDTO holds an API access token.
type TokenDTO struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// IsExpired reports whether the token has expired.
func (t *TokenDTO) IsExpired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(t.ExpiresAt)
}
