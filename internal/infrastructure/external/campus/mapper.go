// Package campus implements the Campus LMS API client.
package campus

import (
	"errors"

	"github.com/learnhub/badge-engine/internal/domain/evidence"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// ErrNilDTO is returned when a nil DTO is passed to a mapper.
var ErrNilDTO = errors.New("campus: nil DTO")

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - DTO to Domain transformations
// ══════════════════════════════════════════════════════════════════════════════

// Mapper handles transformation between Campus API DTOs and evidence domain
// types. This is the anti-corruption layer: strategy code never sees API
// field names or optional-pointer timestamps.
type Mapper struct{}

// NewMapper creates a new Mapper instance.
func NewMapper() *Mapper {
	return &Mapper{}
}

// CompletionFromDTO converts an ActivityDTO to an evidence.Completion.
// All timestamps are normalized to UTC so deadline comparisons are
// timezone-independent.
func (m *Mapper) CompletionFromDTO(dto ActivityDTO) evidence.Completion {
	c := evidence.Completion{
		ItemID:    shared.ItemID(dto.ID),
		Title:     dto.Title,
		SortOrder: dto.Position,
		Completed: dto.Completed,
		Gradable:  dto.Gradable,
	}
	if dto.CompletedAt != nil {
		c.CompletedAt = dto.CompletedAt.UTC()
	}
	if dto.DeadlineAt != nil {
		c.HasDeadline = true
		c.DeadlineAt = dto.DeadlineAt.UTC()
	}
	return c
}

// CompletionsFromDTO converts a slice of ActivityDTOs.
func (m *Mapper) CompletionsFromDTO(dtos []ActivityDTO) []evidence.Completion {
	out := make([]evidence.Completion, len(dtos))
	for i, dto := range dtos {
		out[i] = m.CompletionFromDTO(dto)
	}
	return out
}

// GradePointFromDTO converts a GradeDTO to an evidence.GradePoint.
func (m *Mapper) GradePointFromDTO(dto GradeDTO) evidence.GradePoint {
	return evidence.GradePoint{
		Timestamp:  dto.RecordedAt.UTC(),
		Percentage: dto.Percentage,
	}
}

// GradeHistoryFromDTO converts a grade history, preserving the API's
// oldest-first ordering.
func (m *Mapper) GradeHistoryFromDTO(dtos []GradeDTO) []evidence.GradePoint {
	out := make([]evidence.GradePoint, len(dtos))
	for i, dto := range dtos {
		out[i] = m.GradePointFromDTO(dto)
	}
	return out
}

// CandidateFromDTO converts an EnrollmentDTO to an engine candidate.
func (m *Mapper) CandidateFromDTO(dto EnrollmentDTO) evidence.Candidate {
	return evidence.Candidate{
		User:   shared.UserID(dto.UserID),
		Course: shared.CourseID(dto.CourseID),
	}
}

// CandidatesFromDTO converts enrollments, dropping entries with malformed
// identifiers rather than failing the whole run.
func (m *Mapper) CandidatesFromDTO(dtos []EnrollmentDTO) []evidence.Candidate {
	out := make([]evidence.Candidate, 0, len(dtos))
	for _, dto := range dtos {
		c := m.CandidateFromDTO(dto)
		if !c.User.IsValid() || !c.Course.IsValid() {
			continue
		}
		out = append(out, c)
	}
	return out
}
