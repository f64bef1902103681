package campus

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActivityDTO_Parsing(t *testing.T) {
	jsonData := `{
    "success": true,
    "data": [
        {
            "id": "week03-quiz",
            "title": "Week 3 quiz",
            "position": 7,
            "completed": true,
            "completed_at": "2026-02-10T14:30:00Z",
            "deadline_at": "2026-02-12T23:59:59Z",
            "gradable": true
        },
        {
            "id": "week04-reading",
            "title": "Week 4 reading",
            "position": 8,
            "completed": false,
            "gradable": false
        }
    ],
    "meta": {"total": 2, "page": 1, "per_page": 200, "total_pages": 1}
}`

	var response APIResponse[[]ActivityDTO]
	err := json.Unmarshal([]byte(jsonData), &response)
	assert.NoError(t, err)
	assert.True(t, response.Success)
	assert.Len(t, response.Data, 2)

	quiz := response.Data[0]
	assert.Equal(t, "week03-quiz", quiz.ID)
	assert.Equal(t, 7, quiz.Position)
	assert.True(t, quiz.Completed)
	assert.NotNil(t, quiz.CompletedAt)
	assert.NotNil(t, quiz.DeadlineAt)
	assert.True(t, quiz.Gradable)

	reading := response.Data[1]
	assert.False(t, reading.Completed)
	assert.Nil(t, reading.CompletedAt)
	assert.Nil(t, reading.DeadlineAt)
}

func TestMapper_CompletionFromDTO(t *testing.T) {
	completedAt := time.Date(2026, 2, 10, 14, 30, 0, 0, time.FixedZone("UTC+5", 5*3600))
	deadlineAt := time.Date(2026, 2, 12, 23, 59, 59, 0, time.UTC)

	dto := ActivityDTO{
		ID:          "week03-quiz",
		Title:       "Week 3 quiz",
		Position:    7,
		Completed:   true,
		CompletedAt: &completedAt,
		DeadlineAt:  &deadlineAt,
		Gradable:    true,
	}

	mapper := NewMapper()
	c := mapper.CompletionFromDTO(dto)

	assert.Equal(t, "week03-quiz", c.ItemID.String())
	assert.Equal(t, 7, c.SortOrder)
	assert.True(t, c.Completed)
	assert.True(t, c.HasDeadline)
	// Timestamps are normalized to UTC during mapping.
	assert.Equal(t, time.UTC, c.CompletedAt.Location())
	assert.True(t, c.CompletedAt.Equal(completedAt))
}

func TestMapper_CompletionFromDTO_NoDeadline(t *testing.T) {
	dto := ActivityDTO{
		ID:       "week04-reading",
		Title:    "Week 4 reading",
		Position: 8,
	}

	c := NewMapper().CompletionFromDTO(dto)
	assert.False(t, c.HasDeadline)
	assert.True(t, c.DeadlineAt.IsZero())
	assert.True(t, c.CompletedAt.IsZero())
}

func TestMapper_CandidatesFromDTO_DropsMalformed(t *testing.T) {
	dtos := []EnrollmentDTO{
		{UserID: "a81bc81b-dead-4e5d-abff-90865d1e13b1", CourseID: "algebra-101"},
		{UserID: "not-a-uuid", CourseID: "algebra-101"},
		{UserID: "a81bc81b-dead-4e5d-abff-90865d1e13b1", CourseID: ""},
	}

	candidates := NewMapper().CandidatesFromDTO(dtos)
	assert.Len(t, candidates, 1)
	assert.Equal(t, "algebra-101", candidates[0].Course.String())
}

func TestGradeDTO_Parsing(t *testing.T) {
	jsonData := `{
    "success": true,
    "data": [
        {"recorded_at": "2026-01-05T10:00:00Z", "percentage": 40},
        {"recorded_at": "2026-01-20T10:00:00Z", "percentage": 75.5}
    ]
}`

	var response APIResponse[[]GradeDTO]
	err := json.Unmarshal([]byte(jsonData), &response)
	assert.NoError(t, err)
	assert.Len(t, response.Data, 2)
	assert.Equal(t, 40.0, response.Data[0].Percentage)
	assert.Equal(t, 75.5, response.Data[1].Percentage)

	history := NewMapper().GradeHistoryFromDTO(response.Data)
	assert.Len(t, history, 2)
	assert.True(t, history[0].Timestamp.Before(history[1].Timestamp))
}

func TestAPIErrorDTO_Error(t *testing.T) {
	err := &APIErrorDTO{Code: "NOT_FOUND", Message: "course not found"}
	assert.Contains(t, err.Error(), "NOT_FOUND")

	assert.True(t, isNotFoundError(err))
	assert.False(t, isNotFoundError(&APIErrorDTO{Code: "SERVER_ERROR", Message: "boom"}))
	assert.True(t, isNotFoundError(&statusError{code: 404}))
}
