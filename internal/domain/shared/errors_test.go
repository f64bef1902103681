package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	err := NewDomainError("award", "TryAward", ErrAlreadyExists, "award already recorded")

	assert.True(t, errors.Is(err, ErrAlreadyExists))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "award.TryAward")
}

func TestWrapError_PreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError("campus", "Request", ErrServiceUnavailable, "Campus API is unavailable", cause)

	assert.True(t, errors.Is(err, ErrServiceUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestErrorClassifiers(t *testing.T) {
	assert.True(t, IsNotFound(ErrBadgeNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", ErrSnapshotNotFound)))
	assert.False(t, IsNotFound(ErrDuplicateAward))

	assert.True(t, IsAlreadyExists(ErrDuplicateAward))

	assert.True(t, IsSourceFailure(ErrCampusAPIUnavailable))
	assert.True(t, IsSourceFailure(ErrCampusAPITimeout))
	assert.True(t, IsSourceFailure(ErrCampusAPIRateLimited))
	assert.False(t, IsSourceFailure(ErrLedgerUnavailable))

	assert.True(t, IsStorageOutage(ErrLedgerUnavailable))
	assert.False(t, IsStorageOutage(ErrCampusAPIUnavailable))

	assert.True(t, IsCorruptData(ErrSnapshotCorrupt))
	assert.True(t, IsValidation(ErrInvalidOccurrence))
}
