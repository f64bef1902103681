// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyProcessed = errors.New("already processed")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")

	// Storage errors
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrCorruptData        = errors.New("corrupt data")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "badge", "award", "evidence"
	Op      string // Operation that failed, e.g., "Evaluate", "TryAward"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Badge domain errors
var (
	ErrBadgeNotFound     = NewDomainError("badge", "Find", ErrNotFound, "badge definition not found")
	ErrUnknownBadgeKind  = NewDomainError("badge", "Validate", ErrInvalidInput, "unknown badge kind")
	ErrInvalidDefinition = NewDomainError("badge", "Validate", ErrInvalidEntity, "invalid badge definition")
	ErrInvalidThreshold  = NewDomainError("badge", "Validate", ErrValueOutOfRange, "invalid badge threshold")
)

// Award domain errors
var (
	ErrAwardNotFound     = NewDomainError("award", "Find", ErrNotFound, "award record not found")
	ErrDuplicateAward    = NewDomainError("award", "TryAward", ErrAlreadyExists, "award already recorded")
	ErrEmptyEvidence     = NewDomainError("award", "TryAward", ErrEmptyValue, "occurrence has no evidence")
	ErrInvalidOccurrence = NewDomainError("award", "Validate", ErrValueOutOfRange, "invalid occurrence index")
	ErrNegativeXPChange  = NewDomainError("award", "CreditXP", ErrNegativeValue, "XP balance can only increase")
	ErrLedgerUnavailable = NewDomainError("award", "TryAward", ErrStorageUnavailable, "award ledger is unavailable")
)

// Evidence domain errors
var (
	ErrSnapshotNotFound  = NewDomainError("evidence", "Get", ErrNotFound, "evidence snapshot not found")
	ErrSnapshotCorrupt   = NewDomainError("evidence", "Decode", ErrCorruptData, "evidence snapshot failed to deserialize")
	ErrSourceUnavailable = NewDomainError("evidence", "Read", ErrServiceUnavailable, "evidence source is unavailable")
	ErrUnknownItem       = NewDomainError("evidence", "Resolve", ErrNotFound, "evidence item not found in source data")
)

// External service errors
var (
	ErrCampusAPIUnavailable     = NewDomainError("campus", "Request", ErrServiceUnavailable, "Campus API is unavailable")
	ErrCampusAPIRateLimited     = NewDomainError("campus", "Request", ErrRateLimited, "Campus API rate limit exceeded")
	ErrCampusAPITimeout         = NewDomainError("campus", "Request", ErrTimeout, "Campus API request timeout")
	ErrCampusAPIInvalidResponse = NewDomainError("campus", "Parse", ErrInvalidFormat, "invalid response from Campus API")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
// The award ledger treats this as the expected idempotency path, not a failure.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsSourceFailure checks if the error came from an evidence source read.
// Source failures skip the affected (user, badge) pair and never abort a run.
func IsSourceFailure(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsCorruptData checks if the error indicates undecodable cached data.
func IsCorruptData(err error) bool {
	return errors.Is(err, ErrCorruptData)
}

// IsStorageOutage checks if the error indicates the persistence layer itself
// is down. This is the only error class that aborts an engine run.
func IsStorageOutage(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}
