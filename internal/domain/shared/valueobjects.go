// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents a unique learner identifier (UUID format).
type UserID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the user ID is a valid UUID.
func (u UserID) IsValid() bool {
	return uuidRegex.MatchString(string(u))
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty checks if the ID is empty.
func (u UserID) IsEmpty() bool {
	return u == ""
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.ToLower(strings.TrimSpace(id)))
	if !uid.IsValid() {
		return "", NewDomainError("shared", "NewUserID", ErrInvalidID, "invalid user ID format")
	}
	return uid, nil
}

// CourseID represents a unique course identifier.
type CourseID string

// Regular expression for valid course slug format.
var courseIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]{1,63}$`)

// IsValid checks if the course ID is valid.
func (c CourseID) IsValid() bool {
	return courseIDRegex.MatchString(string(c))
}

// String returns the string representation.
func (c CourseID) String() string {
	return string(c)
}

// NewCourseID creates a new CourseID with validation.
func NewCourseID(id string) (CourseID, error) {
	cid := CourseID(strings.ToLower(strings.TrimSpace(id)))
	if !cid.IsValid() {
		return "", NewDomainError("shared", "NewCourseID", ErrInvalidID, "invalid course ID format")
	}
	return cid, nil
}

// BadgeID represents a unique badge definition identifier (slug).
type BadgeID string

var badgeIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]{1,63}$`)

// IsValid checks if the badge ID is valid.
func (b BadgeID) IsValid() bool {
	return badgeIDRegex.MatchString(string(b))
}

// String returns the string representation.
func (b BadgeID) String() string {
	return string(b)
}

// NewBadgeID creates a new BadgeID with validation.
func NewBadgeID(id string) (BadgeID, error) {
	bid := BadgeID(strings.ToLower(strings.TrimSpace(id)))
	if !bid.IsValid() {
		return "", NewDomainError("shared", "NewBadgeID", ErrInvalidID, "invalid badge ID format")
	}
	return bid, nil
}

// ItemID identifies one evidence item (a completed activity, a grade
// transition, a sibling badge). IDs are opaque but stable, which makes them
// usable for set membership in the consumed-evidence tracker.
type ItemID string

// String returns the string representation.
func (i ItemID) String() string {
	return string(i)
}

// IsEmpty checks if the ID is empty.
func (i ItemID) IsEmpty() bool {
	return strings.TrimSpace(string(i)) == ""
}

// NewItemID creates a new ItemID with validation.
func NewItemID(id string) (ItemID, error) {
	iid := ItemID(strings.TrimSpace(id))
	if iid.IsEmpty() {
		return "", NewDomainError("shared", "NewItemID", ErrEmptyValue, "item ID cannot be empty")
	}
	return iid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// XP and Coins Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// XP represents experience points granted by a badge award.
// A learner's XP balance is permanent: spending coins or revoking a badge
// never subtracts XP that was already granted.
type XP int

const (
	// MinXP is the lower XP boundary.
	MinXP XP = 0
	// MaxXP caps a single badge's XP value.
	MaxXP XP = 100000
)

// IsValid checks if the XP value is within valid range.
func (x XP) IsValid() bool {
	return x >= MinXP && x <= MaxXP
}

// Int returns the underlying int value.
func (x XP) Int() int {
	return int(x)
}

// Coins represents the virtual-currency value of a badge award.
type Coins int

// IsValid checks if the coin value is non-negative.
func (c Coins) IsValid() bool {
	return c >= 0
}

// Int returns the underlying int value.
func (c Coins) Int() int {
	return int(c)
}

// ═══════════════════════════════════════════════════════════════════════════
// Occurrence Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Occurrence is the 1-based index distinguishing multiple awards of a
// repeatable badge for the same (user, badge, course).
type Occurrence int

// IsValid checks if the occurrence index is valid.
func (o Occurrence) IsValid() bool {
	return o >= 1
}

// Int returns the underlying int value.
func (o Occurrence) Int() int {
	return int(o)
}

// String returns the string representation.
func (o Occurrence) String() string {
	return fmt.Sprintf("#%d", int(o))
}

// ═══════════════════════════════════════════════════════════════════════════
// Timestamp helpers
// ═══════════════════════════════════════════════════════════════════════════

// StrictlyBefore reports whether a happened strictly before b.
// Equal timestamps do NOT count as "before"; every deadline comparison in the
// qualification strategies goes through this single predicate.
func StrictlyBefore(a, b time.Time) bool {
	return a.Before(b)
}
