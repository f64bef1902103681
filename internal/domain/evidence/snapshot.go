package evidence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// SnapshotSchemaVersion is the current serialization schema. Snapshots with
// an unknown version decode as corrupt and are silently recomputed.
const SnapshotSchemaVersion = 1

// Entry is one line of the human-readable "qualifying activities"
// explanation. Occurrence groups entries of streak-type badges: entries with
// the same occurrence number backed one award together.
type Entry struct {
	// Description is the rendered evidence line, e.g. "Week 3 quiz".
	Description string `json:"description"`

	// Occurrence is the 1-based occurrence group this entry belongs to.
	Occurrence int `json:"occurrence"`

	// Meta carries render metadata such as grade "before"/"after"
	// percentages. May be nil for plain completions.
	Meta map[string]string `json:"meta,omitempty"`
}

// Snapshot is the cached, re-derivable explanation of why a badge was
// awarded. It is never the system of record: a snapshot must always be
// reproducible byte-for-byte from source data plus the consumed set.
type Snapshot struct {
	SchemaVersion int             `json:"schema_version"`
	UserID        shared.UserID   `json:"user_id"`
	CourseID      shared.CourseID `json:"course_id"`
	BadgeID       shared.BadgeID  `json:"badge_id"`
	Entries       []Entry         `json:"entries"`
	DerivedAt     time.Time       `json:"derived_at"`
}

// NewSnapshot builds a snapshot from occurrence groups in their given order.
// Callers sort groups deterministically first (SortGroups), which is what
// makes repeated derivations identical.
func NewSnapshot(user shared.UserID, course shared.CourseID, badge shared.BadgeID, groups []Group, derivedAt time.Time) Snapshot {
	s := Snapshot{
		SchemaVersion: SnapshotSchemaVersion,
		UserID:        user,
		CourseID:      course,
		BadgeID:       badge,
		Entries:       make([]Entry, 0),
		DerivedAt:     derivedAt.UTC(),
	}
	for i, g := range groups {
		for _, it := range g.Items {
			s.Entries = append(s.Entries, Entry{
				Description: it.Label,
				Occurrence:  i + 1,
				Meta:        it.Meta,
			})
		}
	}
	return s
}

// Activities returns the entry descriptions in order, the shape the
// presentation layer consumes.
func (s Snapshot) Activities() []string {
	out := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		out[i] = e.Description
	}
	return out
}

// Encode serializes the snapshot. Entry order is the stored order and map
// keys are sorted by encoding/json, so equal snapshots encode to equal bytes.
// DerivedAt is excluded from equality comparisons, not from encoding.
func (s Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot deserializes a stored snapshot. Any undecodable or
// wrong-version payload maps to ErrSnapshotCorrupt; callers treat that as a
// cache miss and recompute rather than surfacing an error.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, shared.WrapError("evidence", "Decode", shared.ErrCorruptData, "undecodable snapshot", err)
	}
	if s.SchemaVersion != SnapshotSchemaVersion {
		return Snapshot{}, shared.ErrSnapshotCorrupt
	}
	return s, nil
}

// EqualDerivation reports whether two snapshots carry the same derived
// content, ignoring DerivedAt. The reconciler uses this to detect drift.
func (s Snapshot) EqualDerivation(other Snapshot) bool {
	if s.SchemaVersion != other.SchemaVersion ||
		s.UserID != other.UserID ||
		s.CourseID != other.CourseID ||
		s.BadgeID != other.BadgeID ||
		len(s.Entries) != len(other.Entries) {
		return false
	}
	for i := range s.Entries {
		a, b := s.Entries[i], other.Entries[i]
		if a.Description != b.Description || a.Occurrence != b.Occurrence {
			return false
		}
		if len(a.Meta) != len(b.Meta) {
			return false
		}
		for k, v := range a.Meta {
			if b.Meta[k] != v {
				return false
			}
		}
	}
	return true
}

// SnapshotKey identifies one cached snapshot.
type SnapshotKey struct {
	User   shared.UserID
	Course shared.CourseID
	Badge  shared.BadgeID
}

// SnapshotStore is the durable snapshot repository. The redis layer adds a
// hot cache in front; both are written through on derivation.
type SnapshotStore interface {
	// Get returns the stored snapshot, shared.ErrNotFound when absent, or an
	// error wrapping shared.ErrCorruptData when the payload cannot decode.
	Get(ctx context.Context, key SnapshotKey) (Snapshot, error)

	// Put stores the snapshot, overwriting any previous value
	// (last-writer-wins between the engine and the reconciler).
	Put(ctx context.Context, snap Snapshot) error

	// Delete removes the snapshot, used when the owning user or course is gone.
	Delete(ctx context.Context, key SnapshotKey) error

	// Keys lists all stored snapshot keys, for reconciler sampling.
	Keys(ctx context.Context) ([]SnapshotKey, error)
}
