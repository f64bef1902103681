package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/learnhub/badge-engine/internal/domain/shared"
	"github.com/learnhub/badge-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "Badge Engine API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":   "/health",
			"evidence": "/api/v1/users/{id}/courses/{course}/badges/{badge}/evidence",
			"awards":   "/api/v1/users/{id}/courses/{course}/awards",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// EVIDENCE HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// evidenceEntryDTO is one rendered evidence line.
type evidenceEntryDTO struct {
	Description string            `json:"description"`
	Occurrence  int               `json:"occurrence"`
	Meta        map[string]string `json:"meta,omitempty"`
}

// evidenceDTO is the evidence read model served to the presentation layer.
type evidenceDTO struct {
	UserID     string             `json:"user_id"`
	CourseID   string             `json:"course_id"`
	BadgeID    string             `json:"badge_id"`
	Activities []string           `json:"activities"`
	Entries    []evidenceEntryDTO `json:"entries"`
	DerivedAt  string             `json:"derived_at"`
}

// handleGetEvidence handles
// GET /api/v1/users/{id}/courses/{course}/badges/{badge}/evidence.
// The optional force=1 parameter bypasses both cache tiers.
func (s *Server) handleGetEvidence(w http.ResponseWriter, r *http.Request) {
	if s.deps.Evidence == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Evidence reader not configured")
		return
	}

	user, course, ok := s.parseUserCourse(w, r)
	if !ok {
		return
	}
	badgeID, err := shared.NewBadgeID(r.PathValue("badge"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid badge ID")
		return
	}

	force := getQueryParamBool(r, "force")

	snap, err := s.deps.Evidence.Get(r.Context(), user, course, badgeID, force)
	if err != nil {
		if shared.IsNotFound(err) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Unknown badge")
			return
		}
		s.logger.Error("failed to get evidence", logger.Err(err), logger.String("user_id", user.String()))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to get evidence")
		return
	}

	dto := evidenceDTO{
		UserID:     snap.UserID.String(),
		CourseID:   snap.CourseID.String(),
		BadgeID:    snap.BadgeID.String(),
		Activities: snap.Activities(),
		Entries:    make([]evidenceEntryDTO, 0, len(snap.Entries)),
		DerivedAt:  snap.DerivedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	for _, e := range snap.Entries {
		dto.Entries = append(dto.Entries, evidenceEntryDTO{
			Description: e.Description,
			Occurrence:  e.Occurrence,
			Meta:        e.Meta,
		})
	}

	writeJSON(w, http.StatusOK, dto)
}

// ══════════════════════════════════════════════════════════════════════════════
// AWARDS HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// handleGetAwards handles GET /api/v1/users/{id}/courses/{course}/awards.
func (s *Server) handleGetAwards(w http.ResponseWriter, r *http.Request) {
	if s.deps.Awards == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Award history not configured")
		return
	}

	user, course, ok := s.parseUserCourse(w, r)
	if !ok {
		return
	}

	result, err := s.deps.Awards.ListByCourse(r.Context(), user, course)
	if err != nil {
		s.logger.Error("failed to list awards", logger.Err(err), logger.String("user_id", user.String()))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to list awards")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// revokeRequest is the admin revocation payload.
type revokeRequest struct {
	UserID   string `json:"user_id"`
	BadgeID  string `json:"badge_id"`
	CourseID string `json:"course_id"`
	Reason   string `json:"reason,omitempty"`
}

// handleRevokeAward handles POST /api/v1/admin/awards/revoke.
// Revocation removes ledger records only: consumed evidence stays, XP stays.
func (s *Server) handleRevokeAward(w http.ResponseWriter, r *http.Request) {
	if s.deps.Revoke == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Revoke command not configured")
		return
	}

	var req revokeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	user, err := shared.NewUserID(req.UserID)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid user ID")
		return
	}
	badgeID, err := shared.NewBadgeID(req.BadgeID)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid badge ID")
		return
	}
	course, err := shared.NewCourseID(req.CourseID)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid course ID")
		return
	}

	removed, err := s.deps.Revoke.Execute(r.Context(), user, badgeID, course, req.Reason)
	if err != nil {
		s.logger.Error("revocation failed", logger.Err(err), logger.String("user_id", req.UserID))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Revocation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// handleMigrateLegacy handles POST /api/v1/admin/legacy/migrate. The command
// is re-runnable, so repeating the request after a partial failure is safe.
func (s *Server) handleMigrateLegacy(w http.ResponseWriter, r *http.Request) {
	if s.deps.MigrateLegacy == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Migration command not configured")
		return
	}

	report, err := s.deps.MigrateLegacy.Execute(r.Context())
	if err != nil {
		s.logger.Error("legacy migration failed", logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Migration failed, rerun to resume")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"migrated": report.Migrated,
		"skipped":  report.Skipped,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST PARSING HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// parseUserCourse extracts and validates the {id} and {course} path values,
// writing the error response itself when either is invalid.
func (s *Server) parseUserCourse(w http.ResponseWriter, r *http.Request) (shared.UserID, shared.CourseID, bool) {
	user, err := shared.NewUserID(r.PathValue("id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid user ID")
		return "", "", false
	}
	course, err := shared.NewCourseID(r.PathValue("course"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid course ID")
		return "", "", false
	}
	return user, course, true
}

// decodeBody decodes a JSON request body of at most 1 MB, writing the error
// response itself on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body")
		return false
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return false
	}
	return true
}
