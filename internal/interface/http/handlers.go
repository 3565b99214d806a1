package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tumae-app/tumae-match-engine/internal/application/command"
	"github.com/tumae-app/tumae-match-engine/internal/application/query"
	"github.com/tumae-app/tumae-match-engine/internal/domain/matching"
	"github.com/tumae-app/tumae-match-engine/internal/domain/reputation"
	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
	"github.com/tumae-app/tumae-match-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "Tumae Matching Engine API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":  "/health",
			"accept":  "/api/v1/questions/{id}/accept",
			"matches": "/api/v1/matches",
			"ranking": "/api/v1/ranking",
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

	// Default health response
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
// ACCEPT ANSWER HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// acceptAnswerRequest is the POST body for the accept endpoint.
type acceptAnswerRequest struct {
	AnswerID int64 `json:"answer_id"`
}

// handleAcceptAnswer handles POST /api/v1/questions/{id}/accept.
// The caller identity comes from the X-User-ID header, populated by the
// identity collaborator at the gateway; the engine trusts it as-is.
func (s *Server) handleAcceptAnswer(w http.ResponseWriter, r *http.Request) {
	if s.deps.AcceptAnswerHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Accept handler not configured")
		return
	}

	questionID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Question ID must be a positive integer")
		return
	}

	callerID, err := callerID(r)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "X-User-ID header is required")
		return
	}

	var req acceptAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	cmd := command.AcceptAnswerCommand{
		QuestionID: shared.QuestionID(questionID),
		AnswerID:   shared.AnswerID(req.AnswerID),
		CallerID:   callerID,
	}

	result, err := s.deps.AcceptAnswerHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "accept answer")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// MATCH HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// handleComputeMatches handles GET /api/v1/matches.
//
// Query parameters:
//
//	subject   - required subject id
//	region    - optional region id
//	rate_min  - optional lower rate bound (default: marketplace default)
//	rate_max  - optional upper rate bound
//	slot      - repeatable availability window "day:start:end" in minutes
//	limit     - page size
//	offset    - page offset
func (s *Server) handleComputeMatches(w http.ResponseWriter, r *http.Request) {
	if s.deps.ComputeMatchesHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Match handler not configured")
		return
	}

	subject := getQueryParamInt64(r, "subject", 0)
	criteria := matching.StudentCriteria{
		Subject:      shared.SubjectID(subject),
		Region:       shared.RegionID(getQueryParamInt64(r, "region", 0)),
		RateMin:      getQueryParamInt64(r, "rate_min", matching.DefaultRateMin),
		RateMax:      getQueryParamInt64(r, "rate_max", matching.DefaultRateMax),
		Availability: nil,
	}

	windows, err := parseWindows(r.URL.Query()["slot"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	criteria.Availability = windows

	q := query.ComputeMatchesQuery{
		Criteria: criteria,
		Page: shared.Page{
			Offset: getQueryParamInt(r, "offset", 0),
			Limit:  getQueryParamInt(r, "limit", shared.DefaultPageSize),
		},
	}

	result, err := s.deps.ComputeMatchesHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "compute matches")
		return
	}

	meta := &ResponseMeta{
		TotalCount: result.TotalCandidates,
		Offset:     q.Page.Offset,
		Limit:      q.Page.Limit,
		HasMore:    q.Page.Offset+len(result.Matches) < result.TotalCandidates,
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetRanking handles GET /api/v1/ranking.
func (s *Server) handleGetRanking(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetRankingHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Ranking handler not configured")
		return
	}

	q := query.GetRankingQuery{
		Filter: reputation.RankingFilter{
			Subject: shared.SubjectID(getQueryParamInt64(r, "subject", 0)),
			Region:  shared.RegionID(getQueryParamInt64(r, "region", 0)),
		},
		Page: shared.Page{
			Offset: getQueryParamInt(r, "offset", 0),
			Limit:  getQueryParamInt(r, "limit", shared.DefaultPageSize),
		},
	}

	result, err := s.deps.GetRankingHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "get ranking")
		return
	}

	meta := &ResponseMeta{
		Offset: q.Page.Offset,
		Limit:  q.Page.Limit,
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// handleGetReputation handles GET /api/v1/tutors/{id}/reputation.
func (s *Server) handleGetReputation(w http.ResponseWriter, r *http.Request) {
	if s.deps.Counters == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Counter store not configured")
		return
	}

	tutorID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Tutor ID must be a positive integer")
		return
	}

	value, err := s.deps.Counters.Get(r.Context(), shared.UserID(tutorID))
	if err != nil {
		s.writeDomainError(w, r, err, "get reputation")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tutor_id":   tutorID,
		"reputation": value,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError translates domain errors into HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsForbidden(err):
		writeJSONError(w, http.StatusForbidden, "forbidden", err.Error())
	case shared.IsConflict(err):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	default:
		s.logger.Error("request failed",
			logger.String("operation", op),
			logger.Err(err),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST PARSING HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// callerID reads the authenticated caller from the X-User-ID header.
func callerID(r *http.Request) (shared.UserID, error) {
	raw := r.Header.Get("X-User-ID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("missing or invalid X-User-ID header")
	}
	return shared.UserID(id), nil
}

// pathID parses a positive integer path segment.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s path parameter", name)
	}
	return id, nil
}

// parseWindows parses repeated "day:start:end" slot parameters into
// availability windows. Validation of the window bounds happens in the
// domain layer; this only parses the shape.
func parseWindows(slots []string) ([]matching.Window, error) {
	if len(slots) == 0 {
		return nil, nil
	}

	windows := make([]matching.Window, 0, len(slots))
	for _, slot := range slots {
		parts := strings.Split(slot, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("slot %q must have the form day:start:end", slot)
		}

		day, err1 := strconv.Atoi(parts[0])
		start, err2 := strconv.Atoi(parts[1])
		end, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, fmt.Errorf("slot %q must contain integers", slot)
		}

		windows = append(windows, matching.Window{
			Day:   matching.Weekday(day),
			Start: start,
			End:   end,
		})
	}

	return windows, nil
}

// getQueryParamInt extracts an integer query parameter with a default value.
func getQueryParamInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return result
}

// getQueryParamInt64 extracts an int64 query parameter with a default value.
func getQueryParamInt64(r *http.Request, key string, defaultValue int64) int64 {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return result
}
