package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-zwave/internal/audit"
)

// handleListAuditLogs returns journaled commands, newest first.
//
// Query parameters:
//   - command: filter by command name
//   - outcome: success or error
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeUnavailable(w, "audit logging not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Command: q.Get("command"),
		Outcome: audit.Outcome(q.Get("outcome")),
	}
	switch filter.Outcome {
	case audit.OutcomeAny, audit.OutcomeSuccess, audit.OutcomeError:
	default:
		writeBadRequest(w, "outcome must be success or error")
		return
	}

	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit logs", "error", err)
		writeInternalError(w, "failed to list audit logs")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
