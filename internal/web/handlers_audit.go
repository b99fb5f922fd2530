package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/harris/internal/core"
)

// handleAuditLog lists accepted commands, newest first. Supported filters:
// action, severity, unit, since (RFC 3339 or YYYY-MM-DD) and limit.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.AuditLogFilter{
		Action:   core.AuditAction(q.Get("action")),
		Severity: core.AuditSeverity(q.Get("severity")),
		Unit:     q.Get("unit"),
		Limit:    parseIntParam(r, "limit", 100),
	}
	if since := q.Get("since"); since != "" {
		if t, err := time.Parse(time.RFC3339, since); err == nil {
			filter.Since = t
		} else if t, err := time.Parse("2006-01-02", since); err == nil {
			filter.Since = t
		}
	}

	entries := s.service.Audit().List(filter)
	if entries == nil {
		entries = []core.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"total":   s.service.Audit().Len(),
	})
}

// handleAuditLogEntry returns a single audit entry.
func (s *Server) handleAuditLogEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.service.Audit().Get(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, r, errAuditNotFound, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
