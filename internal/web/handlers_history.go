package web

import (
	"net/http"
)

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Undo(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.service.History())
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Redo(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.service.History())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.History())
}

func (s *Server) handleGetOpenFacts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"open": s.service.OpenFacts()})
}

// handleSetOpenFacts replaces the default open set used by views that do
// not pass their own.
func (s *Server) handleSetOpenFacts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Open []string `json:"open"`
	}
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := s.service.SetOpenFacts(r.Context(), req.Open); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"open": s.service.OpenFacts()})
}
