package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/harris/internal/matrix"
)

func (s *Server) handleListUnits(w http.ResponseWriter, r *http.Request) {
	units := s.service.Units()
	if units == nil {
		units = []*matrix.Unit{}
	}
	writeJSON(w, http.StatusOK, units)
}

func (s *Server) handleGetUnit(w http.ResponseWriter, r *http.Request) {
	u, err := s.service.Unit(chi.URLParam(r, "code"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// handleAddUnit creates a unit. The new unit's code is its name.
func (s *Server) handleAddUnit(w http.ResponseWriter, r *http.Request) {
	var in matrix.UnitInput
	if err := decodeJSON(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	if err := s.service.AddUnit(r.Context(), in); err != nil {
		fail(w, r, err)
		return
	}
	u, err := s.service.Unit(strings.TrimSpace(in.Name))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// handleEditUnit updates the scalar fields of a unit; a new name renames it
// everywhere it is referenced.
func (s *Server) handleEditUnit(w http.ResponseWriter, r *http.Request) {
	var in matrix.UnitInput
	if err := decodeJSON(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	if err := s.service.EditUnit(r.Context(), chi.URLParam(r, "code"), in); err != nil {
		fail(w, r, err)
		return
	}
	u, err := s.service.Unit(strings.TrimSpace(in.Name))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUnit(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteUnits(r.Context(), chi.URLParam(r, "code")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteUnits removes several units as one undoable step.
func (s *Server) handleDeleteUnits(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Codes []string `json:"codes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := s.service.DeleteUnits(r.Context(), req.Codes...); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": len(req.Codes)})
}
