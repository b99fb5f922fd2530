package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleGraph returns the layered display graph.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	v, err := s.service.DisplayGraph(r.Context(), s.parseViewOptions(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleMatrix returns the Harris matrix of the display graph.
func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	m, err := s.service.Matrix(r.Context(), s.parseViewOptions(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleView returns the graph, the matrix, the legend and the history state
// of one revision, so a renderer can draw a frame from a single response.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	f, err := s.service.Frame(r.Context(), s.parseViewOptions(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// handleResolve reports which node a unit is drawn as.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	visible, err := s.service.ResolveVisibleCode(parseOpen(r), code)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"code": code, "visible": visible})
}

func (s *Server) handleListPhases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Phases())
}

// handleSetPhaseColor assigns a #RRGGBB color to a phase.
func (s *Server) handleSetPhaseColor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Color string `json:"color"`
	}
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	phase := chi.URLParam(r, "phase")
	if err := s.service.SetPhaseColor(r.Context(), phase, req.Color); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.service.Phases())
}
