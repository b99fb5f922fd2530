package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/harris/internal/core"
)

// linkRequest names the two units a link command connects. For relations
// From is the origin (above) and To the destination; for members From is
// the fact.
type linkRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// link returns the handler for one of the pairwise link commands.
func (s *Server) link(action core.AuditAction) http.HandlerFunc {
	var apply func(ctx context.Context, from, to string) error
	switch action {
	case core.ActionRelationAdd:
		apply = s.service.AddRelation
	case core.ActionRelationRemove:
		apply = s.service.RemoveRelation
	case core.ActionEquivalenceAdd:
		apply = s.service.AddEquivalence
	case core.ActionEquivalenceRemove:
		apply = s.service.RemoveEquivalence
	case core.ActionMemberAdd:
		apply = s.service.AddFactMember
	case core.ActionMemberRemove:
		apply = s.service.RemoveFactMember
	default:
		panic("web: no link command for " + string(action))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req linkRequest
		if err := decodeJSON(r, &req); err != nil {
			fail(w, r, err)
			return
		}
		if err := apply(r.Context(), req.From, req.To); err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s.service.History())
	}
}
