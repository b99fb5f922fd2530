package matrix

// state is one full snapshot of the undoable dataset.
type state struct {
	store   *Store
	palette Palette
}

func (st state) clone() state {
	return state{store: st.store.Clone(), palette: st.palette.Clone()}
}

// History is a pair of undo/redo stacks of full snapshots. A positive limit
// caps the undo stack, dropping the oldest entries first.
type History struct {
	undo  []state
	redo  []state
	limit int
}

// NewHistory returns empty stacks. limit <= 0 means unbounded.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// record pushes the pre-mutation state and clears the redo stack. The engine
// never mutates a state once it has been replaced, so no copy is taken here.
func (h *History) record(prev state) {
	h.undo = append(h.undo, prev)
	if h.limit > 0 && len(h.undo) > h.limit {
		h.undo = append(h.undo[:0:0], h.undo[len(h.undo)-h.limit:]...)
	}
	h.redo = nil
}

// stepBack pops the undo stack, saving cur for redo. ok is false when there
// is nothing to undo.
func (h *History) stepBack(cur state) (state, bool) {
	if len(h.undo) == 0 {
		return state{}, false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, cur)
	return prev, true
}

// stepForward is the mirror of stepBack.
func (h *History) stepForward(cur state) (state, bool) {
	if len(h.redo) == 0 {
		return state{}, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, cur)
	return next, true
}

// CanUndo reports whether an undo is available.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether a redo is available.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (h *History) Depth() (undo, redo int) { return len(h.undo), len(h.redo) }

// Reset drops both stacks.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
}
