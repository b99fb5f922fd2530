package matrix

// TransitiveReduction returns a copy of g without redundant edges: an edge
// u->v is dropped when v stays reachable from u through another path.
//
// Edges are examined one at a time against the partially reduced graph, so
// reachability is preserved even if g has cycles. On a DAG the result is the
// unique Hasse diagram.
func TransitiveReduction(g *Digraph) *Digraph {
	r := g.Clone()
	for _, e := range g.Edges() {
		if e.From == e.To {
			continue
		}
		if r.Reachable(e.From, e.To, &e) {
			r.RemoveEdge(e.From, e.To)
		}
	}
	return r
}
