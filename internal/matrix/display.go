package matrix

// ViewOptions selects how the display graph is derived.
type ViewOptions struct {
	// Redundancy keeps transitively implied edges; when false the relation
	// graph is reduced to its Hasse diagram.
	Redundancy bool
	// Open overrides the engine's open facts when non-nil.
	Open []string
	// Filter restricts edges to those with at least one matching endpoint.
	Filter Filter
}

// Node is a unit drawn in the display graph.
type Node struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`
	Phase string `json:"phase,omitempty"`
	Color string `json:"color"`
	Level int    `json:"level"`
}

// View is the derived, read-only graph handed to renderers.
type View struct {
	Nodes        []Node         `json:"nodes"`
	Edges        []Edge         `json:"edges"`
	Equivalences []Edge         `json:"equivalences"`
	Members      []Edge         `json:"members"`
	Levels       map[string]int `json:"levels"`
	NotDrawn     []string       `json:"not_drawn"`
	FilteredOut  []string       `json:"filtered_out"`
	Open         []string       `json:"open"`
	Redundancy   bool           `json:"redundancy"`
	Strategy     LevelStrategy  `json:"level_strategy"`

	// relations holds the collapsed relation pairs before reduction; the
	// filtered export checks membership against it.
	relations map[Edge]bool
}

// HasRelation reports whether a or b are linked by a displayed relation in
// either direction, before reduction.
func (v *View) HasRelation(a, b string) bool {
	return v.relations[Edge{a, b}] || v.relations[Edge{b, a}]
}

// HasEquivalence reports whether a and b are displayed as equivalent.
func (v *View) HasEquivalence(a, b string) bool {
	for _, e := range v.Equivalences {
		if (e.From == a && e.To == b) || (e.From == b && e.To == a) {
			return true
		}
	}
	return false
}

type pairSet struct {
	seen  map[Edge]bool
	pairs []Edge
}

// add records a pair once, ignoring direction.
func (p *pairSet) add(a, b string) {
	if p.seen == nil {
		p.seen = make(map[Edge]bool)
	}
	if p.seen[Edge{a, b}] || p.seen[Edge{b, a}] {
		return
	}
	p.seen[Edge{a, b}] = true
	p.pairs = append(p.pairs, Edge{a, b})
}

// DisplayGraph derives the layered graph for the current store.
func (e *Engine) DisplayGraph(opts ViewOptions) (*View, error) {
	open := opts.Open
	if open == nil {
		open = e.open
	}
	return BuildView(e.cur.store, e.cur.palette, open, opts, e.opts.LevelStrategy)
}

// BuildView derives the display graph of s.
//
// Relation and equivalence edges of structural units are redirected through
// the containment resolver, pairs that collapse into one node are dropped and
// duplicates are merged regardless of direction. An edge survives the filter
// when either endpoint matches. Nodes are the endpoints of surviving edges.
// Structural units that are not drawn and not collapsed into an open fact are
// reported as not drawn when they have no relation or equivalence at all, and
// as filtered out when the filter removed every edge they have.
func BuildView(s *Store, palette Palette, open []string, opts ViewOptions, strategy LevelStrategy) (*View, error) {
	m, err := opts.Filter.Compile()
	if err != nil {
		return nil, err
	}
	r := NewResolver(s, open)

	passes := make(map[string]bool, s.Len())
	for _, u := range s.Units() {
		passes[u.Code] = m.Match(u)
	}

	var rels, eqs, members pairSet
	related := make(map[string]bool)
	for _, u := range s.Units() {
		if !u.Kind.Structural() {
			continue
		}
		from := r.Resolve(u.Code)
		for _, c := range u.Children {
			to := r.Resolve(c)
			if from == to {
				continue
			}
			related[from], related[to] = true, true
			if passes[from] || passes[to] {
				rels.add(from, to)
			}
		}
		for _, q := range u.Equivalences {
			to := r.Resolve(q)
			if from == to {
				continue
			}
			related[from], related[to] = true, true
			if passes[from] || passes[to] {
				eqs.add(from, to)
			}
		}
	}
	for _, code := range s.Facts() {
		f, _ := s.Get(code)
		for _, mem := range f.Members {
			if passes[code] || passes[mem] {
				members.add(code, mem)
			}
		}
	}

	drawn := make(map[string]bool)
	for _, e := range rels.pairs {
		drawn[e.From], drawn[e.To] = true, true
	}
	for _, e := range eqs.pairs {
		drawn[e.From], drawn[e.To] = true, true
	}

	v := &View{
		Open:       r.Open(),
		Redundancy: opts.Redundancy,
		Strategy:   strategy,
		relations:  rels.seen,
		Members:    members.pairs,
	}

	g := NewDigraph()
	for _, u := range s.Units() {
		if drawn[u.Code] {
			g.AddNode(u.Code)
		} else if u.Kind.Structural() && r.Resolve(u.Code) == u.Code {
			if related[u.Code] {
				v.FilteredOut = append(v.FilteredOut, u.Code)
			} else {
				v.NotDrawn = append(v.NotDrawn, u.Code)
			}
		}
	}
	for _, e := range rels.pairs {
		g.AddEdge(e.From, e.To)
	}
	v.Levels = AssignLevels(g, strategy)

	shown := g
	if !opts.Redundancy {
		shown = TransitiveReduction(g)
	}
	v.Edges = shown.Edges()

	for _, e := range eqs.pairs {
		if !v.HasRelation(e.From, e.To) {
			v.Equivalences = append(v.Equivalences, e)
		}
	}

	for _, code := range g.Nodes() {
		u, _ := s.Get(code)
		v.Nodes = append(v.Nodes, Node{
			Code:  u.Code,
			Name:  u.Name,
			Kind:  u.Kind,
			Phase: u.Phase,
			Color: palette.Color(u.Phase),
			Level: v.Levels[code],
		})
	}
	return v, nil
}

// Matrix cell values.
const (
	CellNone        = 0
	CellRelation    = 1
	CellEquivalence = 2
)

// Matrix is the adjacency matrix of a view in node order. Rows are parents,
// columns children.
type Matrix struct {
	Codes []string `json:"codes"`
	Cells [][]int  `json:"cells"`
}

// Matrix renders the adjacency matrix of v.
func (v *View) Matrix() Matrix {
	m := Matrix{Codes: make([]string, len(v.Nodes))}
	pos := make(map[string]int, len(v.Nodes))
	for i, n := range v.Nodes {
		m.Codes[i] = n.Code
		pos[n.Code] = i
	}
	m.Cells = make([][]int, len(v.Nodes))
	for i := range m.Cells {
		m.Cells[i] = make([]int, len(v.Nodes))
	}
	for _, e := range v.Edges {
		m.Cells[pos[e.From]][pos[e.To]] = CellRelation
	}
	for _, e := range v.Equivalences {
		i, j := pos[e.From], pos[e.To]
		m.Cells[i][j] = CellEquivalence
		m.Cells[j][i] = CellEquivalence
	}
	return m
}
