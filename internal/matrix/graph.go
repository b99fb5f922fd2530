package matrix

import "sort"

// Edge is a directed pair of codes.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Digraph is a small directed graph over codes. Node and edge iteration
// follows insertion order.
type Digraph struct {
	nodes []string
	index map[string]int
	out   [][]int
	in    []int
}

// NewDigraph returns an empty graph.
func NewDigraph() *Digraph {
	return &Digraph{index: make(map[string]int)}
}

// AddNode adds a node if missing and returns its index.
func (g *Digraph) AddNode(code string) int {
	if i, ok := g.index[code]; ok {
		return i
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, code)
	g.index[code] = i
	g.out = append(g.out, nil)
	g.in = append(g.in, 0)
	return i
}

// AddEdge adds from->to, creating missing nodes. Parallel edges are ignored.
func (g *Digraph) AddEdge(from, to string) {
	f, t := g.AddNode(from), g.AddNode(to)
	for _, x := range g.out[f] {
		if x == t {
			return
		}
	}
	g.out[f] = append(g.out[f], t)
	g.in[t]++
}

// RemoveEdge deletes from->to if present.
func (g *Digraph) RemoveEdge(from, to string) {
	f, ok := g.index[from]
	if !ok {
		return
	}
	t, ok := g.index[to]
	if !ok {
		return
	}
	for i, x := range g.out[f] {
		if x == t {
			g.out[f] = append(g.out[f][:i:i], g.out[f][i+1:]...)
			g.in[t]--
			return
		}
	}
}

// HasNode reports whether code is a node.
func (g *Digraph) HasNode(code string) bool {
	_, ok := g.index[code]
	return ok
}

// HasEdge reports whether from->to exists.
func (g *Digraph) HasEdge(from, to string) bool {
	f, ok := g.index[from]
	if !ok {
		return false
	}
	t, ok := g.index[to]
	if !ok {
		return false
	}
	for _, x := range g.out[f] {
		if x == t {
			return true
		}
	}
	return false
}

// Nodes returns the nodes in insertion order.
func (g *Digraph) Nodes() []string { return cloneList(g.nodes) }

// Len returns the number of nodes.
func (g *Digraph) Len() int { return len(g.nodes) }

// Successors returns the direct successors of code.
func (g *Digraph) Successors(code string) []string {
	i, ok := g.index[code]
	if !ok {
		return nil
	}
	out := make([]string, len(g.out[i]))
	for k, x := range g.out[i] {
		out[k] = g.nodes[x]
	}
	return out
}

// InDegree returns the number of edges entering code.
func (g *Digraph) InDegree(code string) int {
	i, ok := g.index[code]
	if !ok {
		return 0
	}
	return g.in[i]
}

// Edges returns every edge, grouped by source in node order.
func (g *Digraph) Edges() []Edge {
	var out []Edge
	for f, succ := range g.out {
		for _, t := range succ {
			out = append(out, Edge{From: g.nodes[f], To: g.nodes[t]})
		}
	}
	return out
}

// Clone returns a deep copy.
func (g *Digraph) Clone() *Digraph {
	c := NewDigraph()
	for _, n := range g.nodes {
		c.AddNode(n)
	}
	for _, e := range g.Edges() {
		c.AddEdge(e.From, e.To)
	}
	return c
}

// Reachable reports whether to can be reached from from by a path of one or
// more edges, ignoring the single edge skip when it is non-nil.
func (g *Digraph) Reachable(from, to string, skip *Edge) bool {
	f, ok := g.index[from]
	if !ok {
		return false
	}
	t, ok := g.index[to]
	if !ok {
		return false
	}
	var skipF, skipT = -1, -1
	if skip != nil {
		if i, ok := g.index[skip.From]; ok {
			skipF = i
		}
		if i, ok := g.index[skip.To]; ok {
			skipT = i
		}
	}
	visited := make([]bool, len(g.nodes))
	stack := []int{f}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, x := range g.out[n] {
			if n == skipF && x == skipT {
				continue
			}
			if x == t {
				return true
			}
			if !visited[x] {
				visited[x] = true
				stack = append(stack, x)
			}
		}
	}
	return false
}

// SimpleCycles enumerates elementary cycles, returning at most limit of them
// (limit <= 0 means no bound). Each cycle lists its nodes starting from the
// member that was inserted first.
//
// Strongly connected components are found first so the search only runs
// inside components that can hold a cycle.
func (g *Digraph) SimpleCycles(limit int) [][]string {
	var cycles [][]string
	full := func() bool { return limit > 0 && len(cycles) >= limit }

	for _, comp := range g.components() {
		if full() {
			break
		}
		if len(comp) == 1 {
			n := comp[0]
			if g.HasEdge(g.nodes[n], g.nodes[n]) {
				cycles = append(cycles, []string{g.nodes[n]})
			}
			continue
		}
		inComp := make(map[int]bool, len(comp))
		for _, n := range comp {
			inComp[n] = true
		}
		// comp is sorted by node index; each start only closes cycles whose
		// other members come later, so every cycle is reported once.
		for _, start := range comp {
			if full() {
				break
			}
			onPath := map[int]bool{start: true}
			path := []int{start}
			var walk func(n int)
			walk = func(n int) {
				for _, x := range g.out[n] {
					if full() {
						return
					}
					if !inComp[x] || x < start {
						continue
					}
					if x == start {
						c := make([]string, len(path))
						for i, p := range path {
							c[i] = g.nodes[p]
						}
						cycles = append(cycles, c)
						continue
					}
					if onPath[x] {
						continue
					}
					onPath[x] = true
					path = append(path, x)
					walk(x)
					path = path[:len(path)-1]
					delete(onPath, x)
				}
			}
			walk(start)
		}
	}
	return cycles
}

// components returns the strongly connected components (Tarjan), each sorted
// by node index, ordered by their smallest node index.
func (g *Digraph) components() [][]int {
	n := len(g.nodes)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var stack []int
	var comps [][]int
	next := 0

	var connect func(v int)
	connect = func(v int) {
		index[v] = next
		low[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true
		for _, w := range g.out[v] {
			if index[w] < 0 {
				connect(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], index[w])
			}
		}
		if low[v] == index[v] {
			var comp []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			comps = append(comps, comp)
		}
	}
	for v := 0; v < n; v++ {
		if index[v] < 0 {
			connect(v)
		}
	}

	for _, c := range comps {
		sort.Ints(c)
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i][0] < comps[j][0] })
	return comps
}

// WouldCreateCycle reports whether adding the edge origin->destination
// (a child or member edge) would close a cycle. The walk starts at
// destination and treats equivalent units as aliases of each other.
func WouldCreateCycle(s *Store, origin, destination string) bool {
	if origin == destination {
		return true
	}
	visited := make(map[string]bool)
	stack := []string{destination}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		if cur == origin {
			return true
		}
		u, ok := s.Get(cur)
		if !ok {
			continue
		}
		for _, lists := range [][]string{u.Equivalences, u.Children, u.Members} {
			for _, next := range lists {
				if !visited[next] {
					stack = append(stack, next)
				}
			}
		}
	}
	return false
}
