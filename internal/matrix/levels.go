package matrix

import "fmt"

// LevelStrategy selects how display layers are assigned.
type LevelStrategy string

const (
	// LevelsBFS assigns each node the depth at which a breadth-first walk
	// from the sources first dequeues it. An edge may point to an equal or
	// lower layer when a node is reachable along paths of different length.
	LevelsBFS LevelStrategy = "bfs"

	// LevelsLongest assigns each node the length of the longest path from a
	// source, so every edge points to a strictly deeper layer.
	LevelsLongest LevelStrategy = "longest"
)

// ParseLevelStrategy validates a strategy name. Empty means LevelsBFS.
func ParseLevelStrategy(s string) (LevelStrategy, error) {
	switch LevelStrategy(s) {
	case "", LevelsBFS:
		return LevelsBFS, nil
	case LevelsLongest:
		return LevelsLongest, nil
	default:
		return "", fmt.Errorf("unknown level strategy %q (want bfs or longest)", s)
	}
}

// AssignLevels computes a layer for every node of g.
//
// Nodes that no source reaches (members of a cycle in a collapsed view) are
// seeded at layer 0 in node order after the sources are exhausted.
func AssignLevels(g *Digraph, strategy LevelStrategy) map[string]int {
	if strategy == LevelsLongest {
		return longestPathLevels(g)
	}
	return bfsLevels(g)
}

func bfsLevels(g *Digraph) map[string]int {
	levels := make(map[string]int, g.Len())
	type item struct {
		node  string
		level int
	}
	var queue []item
	for _, n := range g.nodes {
		if g.InDegree(n) == 0 {
			queue = append(queue, item{n, 0})
		}
	}
	drain := func() {
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if _, done := levels[cur.node]; done {
				continue
			}
			levels[cur.node] = cur.level
			for _, s := range g.Successors(cur.node) {
				if _, done := levels[s]; !done {
					queue = append(queue, item{s, cur.level + 1})
				}
			}
		}
	}
	drain()
	for _, n := range g.nodes {
		if _, done := levels[n]; !done {
			queue = append(queue, item{n, 0})
			drain()
		}
	}
	return levels
}

func longestPathLevels(g *Digraph) map[string]int {
	levels := make(map[string]int, g.Len())
	indeg := make(map[string]int, g.Len())
	var queue []string
	for _, n := range g.nodes {
		indeg[n] = g.InDegree(n)
		if indeg[n] == 0 {
			queue = append(queue, n)
			levels[n] = 0
		}
	}
	done := make(map[string]bool, g.Len())
	for {
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			done[n] = true
			for _, s := range g.Successors(n) {
				if done[s] {
					continue
				}
				if l := levels[n] + 1; l > levels[s] {
					levels[s] = l
				}
				indeg[s]--
				if indeg[s] == 0 {
					queue = append(queue, s)
				}
			}
		}
		// Break a remaining cycle at its first node in insertion order.
		var stuck string
		for _, n := range g.nodes {
			if !done[n] && indeg[n] > 0 {
				stuck = n
				break
			}
		}
		if stuck == "" {
			return levels
		}
		indeg[stuck] = 0
		if _, ok := levels[stuck]; !ok {
			levels[stuck] = 0
		}
		queue = append(queue, stuck)
	}
}
