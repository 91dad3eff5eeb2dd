// Package scheduler builds the dependency graph of a run and linearizes it.
// The produced order is stable with respect to collection order: among the
// items whose dependencies are satisfied, the one collected first runs first.
package scheduler

import (
	"container/heap"

	"github.com/kingrea/depends/internal/suite"
	"github.com/kingrea/depends/internal/suite/resolver"
)

// Graph is a directed graph with one node per item and one edge per
// (dependency -> dependent) pair. Nodes are addressed by collection position.
type Graph struct {
	items    []*suite.Item
	outgoing [][]int
	indeg    []int
}

// New builds the graph for every resolved node. Isolated items are kept;
// unresolved references contribute no edge.
func New(nodes []*resolver.Node) *Graph {
	g := &Graph{
		items:    make([]*suite.Item, len(nodes)),
		outgoing: make([][]int, len(nodes)),
		indeg:    make([]int, len(nodes)),
	}
	pos := make(map[*suite.Item]int, len(nodes))
	for i, node := range nodes {
		g.items[i] = node.Item
		pos[node.Item] = i
	}
	for to, node := range nodes {
		for _, dep := range node.Dependencies {
			from, ok := pos[dep]
			if !ok {
				continue
			}
			g.outgoing[from] = append(g.outgoing[from], to)
			g.indeg[to]++
		}
	}
	// Dependents are appended in position order already; the DFS relies on it.
	return g
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.items) }

// Dependents returns the identifiers of the items that depend on the item at
// position i.
func (g *Graph) Dependents(i int) []string {
	out := make([]string, 0, len(g.outgoing[i]))
	for _, j := range g.outgoing[i] {
		out = append(out, g.items[j].NodeID())
	}
	return out
}

// Order returns every item such that each dependency precedes its dependents.
// A cycle is a configuration error naming the items that form it.
func (g *Graph) Order() ([]*suite.Item, error) {
	order := g.topoOrderIndices()
	if len(order) != len(g.items) {
		return nil, suite.CycleError(g.findCycle())
	}
	out := make([]*suite.Item, len(order))
	for i, idx := range order {
		out[i] = g.items[idx]
	}
	return out, nil
}

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topoOrderIndices runs Kahn's algorithm with the ready set ordered by
// collection position.
func (g *Graph) topoOrderIndices() []int {
	indeg := make([]int, len(g.indeg))
	copy(indeg, g.indeg)

	ready := &intMinHeap{}
	for i := range indeg {
		if indeg[i] == 0 {
			*ready = append(*ready, i)
		}
	}
	heap.Init(ready)

	out := make([]int, 0, len(indeg))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		out = append(out, n)
		for _, m := range g.outgoing[n] {
			indeg[m]--
			if indeg[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}
	return out
}

// findCycle extracts one closed cycle path, e.g. [a b c a], in dependency
// order. The walk visits nodes by position so the witness is deterministic.
func (g *Graph) findCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make([]int, len(g.items))
	parent := make([]int, len(g.items))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range g.outgoing[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// back-edge u -> v closes v ... u -> v
				cycle = append(cycle, v)
				for cur := u; cur != -1 && cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := range g.items {
		if color[i] == white && dfs(i) {
			break
		}
	}

	out := make([]string, 0, len(cycle))
	for i := len(cycle) - 1; i >= 0; i-- {
		out = append(out, g.items[cycle[i]].NodeID())
	}
	return out
}
