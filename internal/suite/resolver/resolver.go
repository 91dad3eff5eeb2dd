// Package resolver turns the dependency references declared by each item into
// concrete item sets. Every item is resolved once, when the resolver is built,
// and the result is cached for the rest of the run.
package resolver

import (
	"github.com/kingrea/depends/internal/nodeid"
	"github.com/kingrea/depends/internal/suite"
	"github.com/kingrea/depends/internal/suite/index"
)

// Node captures an item together with its resolved dependency metadata.
type Node struct {
	ID   string
	Item *suite.Item
	// Dependencies holds every item matched by any declared reference, in
	// first-match order and without duplicates.
	Dependencies []*suite.Item
	// Unresolved holds the declared references, verbatim, that matched nothing.
	Unresolved []string
}

// DependencyIDs returns the normalized identifiers of the resolved dependencies.
func (n *Node) DependencyIDs() []string {
	return suite.IDs(n.Dependencies)
}

// Resolver holds the cached resolution for every item of a run.
type Resolver struct {
	index      *index.Index
	nodes      map[string]*Node
	orderedIDs []string
}

// New resolves the declared references of every item against idx.
func New(items []*suite.Item, idx *index.Index) *Resolver {
	r := &Resolver{
		index:      idx,
		nodes:      make(map[string]*Node, len(items)),
		orderedIDs: make([]string, 0, len(items)),
	}
	for _, item := range items {
		node := r.resolve(item)
		r.nodes[node.ID] = node
		r.orderedIDs = append(r.orderedIDs, node.ID)
	}
	return r
}

func (r *Resolver) resolve(item *suite.Item) *Node {
	node := &Node{ID: item.NodeID(), Item: item}
	seen := make(map[*suite.Item]struct{}, len(item.DependsOn))
	for _, ref := range item.DependsOn {
		name := ref
		if !r.index.Contains(name) {
			name = nodeid.ResolveRelative(ref, node.ID)
		}
		matches := r.index.Lookup(name)
		if len(matches) == 0 {
			node.Unresolved = append(node.Unresolved, ref)
			continue
		}
		for _, dep := range matches {
			if _, dup := seen[dep]; dup {
				continue
			}
			seen[dep] = struct{}{}
			node.Dependencies = append(node.Dependencies, dep)
		}
	}
	return node
}

// Node retrieves the resolution for a normalized item identifier.
func (r *Resolver) Node(id string) (*Node, bool) {
	node, ok := r.nodes[nodeid.Normalize(id)]
	return node, ok
}

// Nodes returns the resolutions in collection order.
func (r *Resolver) Nodes() []*Node {
	out := make([]*Node, 0, len(r.orderedIDs))
	for _, id := range r.orderedIDs {
		out = append(out, r.nodes[id])
	}
	return out
}

// Index exposes the name index the resolver was built on.
func (r *Resolver) Index() *index.Index {
	return r.index
}
