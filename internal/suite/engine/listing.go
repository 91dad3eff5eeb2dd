package engine

import (
	"github.com/kingrea/depends/internal/suite"
	"github.com/kingrea/depends/internal/suite/scheduler"
)

// NameEntry lists the items a single name refers to.
type NameEntry struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// DependencyEntry lists the resolved and missing dependencies of one item.
type DependencyEntry struct {
	ID           string   `json:"id"`
	Dependencies []string `json:"dependencies,omitempty"`
	Missing      []string `json:"missing,omitempty"`
}

// DependentEntry lists the items that depend on one item.
type DependentEntry struct {
	ID         string   `json:"id"`
	Dependents []string `json:"dependents,omitempty"`
}

// Names returns every registered name with the identifiers it resolves to,
// sorted by name.
func (c *Coordinator) Names() ([]NameEntry, error) {
	c.mu.RLock()
	res := c.resolver
	c.mu.RUnlock()
	if res == nil {
		return nil, suite.Configf(suite.ErrNotRegistered, "names requested before registration")
	}
	idx := res.Index()
	names := idx.Names()
	out := make([]NameEntry, 0, len(names))
	for _, name := range names {
		out = append(out, NameEntry{Name: name, Items: suite.IDs(idx.Lookup(name))})
	}
	return out, nil
}

// Dependencies returns the dependency listing in collection order.
func (c *Coordinator) Dependencies() ([]DependencyEntry, error) {
	c.mu.RLock()
	res := c.resolver
	c.mu.RUnlock()
	if res == nil {
		return nil, suite.Configf(suite.ErrNotRegistered, "dependencies requested before registration")
	}
	nodes := res.Nodes()
	out := make([]DependencyEntry, 0, len(nodes))
	for _, node := range nodes {
		entry := DependencyEntry{ID: node.ID, Dependencies: node.DependencyIDs()}
		if len(node.Unresolved) > 0 {
			entry.Missing = append([]string(nil), node.Unresolved...)
		}
		if len(entry.Dependencies) == 0 {
			entry.Dependencies = nil
		}
		out = append(out, entry)
	}
	return out, nil
}

// Dependents returns, in collection order, the items each item is needed by.
func (c *Coordinator) Dependents() ([]DependentEntry, error) {
	c.mu.RLock()
	res := c.resolver
	c.mu.RUnlock()
	if res == nil {
		return nil, suite.Configf(suite.ErrNotRegistered, "dependents requested before registration")
	}
	nodes := res.Nodes()
	g := scheduler.New(nodes)
	out := make([]DependentEntry, 0, g.Len())
	for i := 0; i < g.Len(); i++ {
		entry := DependentEntry{ID: nodes[i].ID}
		if dependents := g.Dependents(i); len(dependents) > 0 {
			entry.Dependents = dependents
		}
		out = append(out, entry)
	}
	return out, nil
}
