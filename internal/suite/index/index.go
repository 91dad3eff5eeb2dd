// Package index maps every name an item can be referred to by onto the items
// that claim it.
package index

import (
	"sort"

	"github.com/kingrea/depends/internal/nodeid"
	"github.com/kingrea/depends/internal/suite"
)

// Index is read-only once built, so lookups need no locking.
type Index struct {
	names map[string][]*suite.Item
}

// Build registers every item under its identifier, its unparameterized
// identifier, its ancestor scopes and its declared aliases. Items sharing a
// name are kept in collection order.
func Build(items []*suite.Item) *Index {
	idx := &Index{names: make(map[string][]*suite.Item)}
	for _, item := range items {
		if item == nil {
			continue
		}
		for _, name := range namesOf(item) {
			idx.names[name] = append(idx.names[name], item)
		}
	}
	return idx
}

func namesOf(item *suite.Item) []string {
	names := nodeid.Names(item.ID)
	seen := make(map[string]struct{}, len(names)+len(item.Aliases))
	out := make([]string, 0, len(names)+len(item.Aliases))
	for _, name := range append(names, item.Aliases...) {
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Lookup returns the items registered under name. Unknown names yield an
// empty result.
func (x *Index) Lookup(name string) []*suite.Item {
	items := x.names[name]
	if len(items) == 0 {
		return nil
	}
	out := make([]*suite.Item, len(items))
	copy(out, items)
	return out
}

// Contains reports whether name is registered.
func (x *Index) Contains(name string) bool {
	_, ok := x.names[name]
	return ok
}

// Names returns every registered name in sorted order.
func (x *Index) Names() []string {
	out := make([]string, 0, len(x.names))
	for name := range x.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered names.
func (x *Index) Len() int {
	return len(x.names)
}
