package suite

import (
	"fmt"
	"strings"

	"github.com/kingrea/depends/internal/nodeid"
)

// Item is a single collected test together with its declared dependency
// metadata. Items are owned by the host; nothing in this module mutates them.
type Item struct {
	ID        string   `json:"id" yaml:"id"`
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	Aliases   []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// NodeID returns the normalized identifier of the item.
func (it *Item) NodeID() string {
	return nodeid.Normalize(it.ID)
}

// Suite is an ordered collection of items as produced by a collection step.
type Suite struct {
	Name  string  `json:"name,omitempty" yaml:"name,omitempty"`
	Items []*Item `json:"items" yaml:"items"`
}

// Validate ensures every item has an identifier and no two items normalize to
// the same one.
func (s Suite) Validate() error {
	return ValidateItems(s.Items)
}

// ValidateItems applies the Suite validation rules to a bare item list.
func ValidateItems(items []*Item) error {
	seen := make(map[string]int, len(items))
	for idx, item := range items {
		if item == nil {
			return Configf(ErrUnknownItem, "item[%d] is nil", idx)
		}
		if strings.TrimSpace(item.ID) == "" {
			return Configf(ErrUnknownItem, "item[%d] has no id", idx)
		}
		id := item.NodeID()
		for _, ref := range item.DependsOn {
			if strings.TrimSpace(ref) == "" {
				return &ConfigError{
					Kind:  ErrUnknownItem,
					Msg:   fmt.Sprintf("%s declares a blank dependency reference", id),
					Items: []string{id},
				}
			}
		}
		if prev, exists := seen[id]; exists {
			return &ConfigError{
				Kind:  ErrDuplicateItem,
				Msg:   fmt.Sprintf("item[%d] and item[%d] are both %s", prev, idx, id),
				Items: []string{id},
			}
		}
		seen[id] = idx
	}
	return nil
}

// IDs returns the normalized identifiers in collection order.
func IDs(items []*Item) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.NodeID())
	}
	return ids
}
