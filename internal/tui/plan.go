package tui

import (
	"github.com/kingrea/depends/internal/gotest"
	"github.com/kingrea/depends/internal/suite/engine"
	"github.com/kingrea/depends/internal/suite/policy"
)

// Entry is one row of the plan browser.
type Entry struct {
	ID           string
	Dependencies []string
	Missing      []string
	Dependents   []string
	// Verdict is set when the plan was replayed against test results.
	Verdict *policy.Verdict
}

// Entries lists the registered items in execution order together with their
// dependencies and dependents. Verdicts, when given, are attached by id.
func Entries(c *engine.Coordinator, verdicts []gotest.ItemVerdict) ([]Entry, error) {
	order, err := c.Order()
	if err != nil {
		return nil, err
	}
	deps, err := c.Dependencies()
	if err != nil {
		return nil, err
	}
	needed, err := c.Dependents()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]engine.DependencyEntry, len(deps))
	for _, entry := range deps {
		byID[entry.ID] = entry
	}
	dependents := make(map[string][]string, len(needed))
	for _, entry := range needed {
		dependents[entry.ID] = entry.Dependents
	}
	decided := make(map[string]policy.Verdict, len(verdicts))
	for _, v := range verdicts {
		decided[v.ID] = v.Verdict
	}

	out := make([]Entry, 0, len(order))
	for _, item := range order {
		id := item.NodeID()
		entry := Entry{
			ID:           id,
			Dependencies: byID[id].Dependencies,
			Missing:      byID[id].Missing,
			Dependents:   dependents[id],
		}
		if v, ok := decided[id]; ok {
			v := v
			entry.Verdict = &v
		}
		out = append(out, entry)
	}
	return out, nil
}
