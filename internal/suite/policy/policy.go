// Package policy decides, right before an item runs, whether missing or
// unsuccessful dependencies should let it run, skip it, or fail it.
package policy

import (
	"fmt"
	"strings"

	"github.com/kingrea/depends/internal/suite"
)

// Action is the configured reaction to a dependency problem.
type Action string

const (
	ActionRun  Action = "run"
	ActionSkip Action = "skip"
	ActionFail Action = "fail"
)

// DefaultAction applies when nothing is configured.
const DefaultAction = ActionSkip

// ParseAction converts a raw action name. Empty input yields DefaultAction.
func ParseAction(raw string) (Action, error) {
	value := Action(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return DefaultAction, nil
	}
	if !value.Valid() {
		return "", suite.Configf(suite.ErrInvalidPolicy, "action %q (want run, skip or fail)", raw)
	}
	return value, nil
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionRun, ActionSkip, ActionFail:
		return true
	}
	return false
}

// CheckOrder decides which check wins when both would block an item.
type CheckOrder string

const (
	MissingFirst CheckOrder = "missing-first"
	FailedFirst  CheckOrder = "failed-first"
)

// ParseCheckOrder converts a raw order name. Empty input yields MissingFirst.
func ParseCheckOrder(raw string) (CheckOrder, error) {
	value := CheckOrder(strings.ToLower(strings.TrimSpace(raw)))
	switch value {
	case "":
		return MissingFirst, nil
	case MissingFirst, FailedFirst:
		return value, nil
	}
	return "", suite.Configf(suite.ErrInvalidPolicy, "check order %q (want missing-first or failed-first)", raw)
}

// Policy is configured once per run.
type Policy struct {
	Missing Action     `yaml:"missing" json:"missing"`
	Failed  Action     `yaml:"failed" json:"failed"`
	Order   CheckOrder `yaml:"order,omitempty" json:"order,omitempty"`
}

// Default skips items with missing or failed dependencies.
func Default() Policy {
	return Policy{Missing: DefaultAction, Failed: DefaultAction, Order: MissingFirst}
}

// Validate rejects unknown actions and orders.
func (p Policy) Validate() error {
	if !p.Missing.Valid() {
		return suite.Configf(suite.ErrInvalidPolicy, "missing-dependency action %q", string(p.Missing))
	}
	if !p.Failed.Valid() {
		return suite.Configf(suite.ErrInvalidPolicy, "failed-dependency action %q", string(p.Failed))
	}
	switch p.Order {
	case "", MissingFirst, FailedFirst:
		return nil
	}
	return suite.Configf(suite.ErrInvalidPolicy, "check order %q", string(p.Order))
}

// Reason identifies which check produced a verdict.
type Reason string

const (
	ReasonNone    Reason = ""
	ReasonMissing Reason = "missing"
	ReasonFailed  Reason = "failed"
)

// Verdict is the disposition of one item before it runs.
type Verdict struct {
	Action  Action
	Reason  Reason
	Message string
	// Missing lists the declared references that matched no item.
	Missing []string
	// Failed lists the resolved dependencies that did not succeed.
	Failed []string
}

// Blocked reports whether the item must not run.
func (v Verdict) Blocked() bool {
	return v.Action == ActionSkip || v.Action == ActionFail
}

// Evaluate applies p to the problems found for the item id. Each check fires
// independently; a "run" from one never masks a skip or fail from the other.
func (p Policy) Evaluate(id string, missing, failed []string) Verdict {
	verdict := Verdict{
		Action:  ActionRun,
		Missing: cloneStrings(missing),
		Failed:  cloneStrings(failed),
	}
	checks := []Reason{ReasonMissing, ReasonFailed}
	if p.Order == FailedFirst {
		checks = []Reason{ReasonFailed, ReasonMissing}
	}
	for _, reason := range checks {
		action, names := p.Missing, missing
		if reason == ReasonFailed {
			action, names = p.Failed, failed
		}
		if len(names) == 0 || action == ActionRun {
			continue
		}
		verdict.Action = action
		verdict.Reason = reason
		verdict.Message = message(id, reason, names)
		return verdict
	}
	return verdict
}

func message(id string, reason Reason, names []string) string {
	list := strings.Join(names, ", ")
	if reason == ReasonMissing {
		return fmt.Sprintf("%s depends on %s, which was not found", id, list)
	}
	return fmt.Sprintf("%s depends on %s, which did not pass", id, list)
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
