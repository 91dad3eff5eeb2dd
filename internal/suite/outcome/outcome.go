// Package outcome records per-stage results for every item and derives a
// single pass/fail verdict from them.
package outcome

import (
	"fmt"
	"strings"
	"sync"

	"github.com/kingrea/depends/internal/nodeid"
	"github.com/kingrea/depends/internal/suite"
)

// Stage is one of the fixed execution phases of an item.
type Stage string

const (
	StageSetup    Stage = "setup"
	StageCall     Stage = "call"
	StageTeardown Stage = "teardown"
)

// Stages lists the fixed stages in execution order.
var Stages = []Stage{StageSetup, StageCall, StageTeardown}

// Valid reports whether s is one of the fixed stages.
func (s Stage) Valid() bool {
	switch s {
	case StageSetup, StageCall, StageTeardown:
		return true
	}
	return false
}

// ParseStage converts a raw stage name.
func ParseStage(raw string) (Stage, error) {
	stage := Stage(strings.ToLower(strings.TrimSpace(raw)))
	if !stage.Valid() {
		return "", suite.Configf(suite.ErrUnknownStage, "%q", raw)
	}
	return stage, nil
}

// Result is the outcome of a single stage.
type Result string

const (
	ResultPassed  Result = "passed"
	ResultFailed  Result = "failed"
	ResultSkipped Result = "skipped"
	ResultError   Result = "error"
)

// Valid reports whether r is a known result.
func (r Result) Valid() bool {
	switch r {
	case ResultPassed, ResultFailed, ResultSkipped, ResultError:
		return true
	}
	return false
}

// Passing reports whether r counts towards success.
func (r Result) Passing() bool {
	return r == ResultPassed
}

// ParseResult converts a raw result name.
func ParseResult(raw string) (Result, error) {
	result := Result(strings.ToLower(strings.TrimSpace(raw)))
	if !result.Valid() {
		return "", suite.Configf(suite.ErrUnknownResult, "%q", raw)
	}
	return result, nil
}

// Record maps each reported stage of one item to its result.
type Record map[Stage]Result

// Successful is true when every fixed stage is present and passing.
func (r Record) Successful() bool {
	for _, stage := range Stages {
		result, ok := r[stage]
		if !ok || !result.Passing() {
			return false
		}
	}
	return true
}

// Tracker accumulates stage results. It is safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{records: map[string]Record{}}
}

// Register stores the result of one stage for the item identified by id.
// Each (item, stage) pair may be reported only once.
func (t *Tracker) Register(id string, stage Stage, result Result) error {
	if !stage.Valid() {
		return suite.Configf(suite.ErrUnknownStage, "%q reported for %s", string(stage), id)
	}
	if !result.Valid() {
		return suite.Configf(suite.ErrUnknownResult, "%q reported for %s %s", string(result), id, stage)
	}
	id = nodeid.Normalize(id)
	t.mu.Lock()
	defer t.mu.Unlock()
	record, ok := t.records[id]
	if !ok {
		record = Record{}
		t.records[id] = record
	}
	if prev, exists := record[stage]; exists {
		return &suite.ConfigError{
			Kind:  suite.ErrDuplicateStage,
			Msg:   fmt.Sprintf("%s %s already reported as %s", id, stage, prev),
			Items: []string{id},
		}
	}
	record[stage] = result
	return nil
}

// Successful reports whether id has passed every stage. Items that have not
// run, or stopped early, are not successful.
func (t *Tracker) Successful(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.records[nodeid.Normalize(id)].Successful()
}

// Record returns a copy of the stage results for id.
func (t *Tracker) Record(id string) Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	record := t.records[nodeid.Normalize(id)]
	if len(record) == 0 {
		return nil
	}
	out := make(Record, len(record))
	for stage, result := range record {
		out[stage] = result
	}
	return out
}
