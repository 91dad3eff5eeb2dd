// Package gotest adapts `go test -json` output to the dependency engine: it
// decodes the event stream, maps tests to item identifiers and replays their
// stage results in schedule order.
package gotest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kingrea/depends/internal/nodeid"
	"github.com/kingrea/depends/internal/suite/outcome"
)

// Event is a single line of `go test -json` output.
type Event struct {
	Time    time.Time `json:"Time"`
	Action  string    `json:"Action"` // start, run, pass, fail, skip, output, bench, pause, cont
	Package string    `json:"Package"`
	Test    string    `json:"Test"`
	Elapsed float64   `json:"Elapsed"`
	Output  string    `json:"Output"`
}

// Decode reads NDJSON events from r. Malformed lines are counted and skipped.
func Decode(r io.Reader) ([]Event, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		events    []Event
		malformed int
	)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			malformed++
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, malformed, fmt.Errorf("gotest: scanning test output: %w", err)
	}
	return events, malformed, nil
}

// ItemID maps a package and (sub)test name to an item identifier:
// "pkg", "TestA/sub" -> "pkg::TestA::sub".
func ItemID(pkg, test string) string {
	pkg = strings.TrimSpace(pkg)
	test = strings.TrimSpace(test)
	if test == "" {
		return pkg
	}
	return nodeid.Normalize(pkg + nodeid.Delimiter + strings.ReplaceAll(test, "/", nodeid.Delimiter))
}

// StageResult is one stage outcome derived from an event.
type StageResult struct {
	Stage  outcome.Stage
	Result outcome.Result
}

// Stages translates a test-level event into the stage results it implies.
// Package-level events and actions without an outcome yield nil.
func Stages(ev Event) []StageResult {
	if ev.Test == "" {
		return nil
	}
	switch ev.Action {
	case "run":
		return []StageResult{{outcome.StageSetup, outcome.ResultPassed}}
	case "pass":
		return []StageResult{{outcome.StageCall, outcome.ResultPassed}, {outcome.StageTeardown, outcome.ResultPassed}}
	case "fail":
		return []StageResult{{outcome.StageCall, outcome.ResultFailed}, {outcome.StageTeardown, outcome.ResultPassed}}
	case "skip":
		return []StageResult{{outcome.StageCall, outcome.ResultSkipped}, {outcome.StageTeardown, outcome.ResultPassed}}
	default:
		return nil
	}
}

// Results holds the stage outcomes observed per item, keyed by identifier.
type Results struct {
	records map[string]outcome.Record
	order   []string
}

// Collect folds events into per-item records. A repeated stage keeps its
// first result, so a re-run under -count only reports the first attempt.
func Collect(events []Event) *Results {
	res := &Results{records: make(map[string]outcome.Record)}
	for _, ev := range events {
		stages := Stages(ev)
		if len(stages) == 0 {
			continue
		}
		id := ItemID(ev.Package, ev.Test)
		rec, ok := res.records[id]
		if !ok {
			rec = make(outcome.Record, len(outcome.Stages))
			res.records[id] = rec
			res.order = append(res.order, id)
		}
		for _, sr := range stages {
			if _, seen := rec[sr.Stage]; !seen {
				rec[sr.Stage] = sr.Result
			}
		}
	}
	return res
}

// Record returns a copy of the stages observed for id, or nil.
func (r *Results) Record(id string) outcome.Record {
	rec, ok := r.records[nodeid.Normalize(id)]
	if !ok {
		return nil
	}
	out := make(outcome.Record, len(rec))
	for stage, result := range rec {
		out[stage] = result
	}
	return out
}

// IDs lists the observed items in first-seen order.
func (r *Results) IDs() []string {
	return append([]string(nil), r.order...)
}

// Len reports how many items were observed.
func (r *Results) Len() int {
	return len(r.order)
}
