package gotest

import (
	"context"

	"github.com/kingrea/depends/internal/suite/engine"
	"github.com/kingrea/depends/internal/suite/outcome"
	"github.com/kingrea/depends/internal/suite/policy"
)

// ItemVerdict is what the engine decided for one item during a replay.
type ItemVerdict struct {
	ID      string
	Verdict policy.Verdict
	// Observed is false when the item had no events in the stream.
	Observed bool
	Outcome  outcome.Record
}

// Replay walks the coordinator's schedule, checks each item against the
// outcomes recorded so far, and then records either the observed stages or,
// for a blocked item, the setup result the block implies.
func Replay(ctx context.Context, c *engine.Coordinator, results *Results) ([]ItemVerdict, error) {
	order, err := c.Order()
	if err != nil {
		return nil, err
	}
	verdicts := make([]ItemVerdict, 0, len(order))
	for _, item := range order {
		if err := ctx.Err(); err != nil {
			return verdicts, err
		}
		id := item.NodeID()
		verdict, err := c.Check(id)
		if err != nil {
			return verdicts, err
		}
		observed := results.Record(id)
		if verdict.Blocked() {
			if err := c.RecordStage(id, outcome.StageSetup, blockedResult(verdict.Action)); err != nil {
				return verdicts, err
			}
		} else {
			for _, stage := range outcome.Stages {
				result, ok := observed[stage]
				if !ok {
					continue
				}
				if err := c.RecordStage(id, stage, result); err != nil {
					return verdicts, err
				}
			}
		}
		verdicts = append(verdicts, ItemVerdict{
			ID:       id,
			Verdict:  verdict,
			Observed: observed != nil,
			Outcome:  c.Outcome(id),
		})
	}
	return verdicts, nil
}

// Blocked returns the verdicts whose action is not run.
func Blocked(verdicts []ItemVerdict) []ItemVerdict {
	var out []ItemVerdict
	for _, v := range verdicts {
		if v.Verdict.Blocked() {
			out = append(out, v)
		}
	}
	return out
}

func blockedResult(action policy.Action) outcome.Result {
	if action == policy.ActionFail {
		return outcome.ResultFailed
	}
	return outcome.ResultSkipped
}
