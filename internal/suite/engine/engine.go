package engine

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/kingrea/depends/internal/nodeid"
	"github.com/kingrea/depends/internal/suite"
	"github.com/kingrea/depends/internal/suite/index"
	"github.com/kingrea/depends/internal/suite/outcome"
	"github.com/kingrea/depends/internal/suite/policy"
	"github.com/kingrea/depends/internal/suite/resolver"
	"github.com/kingrea/depends/internal/suite/scheduler"
)

// Coordinator owns the name index, resolved dependencies, schedule and
// outcomes of a single run. Every method is safe for concurrent use.
type Coordinator struct {
	mu       sync.RWMutex
	policy   policy.Policy
	logger   *slog.Logger
	items    []*suite.Item
	resolver *resolver.Resolver
	order    []*suite.Item
	orderErr error
	ordered  bool
	tracker  *outcome.Tracker
}

// Option customizes the coordinator instance.
type Option func(*Coordinator)

// WithLogger routes coordinator diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a coordinator applying p for the rest of the run.
func New(p policy.Policy, opts ...Option) (*Coordinator, error) {
	if p.Order == "" {
		p.Order = policy.MissingFirst
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c := &Coordinator{
		policy:  p,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracker: outcome.NewTracker(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Policy returns the policy the coordinator was configured with.
func (c *Coordinator) Policy() policy.Policy {
	return c.policy
}

// Register indexes items and resolves their dependencies. It may be called
// only once per coordinator.
func (c *Coordinator) Register(items []*suite.Item) error {
	if err := suite.ValidateItems(items); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolver != nil {
		return suite.Configf(suite.ErrAlreadyRegistered, "coordinator already holds %d items", len(c.items))
	}
	c.items = append([]*suite.Item(nil), items...)
	idx := index.Build(c.items)
	c.resolver = resolver.New(c.items, idx)
	c.logger.Debug("items registered", "items", len(c.items), "names", idx.Len())
	for _, node := range c.resolver.Nodes() {
		if len(node.Unresolved) > 0 {
			c.logger.Warn("unresolved dependency", "item", node.ID, "missing", node.Unresolved)
		}
		c.logger.Debug("dependencies resolved", "item", node.ID, "dependencies", node.DependencyIDs())
	}
	return nil
}

// Items returns the registered items in collection order.
func (c *Coordinator) Items() []*suite.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*suite.Item(nil), c.items...)
}

// Order returns the registered items sorted so every dependency runs before
// its dependents. The result is computed once.
func (c *Coordinator) Order() ([]*suite.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolver == nil {
		return nil, suite.Configf(suite.ErrNotRegistered, "order requested before registration")
	}
	if !c.ordered {
		c.order, c.orderErr = scheduler.New(c.resolver.Nodes()).Order()
		c.ordered = true
		if c.orderErr != nil {
			c.logger.Error("cannot order items", "error", c.orderErr)
		} else {
			c.logger.Info("items ordered", "items", len(c.order))
		}
	}
	if c.orderErr != nil {
		return nil, c.orderErr
	}
	return append([]*suite.Item(nil), c.order...), nil
}

// RecordStage stores the result of one stage of a registered item.
func (c *Coordinator) RecordStage(id string, stage outcome.Stage, result outcome.Result) error {
	if _, err := c.node(id); err != nil {
		return err
	}
	if err := c.tracker.Register(id, stage, result); err != nil {
		return err
	}
	c.logger.Debug("stage recorded", "item", nodeid.Normalize(id), "stage", stage, "result", result)
	return nil
}

// Successful reports whether the item passed every stage.
func (c *Coordinator) Successful(id string) bool {
	return c.tracker.Successful(id)
}

// Outcome returns the stage results recorded for id.
func (c *Coordinator) Outcome(id string) outcome.Record {
	return c.tracker.Record(id)
}

// Check evaluates the configured policy for the item identified by id using
// its cached resolution and the outcomes recorded so far.
func (c *Coordinator) Check(id string) (policy.Verdict, error) {
	node, err := c.node(id)
	if err != nil {
		return policy.Verdict{}, err
	}
	var failed []string
	for _, dep := range node.Dependencies {
		depID := dep.NodeID()
		if !c.tracker.Successful(depID) {
			failed = append(failed, depID)
		}
	}
	verdict := c.policy.Evaluate(node.ID, node.Unresolved, failed)
	if verdict.Blocked() {
		c.logger.Warn("item blocked",
			"item", node.ID,
			"action", verdict.Action,
			"reason", verdict.Reason,
			"missing", verdict.Missing,
			"failed", verdict.Failed,
		)
	}
	return verdict, nil
}

func (c *Coordinator) node(id string) (*resolver.Node, error) {
	c.mu.RLock()
	res := c.resolver
	c.mu.RUnlock()
	if res == nil {
		return nil, suite.Configf(suite.ErrNotRegistered, "%s referenced before registration", id)
	}
	node, ok := res.Node(id)
	if !ok {
		return nil, &suite.ConfigError{
			Kind:  suite.ErrUnknownItem,
			Msg:   fmt.Sprintf("%s is not registered", id),
			Items: []string{nodeid.Normalize(id)},
		}
	}
	return node, nil
}
