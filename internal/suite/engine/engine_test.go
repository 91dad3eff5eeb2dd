package engine

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/depends/internal/suite"
	"github.com/kingrea/depends/internal/suite/outcome"
	"github.com/kingrea/depends/internal/suite/policy"
)

func newCoordinator(t *testing.T, p policy.Policy, items ...*suite.Item) *Coordinator {
	t.Helper()
	c, err := New(p)
	require.NoError(t, err)
	require.NoError(t, c.Register(items))
	return c
}

func pass(t *testing.T, c *Coordinator, id string) {
	t.Helper()
	for _, stage := range outcome.Stages {
		require.NoError(t, c.RecordStage(id, stage, outcome.ResultPassed))
	}
}

func TestNewRejectsInvalidPolicy(t *testing.T) {
	_, err := New(policy.Policy{Missing: "maybe", Failed: policy.ActionSkip})
	require.ErrorIs(t, err, suite.ErrInvalidPolicy)
}

func TestRegisterTwiceRejected(t *testing.T) {
	c := newCoordinator(t, policy.Default(), &suite.Item{ID: "a.py::t"})
	err := c.Register([]*suite.Item{{ID: "b.py::t"}})
	require.ErrorIs(t, err, suite.ErrAlreadyRegistered)
	assert.Equal(t, []string{"a.py::t"}, suite.IDs(c.Items()))
}

func TestOperationsBeforeRegistrationRejected(t *testing.T) {
	c, err := New(policy.Default())
	require.NoError(t, err)
	_, err = c.Order()
	assert.ErrorIs(t, err, suite.ErrNotRegistered)
	_, err = c.Check("a.py::t")
	assert.ErrorIs(t, err, suite.ErrNotRegistered)
	_, err = c.Names()
	assert.ErrorIs(t, err, suite.ErrNotRegistered)
	assert.ErrorIs(t, c.RecordStage("a.py::t", outcome.StageCall, outcome.ResultPassed), suite.ErrNotRegistered)
}

func TestUnknownItemRejected(t *testing.T) {
	c := newCoordinator(t, policy.Default(), &suite.Item{ID: "a.py::t"})
	_, err := c.Check("a.py::other")
	assert.ErrorIs(t, err, suite.ErrUnknownItem)
	assert.ErrorIs(t, c.RecordStage("a.py::other", outcome.StageCall, outcome.ResultPassed), suite.ErrUnknownItem)
}

func TestOrderSimple(t *testing.T) {
	c := newCoordinator(t, policy.Default(),
		&suite.Item{ID: "test_x.py::test_foo", DependsOn: []string{"test_bar"}},
		&suite.Item{ID: "test_x.py::test_bar"},
	)
	order, err := c.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{"test_x.py::test_bar", "test_x.py::test_foo"}, suite.IDs(order))
}

func TestOrderCycleIsCachedError(t *testing.T) {
	c := newCoordinator(t, policy.Default(),
		&suite.Item{ID: "a.py::A", DependsOn: []string{"B"}},
		&suite.Item{ID: "a.py::B", DependsOn: []string{"C"}},
		&suite.Item{ID: "a.py::C", DependsOn: []string{"A"}},
	)
	_, err := c.Order()
	require.ErrorIs(t, err, suite.ErrCycle)
	_, again := c.Order()
	assert.Equal(t, err, again)
}

func TestFailedDependencySkipsDependent(t *testing.T) {
	c := newCoordinator(t, policy.Policy{Missing: policy.ActionSkip, Failed: policy.ActionSkip},
		&suite.Item{ID: "a.py::test_foo", DependsOn: []string{"test_bar"}},
		&suite.Item{ID: "a.py::test_bar"},
	)
	require.NoError(t, c.RecordStage("a.py::test_bar", outcome.StageSetup, outcome.ResultPassed))
	require.NoError(t, c.RecordStage("a.py::test_bar", outcome.StageCall, outcome.ResultFailed))
	require.NoError(t, c.RecordStage("a.py::test_bar", outcome.StageTeardown, outcome.ResultPassed))

	v, err := c.Check("a.py::test_foo")
	require.NoError(t, err)
	assert.Equal(t, policy.ActionSkip, v.Action)
	assert.Equal(t, []string{"a.py::test_bar"}, v.Failed)
	assert.Contains(t, v.Message, "a.py::test_foo")
	assert.Contains(t, v.Message, "a.py::test_bar")
}

func TestMissingDependencyFailsDependent(t *testing.T) {
	c := newCoordinator(t, policy.Policy{Missing: policy.ActionFail, Failed: policy.ActionSkip},
		&suite.Item{ID: "a.py::test_foo", DependsOn: []string{"baz"}},
	)
	v, err := c.Check("a.py::test_foo")
	require.NoError(t, err)
	assert.Equal(t, policy.ActionFail, v.Action)
	assert.Equal(t, []string{"baz"}, v.Missing)
	assert.Contains(t, v.Message, "baz")
}

func TestPassedDependencyLetsDependentRun(t *testing.T) {
	c := newCoordinator(t, policy.Default(),
		&suite.Item{ID: "a.py::test_foo", DependsOn: []string{"test_bar"}},
		&suite.Item{ID: "a.py::test_bar[1]"},
		&suite.Item{ID: "a.py::test_bar[2]"},
	)
	pass(t, c, "a.py::test_bar[1]")
	v, err := c.Check("a.py::test_foo")
	require.NoError(t, err)
	assert.True(t, v.Blocked(), "second instance has not passed")
	assert.Equal(t, []string{"a.py::test_bar[2]"}, v.Failed)

	pass(t, c, "a.py::test_bar[2]")
	v, err = c.Check("a.py::test_foo")
	require.NoError(t, err)
	assert.Equal(t, policy.ActionRun, v.Action)
}

func TestBlockedItemPropagatesToItsDependents(t *testing.T) {
	c := newCoordinator(t, policy.Default(),
		&suite.Item{ID: "a.py::first"},
		&suite.Item{ID: "a.py::second", DependsOn: []string{"first"}},
		&suite.Item{ID: "a.py::third", DependsOn: []string{"second"}},
	)
	require.NoError(t, c.RecordStage("a.py::first", outcome.StageSetup, outcome.ResultError))

	v, err := c.Check("a.py::second")
	require.NoError(t, err)
	require.True(t, v.Blocked())
	require.NoError(t, c.RecordStage("a.py::second", outcome.StageSetup, outcome.ResultSkipped))

	v, err = c.Check("a.py::third")
	require.NoError(t, err)
	assert.True(t, v.Blocked())
	assert.Equal(t, []string{"a.py::second"}, v.Failed)
}

func TestDuplicateStageThroughCoordinator(t *testing.T) {
	c := newCoordinator(t, policy.Default(), &suite.Item{ID: "a.py::t"})
	require.NoError(t, c.RecordStage("a.py::t", outcome.StageCall, outcome.ResultPassed))
	assert.ErrorIs(t, c.RecordStage("a.py::t", outcome.StageCall, outcome.ResultPassed), suite.ErrDuplicateStage)
	assert.Equal(t, outcome.Record{outcome.StageCall: outcome.ResultPassed}, c.Outcome("a.py::t"))
	assert.False(t, c.Successful("a.py::t"))
}

func TestCheckLogsBlockedItems(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c, err := New(policy.Default(), WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, c.Register([]*suite.Item{{ID: "a.py::t", DependsOn: []string{"ghost"}}}))
	assert.Contains(t, buf.String(), "unresolved dependency")

	_, err = c.Check("a.py::t")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "item blocked")
	assert.Contains(t, buf.String(), "ghost")
}

func TestListings(t *testing.T) {
	c := newCoordinator(t, policy.Default(),
		&suite.Item{ID: "a.py::test_foo", DependsOn: []string{"test_bar", "nope"}},
		&suite.Item{ID: "a.py::test_bar", Aliases: []string{"bar"}},
	)
	names, err := c.Names()
	require.NoError(t, err)
	assert.Equal(t, []NameEntry{
		{Name: "a.py", Items: []string{"a.py::test_foo", "a.py::test_bar"}},
		{Name: "a.py::test_bar", Items: []string{"a.py::test_bar"}},
		{Name: "a.py::test_foo", Items: []string{"a.py::test_foo"}},
		{Name: "bar", Items: []string{"a.py::test_bar"}},
	}, names)

	deps, err := c.Dependencies()
	require.NoError(t, err)
	assert.Equal(t, []DependencyEntry{
		{ID: "a.py::test_foo", Dependencies: []string{"a.py::test_bar"}, Missing: []string{"nope"}},
		{ID: "a.py::test_bar"},
	}, deps)

	dependents, err := c.Dependents()
	require.NoError(t, err)
	assert.Equal(t, []DependentEntry{
		{ID: "a.py::test_foo"},
		{ID: "a.py::test_bar", Dependents: []string{"a.py::test_foo"}},
	}, dependents)
}

func TestDependentsBeforeRegistrationRejected(t *testing.T) {
	c, err := New(policy.Default())
	require.NoError(t, err)
	_, err = c.Dependents()
	assert.ErrorIs(t, err, suite.ErrNotRegistered)
}

func TestCoordinatorsDoNotShareOutcomes(t *testing.T) {
	outer := newCoordinator(t, policy.Default(), &suite.Item{ID: "a.py::t"})
	inner := newCoordinator(t, policy.Default(), &suite.Item{ID: "a.py::t"})
	pass(t, inner, "a.py::t")
	assert.True(t, inner.Successful("a.py::t"))
	assert.False(t, outer.Successful("a.py::t"))
}
