package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingrea/depends/internal/config"
	"github.com/kingrea/depends/internal/gotest"
	"github.com/kingrea/depends/internal/report"
	"github.com/kingrea/depends/internal/suite"
	"github.com/kingrea/depends/internal/suite/engine"
	"github.com/kingrea/depends/internal/tui"
)

func (a *app) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default " + config.FileName + " in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			path := filepath.Join(cwd, config.FileName)
			created, err := config.WriteDefault(path)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(a.stdout, "Wrote %s\n", path)
			} else {
				fmt.Fprintf(a.stdout, "%s already exists\n", path)
			}
			return nil
		},
	}
}

func (a *app) orderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "order <suite.yaml>",
		Short: "Print the items in dependency order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.loadSuite(args[0])
			if err != nil {
				return err
			}
			order, err := c.Order()
			if err != nil {
				return err
			}
			return report.New(a.stdout, a.color()).Order(order)
		},
	}
}

func (a *app) namesCommand() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "names <suite.yaml>",
		Short: "List the names a dependency reference can use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.loadSuite(args[0])
			if err != nil {
				return err
			}
			names, err := c.Names()
			if err != nil {
				return err
			}
			return report.New(a.stdout, a.color()).Names(names, verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also list names that are plain item identifiers")
	return cmd
}

func (a *app) depsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deps <suite.yaml>",
		Short: "Show what each item's dependency references resolved to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.loadSuite(args[0])
			if err != nil {
				return err
			}
			deps, err := c.Dependencies()
			if err != nil {
				return err
			}
			return report.New(a.stdout, a.color()).Dependencies(deps)
		},
	}
}

func (a *app) checkCommand() *cobra.Command {
	var results string
	cmd := &cobra.Command{
		Use:   "check <suite.yaml>",
		Short: "Replay go test -json results and report each item's verdict",
		Long: `check walks the suite in dependency order and decides, using the
configured policy, whether each item may run given the results recorded for
its dependencies. Exits 1 when any item is skipped or failed by the policy.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.loadSuite(args[0])
			if err != nil {
				return err
			}
			verdicts, err := a.replay(cmd, c, results)
			if err != nil {
				return err
			}
			if err := report.New(a.stdout, a.color()).Verdicts(verdicts); err != nil {
				return err
			}
			if blocked := gotest.Blocked(verdicts); len(blocked) > 0 {
				return &exitError{code: exitBlocked}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&results, "results", "r", "-", "go test -json output to replay (- reads stdin)")
	return cmd
}

func (a *app) browseCommand() *cobra.Command {
	var results string
	cmd := &cobra.Command{
		Use:   "browse <suite.yaml>",
		Short: "Explore the execution plan interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(a.stdout) {
				return fmt.Errorf("browse needs an interactive terminal")
			}
			c, s, err := a.loadSuite(args[0])
			if err != nil {
				return err
			}
			var verdicts []gotest.ItemVerdict
			if strings.TrimSpace(results) != "" {
				if verdicts, err = a.replay(cmd, c, results); err != nil {
					return err
				}
			}
			entries, err := tui.Entries(c, verdicts)
			if err != nil {
				return err
			}
			title := s.Name
			if title == "" {
				title = filepath.Base(args[0])
			}
			return tui.Run(cmd.Context(), title, entries)
		},
	}
	cmd.Flags().StringVarP(&results, "results", "r", "", "Optional go test -json output to show verdicts for")
	return cmd
}

// loadSuite reads the manifest at path and registers it with a fresh
// coordinator configured from the resolved policy.
func (a *app) loadSuite(path string) (*engine.Coordinator, suite.Suite, error) {
	s, err := suite.LoadSuiteFile(path)
	if err != nil {
		return nil, suite.Suite{}, &exitError{code: exitConfig, err: err}
	}
	p, err := a.cfg.Policy()
	if err != nil {
		return nil, suite.Suite{}, err
	}
	c, err := engine.New(p, engine.WithLogger(a.logger.With("suite", path)))
	if err != nil {
		return nil, suite.Suite{}, err
	}
	if err := c.Register(s.Items); err != nil {
		return nil, suite.Suite{}, err
	}
	return c, s, nil
}

func (a *app) replay(cmd *cobra.Command, c *engine.Coordinator, path string) ([]gotest.ItemVerdict, error) {
	var in io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("results: %w", err)
		}
		defer f.Close()
		in = f
	}
	events, malformed, err := gotest.Decode(in)
	if err != nil {
		return nil, err
	}
	if malformed > 0 {
		a.logger.Warn("skipped malformed result lines", "count", malformed)
	}
	results := gotest.Collect(events)
	a.logger.Info("results loaded", "events", len(events), "items", results.Len())
	return gotest.Replay(cmd.Context(), c, results)
}
