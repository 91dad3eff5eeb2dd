// cmd/depends/main.go
//
// Entry point for the depends CLI. It loads a suite manifest, orders its
// items so dependencies come first, and reports what the dependency policy
// would do with a recorded `go test -json` run.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kingrea/depends/internal/config"
	"github.com/kingrea/depends/internal/logging"
	"github.com/kingrea/depends/internal/suite"
)

var version = "0.1.0-dev"

// Exit codes.
const (
	exitOK      = 0
	exitBlocked = 1
	exitConfig  = 2
)

// exitError carries a specific process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	missing    string
	failed     string
	order      string
	logLevel   string
	logFormat  string
	logFile    string
	noColor    bool

	cfg    *config.Config
	logger *slog.Logger
	logOut *logging.File
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	a.close()
	if err == nil {
		return exitOK
	}

	var exit *exitError
	if errors.As(err, &exit) {
		if exit.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", exit.err)
		}
		return exit.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	if suite.IsConfigError(err) {
		return exitConfig
	}
	return exitBlocked
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "depends",
		Short: "Order tests by their declared dependencies",
		Long: `depends reads a suite manifest listing test items and the items they
depend on. It prints the order in which the items must run, the names each
dependency reference can use, and, given a go test -json stream, whether
each item would run, be skipped, or fail because of its dependencies.

Configuration is read from .depends.yaml; environment variables and flags
override it.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to the configuration file (default ./"+config.FileName+")")
	flags.StringVar(&a.missing, "missing", "", "Action for missing dependencies: run|skip|fail")
	flags.StringVar(&a.failed, "failed", "", "Action for failed dependencies: run|skip|fail")
	flags.StringVar(&a.order, "order", "", "Which check wins when both apply: missing-first|failed-first")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: text|json")
	flags.StringVar(&a.logFile, "log-file", "", "Append logs to this file instead of stderr")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		a.initCommand(),
		a.orderCommand(),
		a.namesCommand(),
		a.depsCommand(),
		a.checkCommand(),
		a.browseCommand(),
	)
	return root
}

// setup resolves configuration once flags are parsed. Failures here are
// configuration errors.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return &exitError{code: exitConfig, err: fmt.Errorf("working directory: %w", err)}
	}
	cfg, err := config.Load(cwd, a.configPath)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}

	var overrides config.Overrides
	changed := func(name string, value *string) *string {
		if cmd.Flags().Changed(name) {
			return value
		}
		return nil
	}
	overrides.Missing = changed("missing", &a.missing)
	overrides.Failed = changed("failed", &a.failed)
	overrides.Order = changed("order", &a.order)
	overrides.LogLevel = changed("log-level", &a.logLevel)
	overrides.LogFormat = changed("log-format", &a.logFormat)
	overrides.LogFile = changed("log-file", &a.logFile)
	if cmd.Flags().Changed("no-color") {
		overrides.NoColor = &a.noColor
	}
	if err := cfg.Apply(overrides); err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	a.cfg = cfg

	if path := cfg.LogFilePath(); path != "" {
		lf, err := logging.Open(path, cfg.LogLevel(), cfg.LogFormat())
		if err != nil {
			return &exitError{code: exitConfig, err: err}
		}
		a.logOut = lf
		a.logger = lf.Logger
	} else {
		a.logger = logging.New(a.stderr, cfg.LogLevel(), cfg.LogFormat())
	}
	a.logger.Debug("configuration loaded", "path", cfg.Path, "level", cfg.LogLevel())
	return nil
}

func (a *app) close() {
	if a.logOut != nil {
		_ = a.logOut.Close()
	}
}

// color reports whether stdout should receive ANSI styling.
func (a *app) color() bool {
	return !a.cfg.NoColor && isTerminal(a.stdout)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
