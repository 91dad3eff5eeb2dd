// internal/config/config.go
//
// This package handles configuration for depends. A project may carry a
// .depends.yaml next to its test suite; values are layered as
// CLI flags > environment > YAML file > defaults.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/depends/internal/suite/policy"
)

// FileName is the project configuration file looked up in the project dir.
const FileName = ".depends.yaml"

// Environment variables recognised by Load.
const (
	EnvMissing    = "DEPENDS_ON_MISSING"
	EnvFailed     = "DEPENDS_ON_FAILED"
	EnvOrder      = "DEPENDS_CHECK_ORDER"
	EnvLogLevel   = "DEPENDS_LOG_LEVEL"
	EnvLogFormat  = "DEPENDS_LOG_FORMAT"
	EnvLogFile    = "DEPENDS_LOG_FILE"
	EnvNoColor    = "NO_COLOR"
	defaultLevel  = "info"
	defaultFormat = "text"
)

const defaultProjectConfigYAML = `# depends project configuration
version: 1

# What to do with a test whose dependency cannot be found (missing) or did
# not pass (failed): run, skip or fail.
policy:
  missing: skip
  failed: skip
  # Which check wins when both would block a test: missing-first or failed-first.
  order: missing-first

logging:
  level: info
  format: text
  # file: .depends/depends.log
`

// PolicyConfig mirrors policy.Policy with raw, unvalidated values.
type PolicyConfig struct {
	Missing string `yaml:"missing,omitempty"`
	Failed  string `yaml:"failed,omitempty"`
	Order   string `yaml:"order,omitempty"`
}

// LoggingConfig selects the slog level, format and optional log file.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
	File   string `yaml:"file,omitempty"`
}

// ProjectConfig models .depends.yaml.
type ProjectConfig struct {
	Version int           `yaml:"version"`
	Policy  PolicyConfig  `yaml:"policy"`
	Logging LoggingConfig `yaml:"logging"`
}

// Config holds the resolved runtime configuration.
type Config struct {
	// ProjectDir anchors relative paths such as the log file.
	ProjectDir string
	// Path is the config file that was read, empty when none existed.
	Path    string
	NoColor bool

	Project ProjectConfig
}

// Overrides carries CLI flag values. Nil fields leave the loaded value alone.
type Overrides struct {
	Missing   *string
	Failed    *string
	Order     *string
	LogLevel  *string
	LogFormat *string
	LogFile   *string
	NoColor   *bool
}

// Load reads the project configuration. An explicit path must exist; the
// default .depends.yaml in projectDir is optional.
func Load(projectDir, path string) (*Config, error) {
	c := &Config{ProjectDir: projectDir, Project: defaultProjectConfig()}
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = filepath.Join(projectDir, FileName)
	}
	if err := c.loadProjectConfig(path, explicit); err != nil {
		return nil, err
	}
	c.applyEnv()
	c.Project.applyDefaults()
	if err := c.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

// Apply layers CLI overrides on top of the loaded configuration.
func (c *Config) Apply(o Overrides) error {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&c.Project.Policy.Missing, o.Missing)
	set(&c.Project.Policy.Failed, o.Failed)
	set(&c.Project.Policy.Order, o.Order)
	set(&c.Project.Logging.Level, o.LogLevel)
	set(&c.Project.Logging.Format, o.LogFormat)
	set(&c.Project.Logging.File, o.LogFile)
	if o.NoColor != nil {
		c.NoColor = *o.NoColor
	}
	c.Project.applyDefaults()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Policy returns the validated dependency policy.
func (c *Config) Policy() (policy.Policy, error) {
	return c.Project.Policy.parse()
}

// LogLevel returns the configured slog level name.
func (c *Config) LogLevel() string {
	return c.Project.Logging.Level
}

// LogFormat returns the configured slog format (text or json).
func (c *Config) LogFormat() string {
	return c.Project.Logging.Format
}

// LogFilePath returns the absolute log file path, or "" to log to stderr.
func (c *Config) LogFilePath() string {
	return resolvePath(c.ProjectDir, c.Project.Logging.File)
}

// WriteDefault writes the commented default configuration to path unless a
// file already exists there.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("config: ensure dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644); err != nil {
		return false, fmt.Errorf("config: write %s: %w", path, err)
	}
	return true, nil
}

func (c *Config) loadProjectConfig(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}

	c.Path = path
	c.Project = parsed
	return nil
}

func (c *Config) applyEnv() {
	lookup := func(dst *string, key string) {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			*dst = strings.TrimSpace(value)
		}
	}
	lookup(&c.Project.Policy.Missing, EnvMissing)
	lookup(&c.Project.Policy.Failed, EnvFailed)
	lookup(&c.Project.Policy.Order, EnvOrder)
	lookup(&c.Project.Logging.Level, EnvLogLevel)
	lookup(&c.Project.Logging.Format, EnvLogFormat)
	lookup(&c.Project.Logging.File, EnvLogFile)
	if value, ok := os.LookupEnv(EnvNoColor); ok && value != "" {
		c.NoColor = true
	}
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Policy: PolicyConfig{
			Missing: string(policy.DefaultAction),
			Failed:  string(policy.DefaultAction),
			Order:   string(policy.MissingFirst),
		},
		Logging: LoggingConfig{Level: defaultLevel, Format: defaultFormat},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	pc.Logging.Level = strings.ToLower(strings.TrimSpace(pc.Logging.Level))
	if pc.Logging.Level == "" {
		pc.Logging.Level = defaultLevel
	}
	pc.Logging.Format = strings.ToLower(strings.TrimSpace(pc.Logging.Format))
	if pc.Logging.Format == "" {
		pc.Logging.Format = defaultFormat
	}
}

func (pc ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if _, err := pc.Policy.parse(); err != nil {
		return err
	}
	switch pc.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn or error")
	}
	switch pc.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be 'text' or 'json'")
	}
	return nil
}

func (pc PolicyConfig) parse() (policy.Policy, error) {
	missing, err := policy.ParseAction(pc.Missing)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("policy.missing: %w", err)
	}
	failed, err := policy.ParseAction(pc.Failed)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("policy.failed: %w", err)
	}
	order, err := policy.ParseCheckOrder(pc.Order)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("policy.order: %w", err)
	}
	return policy.Policy{Missing: missing, Failed: failed, Order: order}, nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}
