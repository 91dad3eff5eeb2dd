package suite

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration error kinds. Any of these aborts the run.
var (
	ErrInvalidPolicy     = errors.New("invalid policy")
	ErrAlreadyRegistered = errors.New("items already registered")
	ErrNotRegistered     = errors.New("items not registered")
	ErrDuplicateItem     = errors.New("duplicate item")
	ErrUnknownItem       = errors.New("unknown item")
	ErrDuplicateStage    = errors.New("stage already reported")
	ErrUnknownStage      = errors.New("unknown stage")
	ErrUnknownResult     = errors.New("unknown stage result")
	ErrCycle             = errors.New("dependency cycle")
)

// ConfigError wraps a fatal configuration problem together with the
// identifiers of the items involved.
type ConfigError struct {
	Kind  error
	Msg   string
	Items []string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Kind }

// Configf builds a ConfigError of the given kind.
func Configf(kind error, format string, args ...any) error {
	return &ConfigError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// CycleError reports the items forming a dependency cycle. The path is
// closed, so its first and last entries are the same item.
func CycleError(path []string) error {
	msg := "cycle"
	if len(path) > 0 {
		msg = strings.Join(path, " -> ")
	}
	items := path
	if len(path) > 1 && path[0] == path[len(path)-1] {
		items = path[:len(path)-1]
	}
	return &ConfigError{Kind: ErrCycle, Msg: msg, Items: append([]string(nil), items...)}
}

// IsConfigError reports whether err is a fatal configuration error.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
