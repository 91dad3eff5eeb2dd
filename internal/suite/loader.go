package suite

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseSuiteYAML decodes a suite manifest from YAML/JSON bytes.
func ParseSuiteYAML(data []byte) (Suite, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Suite{}, fmt.Errorf("suite: manifest payload is empty")
	}
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Suite{}, fmt.Errorf("suite: decode manifest: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Suite{}, err
	}
	return s, nil
}

// LoadSuiteReader reads manifest data from an io.Reader.
func LoadSuiteReader(r io.Reader) (Suite, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Suite{}, fmt.Errorf("suite: read manifest: %w", err)
	}
	return ParseSuiteYAML(content)
}

// LoadSuiteFile loads a manifest from an explicit file path.
func LoadSuiteFile(path string) (Suite, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Suite{}, fmt.Errorf("suite: read %s: %w", path, err)
	}
	s, parseErr := ParseSuiteYAML(content)
	if parseErr != nil {
		return Suite{}, fmt.Errorf("suite: %s: %w", path, parseErr)
	}
	return s, nil
}
