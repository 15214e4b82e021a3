package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is alkali.cue source applied on top of the defaults.
	Config string `yaml:"config,omitempty"`

	// Expression is a single expression rewritten as a reactive body.
	Expression string `yaml:"expression,omitempty"`

	// Source is a program whose reactive roots are rewritten.
	Source string `yaml:"source,omitempty"`

	// Expect specifies the expected output or error.
	Expect Expect `yaml:"expect"`

	// Assertions are additional checks on the result.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunID is an optional fixed run ID; defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// Expect specifies the expected outcome. Output and Error are exclusive.
type Expect struct {
	Output string `yaml:"output,omitempty"`
	Error  string `yaml:"error,omitempty"`

	// Sites is the expected number of rewritten roots (source scenarios).
	Sites *int `yaml:"sites,omitempty"`
}

// Expected error classes.
const (
	ErrorInvalidExpression = "invalid_reactive_expression"
	ErrorSyntax            = "syntax"
)

// Assertion is an additional check on a scenario result.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Value is the substring for output_contains and output_excludes.
	Value string `yaml:"value,omitempty"`

	// Env binds free variables for equivalent.
	Env map[string]any `yaml:"env,omitempty"`
}

// Assertion type constants.
const (
	AssertOutputContains = "output_contains"
	AssertOutputExcludes = "output_excludes"
	AssertIdempotent     = "idempotent"
	AssertEquivalent     = "equivalent"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every .yaml and .yml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	seen := make(map[string]string)
	for _, name := range names {
		s, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", name, s.Name, prev)
		}
		seen[s.Name] = name
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s.Name, `/\`) {
		return fmt.Errorf("name must not contain path separators")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if (s.Expression == "") == (s.Source == "") {
		return fmt.Errorf("exactly one of expression and source is required")
	}

	switch s.Expect.Error {
	case "", ErrorInvalidExpression, ErrorSyntax:
	default:
		return fmt.Errorf("expect: unknown error class %q", s.Expect.Error)
	}
	if s.Expect.Error != "" && s.Expect.Output != "" {
		return fmt.Errorf("expect: output and error are exclusive")
	}
	if s.Expect.Error == "" && s.Expect.Output == "" {
		return fmt.Errorf("expect: output or error is required")
	}
	if s.Expect.Sites != nil && s.Source == "" {
		return fmt.Errorf("expect: sites applies to source scenarios only")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, s); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion, s *Scenario) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertOutputContains, AssertOutputExcludes:
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: value is required for %s", index, a.Type)
		}
	case AssertIdempotent:
	case AssertEquivalent:
		if s.Expression == "" {
			return fmt.Errorf("assertions[%d]: equivalent requires an expression scenario", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	if s.Expect.Error != "" {
		return fmt.Errorf("assertions[%d]: assertions are not allowed on error scenarios", index)
	}
	return nil
}
