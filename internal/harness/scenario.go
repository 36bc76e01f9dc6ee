package harness

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Scenario is one template evaluation with its expected outcome.
//
// A scenario seeds a fresh in-memory SQLite database with Setup, evaluates
// Template against it, and checks the result against Expect.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" json:"description"`

	// Setup is SQL run against the empty database before evaluation.
	// It may contain several statements.
	Setup string `yaml:"setup,omitempty" json:"setup,omitempty"`

	// Template is the htmpl source to evaluate.
	Template string `yaml:"template" json:"template"`

	// Strict selects strict parsing. Defaults to true when absent.
	Strict *bool `yaml:"strict,omitempty" json:"strict,omitempty"`

	// Expect describes the expected outcome.
	Expect Expect `yaml:"expect" json:"expect"`
}

// Expect is the expected outcome of a scenario. Error is exclusive with
// Output, Contains, and Absent.
type Expect struct {
	// Output is the complete expected output, compared ignoring whitespace.
	Output *string `yaml:"output,omitempty" json:"output,omitempty"`

	// Contains lists substrings the output must contain verbatim.
	Contains []string `yaml:"contains,omitempty" json:"contains,omitempty"`

	// Absent lists substrings the output must not contain.
	Absent []string `yaml:"absent,omitempty" json:"absent,omitempty"`

	// Error is the expected error code (e.g. "CARDINALITY").
	Error string `yaml:"error,omitempty" json:"error,omitempty"`
}

// IsStrict reports whether the scenario uses strict parsing.
func (s *Scenario) IsStrict() bool {
	return s.Strict == nil || *s.Strict
}

// Scenario file extensions.
const (
	extYAML = ".yaml"
	extYML  = ".yml"
	extCUE  = ".cue"
)

// cueScenarioPath is the field holding the scenario in a CUE file.
const cueScenarioPath = "scenario"

// LoadScenario reads a scenario file. YAML files (.yaml, .yml) hold the
// scenario at the top level; CUE files (.cue) hold it under "scenario".
//
// Unknown fields are rejected, so typos like "expected:" fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario *Scenario
	switch ext := filepath.Ext(path); ext {
	case extYAML, extYML:
		scenario, err = parseYAML(data)
	case extCUE:
		scenario, err = parseCUE(data, path)
	default:
		return nil, fmt.Errorf("unsupported scenario file type %q", ext)
	}
	if err != nil {
		return nil, err
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

func parseYAML(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

func parseCUE(data []byte, path string) (*Scenario, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse CUE: %w", err)
	}

	sv := value.LookupPath(cue.ParsePath(cueScenarioPath))
	if !sv.Exists() {
		return nil, fmt.Errorf("failed to parse CUE: no %q field", cueScenarioPath)
	}
	if err := sv.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("failed to parse CUE: %w", err)
	}
	if err := checkCUEFields(sv); err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := sv.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to decode CUE scenario: %w", err)
	}
	return &scenario, nil
}

// checkCUEFields rejects unknown fields, matching the YAML decoder's
// KnownFields behavior.
func checkCUEFields(v cue.Value) error {
	known := map[string][]string{
		"":       {"name", "description", "setup", "template", "strict", "expect"},
		"expect": {"output", "contains", "absent", "error"},
	}
	for prefix, fields := range known {
		target := v
		if prefix != "" {
			target = v.LookupPath(cue.ParsePath(prefix))
			if !target.Exists() {
				continue
			}
		}
		iter, err := target.Fields()
		if err != nil {
			return fmt.Errorf("failed to parse CUE: %w", err)
		}
		for iter.Next() {
			label := iter.Selector().String()
			if !contains(fields, label) {
				if prefix != "" {
					label = prefix + "." + label
				}
				return fmt.Errorf("failed to parse CUE: unknown field %q", label)
			}
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// validateScenario checks that required fields are present and consistent.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s.Name, `/\`) {
		return fmt.Errorf("name %q must not contain path separators", s.Name)
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if strings.TrimSpace(s.Template) == "" {
		return fmt.Errorf("template is required")
	}

	e := s.Expect
	hasOutput := e.Output != nil || len(e.Contains) > 0 || len(e.Absent) > 0
	switch {
	case e.Error != "" && hasOutput:
		return fmt.Errorf("expect: error is exclusive with output, contains, and absent")
	case e.Error == "" && !hasOutput:
		return fmt.Errorf("expect: one of output, contains, absent, or error is required")
	}
	return nil
}

// FindScenarios returns the scenario files under dir in lexical order.
// If filter is non-empty, only files whose base name without extension
// matches the glob are returned.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != extYAML && ext != extYML && ext != extCUE {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	return files, err
}
