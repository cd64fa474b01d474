package harness

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/unwind/internal/ir"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Source is Python source text, parsed by the harness's parser.
	Source string `yaml:"source,omitempty"`

	// Tree is the path of a JSON tree dump, lowered without a parser.
	Tree string `yaml:"tree,omitempty"`

	// ExtendedOperators selects the dialect that names every operator.
	ExtendedOperators bool `yaml:"extended_operators,omitempty"`

	// Assertions validate the lowering.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one property of a lowering.
type Assertion struct {
	// Type selects the check; see the Assert constants.
	Type string `yaml:"type"`

	// IR is the expected IR as JSON (ir_equals).
	IR string `yaml:"ir,omitempty"`

	// Form is a JSON subtree that must appear somewhere (contains).
	Form string `yaml:"form,omitempty"`

	// Head and Count drive head_count.
	Head  string `yaml:"head,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// Hash is the expected IR hash (ir_hash).
	Hash string `yaml:"hash,omitempty"`

	// Dialect is the expected registry name (dialect).
	Dialect string `yaml:"dialect,omitempty"`

	// Code is the expected error code (error).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertIREquals  = "ir_equals"
	AssertContains  = "contains"
	AssertHeadCount = "head_count"
	AssertIRHash    = "ir_hash"
	AssertDialect   = "dialect"
	AssertError     = "error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the tree path relative to the scenario BEFORE validation
	if scenario.Tree != "" && !filepath.IsAbs(scenario.Tree) {
		scenario.Tree = filepath.Join(filepath.Dir(path), scenario.Tree)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file under dir, sorted by path.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && (strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	names := make(map[string]string, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := names[s.Name]; dup {
			return nil, fmt.Errorf("duplicate scenario name %q in %s and %s", s.Name, prev, path)
		}
		names[s.Name] = path
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Source == "" && s.Tree == "":
		return fmt.Errorf("one of source or tree is required")
	case s.Source != "" && s.Tree != "":
		return fmt.Errorf("source and tree are mutually exclusive")
	}

	if s.Tree != "" {
		if _, err := os.Stat(s.Tree); os.IsNotExist(err) {
			return fmt.Errorf("tree file not found: %s", s.Tree)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertIREquals:
		if _, err := parseIR(a.IR); err != nil {
			return fmt.Errorf("assertions[%d]: ir: %w", index, err)
		}
	case AssertContains:
		if _, err := parseIR(a.Form); err != nil {
			return fmt.Errorf("assertions[%d]: form: %w", index, err)
		}
	case AssertHeadCount:
		if a.Head == "" {
			return fmt.Errorf("assertions[%d]: head is required for head_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for head_count", index)
		}
	case AssertIRHash:
		if a.Hash == "" {
			return fmt.Errorf("assertions[%d]: hash is required for ir_hash", index)
		}
	case AssertDialect:
		if a.Dialect == "" {
			return fmt.Errorf("assertions[%d]: dialect is required for dialect", index)
		}
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// parseIR decodes an IR value written as JSON in a scenario.
func parseIR(text string) (ir.IRValue, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("is required")
	}
	return ir.UnmarshalIRValue([]byte(text))
}
