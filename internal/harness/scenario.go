package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a token database lifecycle test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// HashLength overrides tokens.DefaultHashLength when non-zero.
	HashLength int `yaml:"hash_length,omitempty"`

	// Strings seed the initial database.
	Strings []string `yaml:"strings,omitempty"`

	// Steps run in order against the database.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final database.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one database operation.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Strings are the inputs of add and mark_removals.
	Strings []string `yaml:"strings,omitempty"`

	// Date is a YYYY-MM-DD removal date or purge cutoff.
	Date string `yaml:"date,omitempty"`

	// Include and Exclude are filter patterns.
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`

	// Entries make up the database merged by a merge step.
	Entries []EntrySpec `yaml:"entries,omitempty"`

	// Format is the roundtrip encoding: binary or csv.
	Format string `yaml:"format,omitempty"`

	// ExpectAffected, if set, is the number of entries the step must mark,
	// purge or filter out.
	ExpectAffected *int `yaml:"expect_affected,omitempty"`
}

// EntrySpec describes an entry of a merged database. The token is computed
// from the string with the scenario's hash.
type EntrySpec struct {
	String      string `yaml:"string"`
	DateRemoved string `yaml:"date_removed,omitempty"`
}

// Assertion validates the final database.
type Assertion struct {
	Type    string   `yaml:"type"`
	String  string   `yaml:"string,omitempty"`
	Strings []string `yaml:"strings,omitempty"`
	Date    string   `yaml:"date,omitempty"`
	Count   int      `yaml:"count,omitempty"`
}

// Step operations.
const (
	OpAdd          = "add"
	OpMarkRemovals = "mark_removals"
	OpPurge        = "purge"
	OpMerge        = "merge"
	OpFilter       = "filter"
	OpRoundTrip    = "roundtrip"
)

// Assertion type constants.
const (
	AssertEntryCount = "entry_count"
	AssertPresent    = "present"
	AssertRemoved    = "removed"
	AssertAbsent     = "absent"
	AssertCollision  = "collision"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.HashLength < 0 {
		return fmt.Errorf("hash_length must not be negative")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	return nil
}

func validateStep(step Step) error {
	switch step.Op {
	case OpAdd:
		if len(step.Strings) == 0 {
			return fmt.Errorf("add requires strings")
		}
	case OpMarkRemovals, OpPurge:
	case OpMerge:
		if len(step.Entries) == 0 {
			return fmt.Errorf("merge requires entries")
		}
	case OpFilter:
		if len(step.Include) == 0 && len(step.Exclude) == 0 {
			return fmt.Errorf("filter requires include or exclude")
		}
	case OpRoundTrip:
		if step.Format != "binary" && step.Format != "csv" {
			return fmt.Errorf("roundtrip format must be binary or csv, got %q", step.Format)
		}
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertEntryCount, AssertPresent, AssertAbsent:
	case AssertRemoved:
		if a.Date == "" {
			return fmt.Errorf("removed requires date")
		}
	case AssertCollision:
		if len(a.Strings) < 2 {
			return fmt.Errorf("collision requires at least two strings")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
