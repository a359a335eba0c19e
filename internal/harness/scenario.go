// Package harness runs conformance scenarios against manifest-built editor
// configurations.
//
// A scenario names a manifest, an initial document and selection, and a
// sequence of transaction steps. Each step may assert facet values, change
// flags, and field values observed after the transaction. Golden trace
// files capture the full step-by-step snapshot history in canonical JSON.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	manifest: path/to/editor.cue
//	doc: "initial document"
//	selection: {anchor: 0, head: 0}
//	steps:
//	  - doc: "new document"
//	    expect: { tabSize: 2, themes: ["dark"] }
//	    changed: { tabSize: false }
//	    fields: { changes: 1 }
package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Manifest is the path to the manifest CUE file, relative to the
	// scenario file location.
	Manifest string `yaml:"manifest"`

	// Doc is the initial document text.
	Doc string `yaml:"doc,omitempty"`

	// Selection is the initial selection; zero when omitted.
	Selection *SelectionSpec `yaml:"selection,omitempty"`

	// Steps are the transactions to apply, in order.
	Steps []Step `yaml:"steps"`
}

// SelectionSpec mirrors a selection in YAML form.
type SelectionSpec struct {
	Anchor int `yaml:"anchor"`
	Head   int `yaml:"head"`
}

// Step is one transaction plus its assertions.
type Step struct {
	// Doc, when set, replaces the document text.
	Doc *string `yaml:"doc,omitempty"`

	// Selection, when set, replaces the selection.
	Selection *SelectionSpec `yaml:"selection,omitempty"`

	// Expect asserts facet values after the transaction. Subset match -
	// only named facets are checked.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Changed asserts per-facet change flags after the transaction.
	Changed map[string]bool `yaml:"changed,omitempty"`

	// Fields asserts field values after the transaction.
	Fields map[string]int64 `yaml:"fields,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. The manifest path is
// resolved relative to the scenario file. Unknown YAML fields are rejected,
// which catches typos like "step:" for "steps:".
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

	if scenario.Manifest != "" && !filepath.IsAbs(scenario.Manifest) {
		scenario.Manifest = filepath.Join(filepath.Dir(path), scenario.Manifest)
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
	if s.Manifest == "" {
		return fmt.Errorf("manifest is required")
	}
	if _, err := os.Stat(s.Manifest); os.IsNotExist(err) {
		return fmt.Errorf("manifest file not found: %s", s.Manifest)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if step.Doc == nil && step.Selection == nil &&
			len(step.Expect) == 0 && len(step.Changed) == 0 && len(step.Fields) == 0 {
			return fmt.Errorf("steps[%d]: empty step", i)
		}
	}
	return nil
}
