package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/prism/internal/canon"
)

// TraceBytes serializes a result's step history as canonical JSON. The
// bytes are deterministic for a given scenario, which is what makes them
// usable as golden fixtures.
func TraceBytes(result *Result) ([]byte, error) {
	steps := make([]any, len(result.Steps))
	for i, step := range result.Steps {
		steps[i] = map[string]any{
			"seq":           step.Seq,
			"doc_changed":   step.DocChanged,
			"selection_set": step.SelectionSet,
			"doc":           step.Doc,
			"anchor":        step.Selection.Anchor,
			"head":          step.Selection.Head,
			"facets":        step.Snapshot,
			"hash":          step.SnapshotHash,
		}
	}
	return canon.Marshal(map[string]any{
		"scenario_name": result.ScenarioName,
		"initial_hash":  result.InitialHash,
		"steps":         steps,
	})
}

// RunWithGolden executes a scenario and compares its trace against the
// golden file testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	trace, err := TraceBytes(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, trace)
	return nil
}
