package harness

import (
	"fmt"

	"github.com/roach88/prism/internal/canon"
	"github.com/roach88/prism/internal/manifest"
	"github.com/roach88/prism/internal/state"
)

// StepResult captures the observed state after one step.
type StepResult struct {
	Seq          int64
	DocChanged   bool
	SelectionSet bool
	Doc          string
	Selection    state.Selection
	Snapshot     map[string]any
	SnapshotHash string
}

// Result is the full execution record of a scenario.
type Result struct {
	ScenarioName string
	InitialHash  string
	Steps        []StepResult
	FinalState   *state.EditorState
	Program      *manifest.Program
}

// Run executes a scenario: builds the manifest, applies every step, and
// checks the step assertions. The first failed assertion aborts the run.
func Run(scenario *Scenario) (*Result, error) {
	prog, err := manifest.LoadAndBuild(scenario.Manifest)
	if err != nil {
		return nil, fmt.Errorf("building manifest: %w", err)
	}

	cfg := state.EditorStateConfig{Doc: scenario.Doc, Extension: prog.Extension}
	if scenario.Selection != nil {
		cfg.Selection = state.Selection{Anchor: scenario.Selection.Anchor, Head: scenario.Selection.Head}
	}
	st, err := state.NewEditorState(cfg)
	if err != nil {
		return nil, fmt.Errorf("building initial state: %w", err)
	}

	initialHash, err := hashState(prog, st)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ScenarioName: scenario.Name,
		InitialHash:  initialHash,
		Program:      prog,
	}

	for i, step := range scenario.Steps {
		spec := state.TransactionSpec{Doc: step.Doc}
		if step.Selection != nil {
			spec.Selection = &state.Selection{Anchor: step.Selection.Anchor, Head: step.Selection.Head}
		}
		tr, err := st.Update(spec)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: applying transaction: %w", i, err)
		}
		st = tr.State()

		snapshot, err := prog.Snapshot(st)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: reading snapshot: %w", i, err)
		}
		hash, err := canon.SnapshotHash(st.Doc(), st.Selection().Anchor, st.Selection().Head, snapshot)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: hashing snapshot: %w", i, err)
		}

		if err := checkStep(prog, st, step, snapshot); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}

		result.Steps = append(result.Steps, StepResult{
			Seq:          int64(i + 1),
			DocChanged:   tr.DocChanged,
			SelectionSet: tr.SelectionSet,
			Doc:          st.Doc(),
			Selection:    st.Selection(),
			Snapshot:     snapshot,
			SnapshotHash: hash,
		})
	}

	result.FinalState = st
	return result, nil
}

func hashState(prog *manifest.Program, st *state.EditorState) (string, error) {
	snapshot, err := prog.Snapshot(st)
	if err != nil {
		return "", fmt.Errorf("reading snapshot: %w", err)
	}
	return canon.SnapshotHash(st.Doc(), st.Selection().Anchor, st.Selection().Head, snapshot)
}

// checkStep verifies one step's expect/changed/fields assertions.
func checkStep(prog *manifest.Program, st *state.EditorState, step Step, snapshot map[string]any) error {
	for name, want := range step.Expect {
		got, ok := snapshot[name]
		if !ok {
			return fmt.Errorf("expect: unknown facet %q", name)
		}
		if !valueEqual(normalize(want), got) {
			return fmt.Errorf("expect: facet %q = %v, want %v", name, got, want)
		}
	}
	for name, want := range step.Changed {
		got, err := prog.FacetChanged(st, name)
		if err != nil {
			return fmt.Errorf("changed: %w", err)
		}
		if got != want {
			return fmt.Errorf("changed: facet %q changed=%v, want %v", name, got, want)
		}
	}
	for name, want := range step.Fields {
		got, err := prog.FieldValue(st, name)
		if err != nil {
			return fmt.Errorf("fields: %w", err)
		}
		if got != want {
			return fmt.Errorf("fields: field %q = %d, want %d", name, got, want)
		}
	}
	return nil
}

// normalize widens YAML-decoded values to the snapshot's representation:
// ints become int64, list elements are normalized recursively.
func normalize(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalize(elem)
		}
		return out
	default:
		return v
	}
}

func valueEqual(a, b any) bool {
	la, aok := a.([]any)
	lb, bok := b.([]any)
	if aok || bok {
		if !aok || !bok || len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !valueEqual(la[i], lb[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}
