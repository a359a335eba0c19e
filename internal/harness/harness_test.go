package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestLoadScenario_ResolvesManifestRelativeToFile(t *testing.T) {
	scenario, err := LoadScenario("testdata/precedence.yaml")
	require.NoError(t, err)
	assert.Equal(t, "precedence", scenario.Name)
	assert.Equal(t, filepath.Join("testdata", "editor.cue"), scenario.Manifest)
	assert.Len(t, scenario.Steps, 2)
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	manifest, err := filepath.Abs("testdata/editor.cue")
	require.NoError(t, err)

	path := writeScenario(t, `
name: typo
description: step vs steps
manifest: `+manifest+`
step:
  - doc: "x"
`)
	_, err = LoadScenario(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to parse YAML")
}

func TestLoadScenario_RequiresManifestToExist(t *testing.T) {
	path := writeScenario(t, `
name: ghost
description: manifest file is missing
manifest: nowhere.cue
steps:
  - doc: "x"
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "manifest file not found")
}

func TestLoadScenario_RejectsEmptySteps(t *testing.T) {
	manifest, err := filepath.Abs("testdata/editor.cue")
	require.NoError(t, err)

	path := writeScenario(t, `
name: hollow
description: no steps at all
manifest: `+manifest+`
steps: []
`)
	_, err = LoadScenario(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "steps list is required")
}

func TestRun_PrecedenceScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/precedence.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Steps, 2)

	first := result.Steps[0]
	assert.True(t, first.DocChanged)
	assert.Equal(t, "hello world", first.Doc)
	assert.Equal(t, int64(8), first.Snapshot["tabSize"])
	assert.Equal(t, int64(11), first.Snapshot["docLen"])

	second := result.Steps[1]
	assert.False(t, second.DocChanged)
	assert.True(t, second.SelectionSet)
	assert.NotEqual(t, first.SnapshotHash, second.SnapshotHash,
		"selection is part of the snapshot identity")
	assert.NotEmpty(t, result.InitialHash)
}

func TestRun_FailedExpectationReportsStep(t *testing.T) {
	manifest, err := filepath.Abs("testdata/editor.cue")
	require.NoError(t, err)

	scenario := &Scenario{
		Name:        "mismatch",
		Description: "expects the wrong tab size",
		Manifest:    manifest,
		Doc:         "hello",
		Steps: []Step{
			{Expect: map[string]any{"tabSize": 2}},
		},
	}
	_, err = Run(scenario)
	require.Error(t, err)
	assert.ErrorContains(t, err, "steps[0]")
	assert.ErrorContains(t, err, `facet "tabSize"`)
}

func TestRun_UnknownFacetInExpect(t *testing.T) {
	manifest, err := filepath.Abs("testdata/editor.cue")
	require.NoError(t, err)

	scenario := &Scenario{
		Name:        "unknown-facet",
		Description: "expects a facet the manifest never declared",
		Manifest:    manifest,
		Steps: []Step{
			{Expect: map[string]any{"fontSize": 12}},
		},
	}
	_, err = Run(scenario)
	require.Error(t, err)
	assert.ErrorContains(t, err, `unknown facet "fontSize"`)
}

func TestRunWithGolden_Precedence(t *testing.T) {
	scenario, err := LoadScenario("testdata/precedence.yaml")
	require.NoError(t, err)
	require.NoError(t, RunWithGolden(t, scenario))
}

func TestTraceBytes_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/precedence.yaml")
	require.NoError(t, err)

	r1, err := Run(scenario)
	require.NoError(t, err)
	r2, err := Run(scenario)
	require.NoError(t, err)

	b1, err := TraceBytes(r1)
	require.NoError(t, err)
	b2, err := TraceBytes(r2)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}
