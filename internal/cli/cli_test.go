package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prism/internal/store"
)

// runCLI executes the root command with the given args and captured output.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand_InvalidFormatRejected(t *testing.T) {
	_, _, err := runCLI(t, "--format", "xml", "inspect", filepath.Join("testdata", "editor.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestInspect_TextOutput(t *testing.T) {
	out, _, err := runCLI(t, "inspect", filepath.Join("testdata", "editor.cue"), "--doc", "hi")
	require.NoError(t, err)

	assert.Contains(t, out, "tabSize = 2")
	assert.Contains(t, out, "docLen = 2")
	assert.Contains(t, out, "length = 2")
	assert.Contains(t, out, "snapshot hash: ")
}

func TestInspect_JSONOutput(t *testing.T) {
	out, _, err := runCLI(t, "--format", "json", "inspect", filepath.Join("testdata", "editor.cue"), "--doc", "hi")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Len(t, data["snapshot_hash"], 64)
	facets, ok := data["facets"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), facets["tabSize"])
}

func TestInspect_MissingManifest(t *testing.T) {
	_, _, err := runCLI(t, "inspect", filepath.Join("testdata", "no-such.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestEval_JSONOutput(t *testing.T) {
	out, _, err := runCLI(t, "--format", "json", "eval", filepath.Join("testdata", "script.yaml"))
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "script", data["scenario"])
	steps, ok := data["steps"].([]any)
	require.True(t, ok)
	assert.Len(t, steps, 2)
}

func TestEvalReplay_RoundTrip(t *testing.T) {
	db := filepath.Join(t.TempDir(), "log.db")

	out, _, err := runCLI(t, "eval", filepath.Join("testdata", "script.yaml"),
		"--db", db, "--token", "round-trip")
	require.NoError(t, err)
	assert.Contains(t, out, "session: round-trip")
	assert.Contains(t, out, "2 step(s) applied")

	out, _, err = runCLI(t, "replay", "--db", db, "--token", "round-trip")
	require.NoError(t, err)
	assert.Contains(t, out, "replay ok: 2 transition(s) verified")
}

func TestReplay_UnknownSession(t *testing.T) {
	db := filepath.Join(t.TempDir(), "log.db")
	s, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, _, err = runCLI(t, "replay", "--db", db, "--token", "nobody")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplay_DivergenceDetected(t *testing.T) {
	db := filepath.Join(t.TempDir(), "log.db")

	_, _, err := runCLI(t, "eval", filepath.Join("testdata", "script.yaml"),
		"--db", db, "--token", "tampered")
	require.NoError(t, err)

	s, err := store.Open(db)
	require.NoError(t, err)
	_, err = s.DB().Exec(
		`UPDATE transitions SET snapshot_hash = 'deadbeef' WHERE session_token = ? AND seq = 2`,
		"tampered")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	out, _, err := runCLI(t, "replay", "--db", db, "--token", "tampered")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E010")
	assert.Contains(t, out, "replay diverged on 1 of 2 transition(s)")
}

func TestReplay_DivergenceDetails_JSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "log.db")

	_, _, err := runCLI(t, "eval", filepath.Join("testdata", "script.yaml"),
		"--db", db, "--token", "tampered-json")
	require.NoError(t, err)

	s, err := store.Open(db)
	require.NoError(t, err)
	_, err = s.DB().Exec(
		`UPDATE transitions SET snapshot_hash = 'deadbeef' WHERE session_token = ? AND seq = 1`,
		"tampered-json")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	out, _, err := runCLI(t, "--format", "json", "replay", "--db", db, "--token", "tampered-json")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeReplayDiverged, resp.Error.Code)

	details, ok := resp.Error.Details.([]any)
	require.True(t, ok)
	require.Len(t, details, 1)
	mismatch, ok := details[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), mismatch["seq"])
	assert.Equal(t, "deadbeef", mismatch["recorded"])
}
