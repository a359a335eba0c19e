package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/prism/internal/harness"
	"github.com/roach88/prism/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	DB    string
	Token string
}

// EvalStepSummary is one step's record in the eval payload.
type EvalStepSummary struct {
	Seq          int64  `json:"seq"`
	DocChanged   bool   `json:"doc_changed"`
	SelectionSet bool   `json:"selection_set"`
	SnapshotHash string `json:"snapshot_hash"`
}

// EvalResult is the eval command's payload.
type EvalResult struct {
	Scenario    string            `json:"scenario"`
	Token       string            `json:"token,omitempty"`
	InitialHash string            `json:"initial_hash"`
	Steps       []EvalStepSummary `json:"steps"`
	FinalFacets map[string]any    `json:"final_facets"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <scenario>",
		Short: "Apply a transaction script and optionally log it",
		Long: `Apply a scenario's transaction steps against its manifest and check
the step expectations. With --db, the session and its transitions are
appended to the transition log for later replay.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "transition log database path")
	cmd.Flags().StringVar(&opts.Token, "token", "", "fixed session token (defaults to a generated UUIDv7)")

	return cmd
}

func runEval(opts *EvalOptions, scenarioPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	scenario, err := harness.LoadScenario(scenarioPath)
	if err != nil {
		formatter.Error(ErrCodeLoad, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading scenario", err)
	}
	formatter.VerboseLog("Running scenario %q (%d steps)", scenario.Name, len(scenario.Steps))

	result, err := harness.Run(scenario)
	if err != nil {
		formatter.Error(ErrCodeResolve, err.Error(), nil)
		return WrapExitError(ExitFailure, "running scenario", err)
	}

	payload := EvalResult{
		Scenario:    scenario.Name,
		InitialHash: result.InitialHash,
	}
	for _, step := range result.Steps {
		payload.Steps = append(payload.Steps, EvalStepSummary{
			Seq:          step.Seq,
			DocChanged:   step.DocChanged,
			SelectionSet: step.SelectionSet,
			SnapshotHash: step.SnapshotHash,
		})
	}
	payload.FinalFacets, err = result.Program.Snapshot(result.FinalState)
	if err != nil {
		formatter.Error(ErrCodeResolve, err.Error(), nil)
		return WrapExitError(ExitFailure, "reading final facets", err)
	}

	if opts.DB != "" {
		token, err := logRun(opts, scenario, result)
		if err != nil {
			formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "logging transitions", err)
		}
		payload.Token = token
		formatter.VerboseLog("Logged %d transition(s) under session %s", len(result.Steps), token)
	}

	if opts.Format == "json" {
		return formatter.Success(payload)
	}
	return formatter.Success(formatEvalText(payload))
}

// logRun appends the scenario's session and transitions to the store.
func logRun(opts *EvalOptions, scenario *harness.Scenario, result *harness.Result) (string, error) {
	s, err := store.Open(opts.DB)
	if err != nil {
		return "", err
	}
	defer s.Close()

	var gen store.TokenGenerator = store.UUIDv7Generator{}
	if opts.Token != "" {
		gen = store.NewFixedGenerator(opts.Token)
	}
	token := gen.Generate()

	manifestPath, err := filepath.Abs(scenario.Manifest)
	if err != nil {
		return "", fmt.Errorf("resolving manifest path: %w", err)
	}

	ctx := context.Background()
	sess := store.Session{
		Token:        token,
		Manifest:     manifestPath,
		Doc:          scenario.Doc,
		SnapshotHash: result.InitialHash,
	}
	if scenario.Selection != nil {
		sess.SelAnchor = int64(scenario.Selection.Anchor)
		sess.SelHead = int64(scenario.Selection.Head)
	}
	if err := s.CreateSession(ctx, sess); err != nil {
		return "", err
	}

	for _, step := range result.Steps {
		if err := s.AppendTransition(ctx, store.Transition{
			SessionToken: token,
			Seq:          step.Seq,
			DocChanged:   step.DocChanged,
			SelectionSet: step.SelectionSet,
			Doc:          step.Doc,
			SelAnchor:    int64(step.Selection.Anchor),
			SelHead:      int64(step.Selection.Head),
			SnapshotHash: step.SnapshotHash,
		}); err != nil {
			return "", err
		}
	}
	return token, nil
}

func formatEvalText(result EvalResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", result.Scenario)
	if result.Token != "" {
		fmt.Fprintf(&b, "session: %s\n", result.Token)
	}
	fmt.Fprintf(&b, "initial hash: %s\n", result.InitialHash)
	for _, step := range result.Steps {
		fmt.Fprintf(&b, "step %d: doc_changed=%v selection_set=%v hash=%s\n",
			step.Seq, step.DocChanged, step.SelectionSet, step.SnapshotHash)
	}
	fmt.Fprintf(&b, "%d step(s) applied", len(result.Steps))
	return b.String()
}
