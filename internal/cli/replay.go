package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/prism/internal/canon"
	"github.com/roach88/prism/internal/manifest"
	"github.com/roach88/prism/internal/state"
	"github.com/roach88/prism/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	DB    string
	Token string
}

// ReplayMismatch records one diverging transition.
type ReplayMismatch struct {
	Seq      int64  `json:"seq"`
	Recorded string `json:"recorded"`
	Computed string `json:"computed"`
}

// ReplayResult is the replay command's payload.
type ReplayResult struct {
	Token       string           `json:"token"`
	Manifest    string           `json:"manifest"`
	Transitions int              `json:"transitions"`
	Mismatches  []ReplayMismatch `json:"mismatches,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-apply a logged session and verify determinism",
		Long: `Rebuild a session's configuration from its manifest, re-apply every
logged transition, and verify that each recomputed snapshot hash matches
the recorded one. A divergence means evaluation was not deterministic
(or the manifest changed since the log was written).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "transition log database path (required)")
	cmd.Flags().StringVar(&opts.Token, "token", "", "session token (required)")
	cmd.MarkFlagRequired("db")
	cmd.MarkFlagRequired("token")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := store.Open(opts.DB)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening store", err)
	}
	defer s.Close()

	ctx := context.Background()
	sess, err := s.GetSession(ctx, opts.Token)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading session", err)
	}
	transitions, err := s.ListTransitions(ctx, opts.Token)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading transitions", err)
	}

	result, err := replaySession(sess, transitions)
	if err != nil {
		formatter.Error(ErrCodeResolve, err.Error(), nil)
		return WrapExitError(ExitFailure, "replaying session", err)
	}

	if len(result.Mismatches) > 0 {
		msg := fmt.Sprintf("replay diverged on %d of %d transition(s)", len(result.Mismatches), result.Transitions)
		formatter.Error(ErrCodeReplayDiverged, msg, result.Mismatches)
		return NewExitError(ExitFailure, msg)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(formatReplayText(result))
}

// replaySession rebuilds the session's initial state and re-applies the
// log, collecting hash mismatches rather than stopping at the first.
func replaySession(sess store.Session, transitions []store.Transition) (*ReplayResult, error) {
	prog, err := manifest.LoadAndBuild(sess.Manifest)
	if err != nil {
		return nil, fmt.Errorf("building manifest: %w", err)
	}

	st, err := state.NewEditorState(state.EditorStateConfig{
		Doc:       sess.Doc,
		Selection: state.Selection{Anchor: int(sess.SelAnchor), Head: int(sess.SelHead)},
		Extension: prog.Extension,
	})
	if err != nil {
		return nil, fmt.Errorf("building initial state: %w", err)
	}

	result := &ReplayResult{
		Token:       sess.Token,
		Manifest:    sess.Manifest,
		Transitions: len(transitions),
	}

	initialHash, err := snapshotHash(prog, st)
	if err != nil {
		return nil, err
	}
	if initialHash != sess.SnapshotHash {
		result.Mismatches = append(result.Mismatches, ReplayMismatch{
			Seq:      0,
			Recorded: sess.SnapshotHash,
			Computed: initialHash,
		})
	}

	for _, logged := range transitions {
		spec := state.TransactionSpec{}
		if logged.DocChanged {
			doc := logged.Doc
			spec.Doc = &doc
		}
		if logged.SelectionSet {
			spec.Selection = &state.Selection{Anchor: int(logged.SelAnchor), Head: int(logged.SelHead)}
		}
		tr, err := st.Update(spec)
		if err != nil {
			return nil, fmt.Errorf("transition %d: %w", logged.Seq, err)
		}
		st = tr.State()

		hash, err := snapshotHash(prog, st)
		if err != nil {
			return nil, fmt.Errorf("transition %d: %w", logged.Seq, err)
		}
		if hash != logged.SnapshotHash {
			result.Mismatches = append(result.Mismatches, ReplayMismatch{
				Seq:      logged.Seq,
				Recorded: logged.SnapshotHash,
				Computed: hash,
			})
		}
	}
	return result, nil
}

func snapshotHash(prog *manifest.Program, st *state.EditorState) (string, error) {
	snapshot, err := prog.Snapshot(st)
	if err != nil {
		return "", fmt.Errorf("reading snapshot: %w", err)
	}
	return canon.SnapshotHash(st.Doc(), st.Selection().Anchor, st.Selection().Head, snapshot)
}

func formatReplayText(result *ReplayResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "session: %s\n", result.Token)
	fmt.Fprintf(&b, "manifest: %s\n", result.Manifest)
	fmt.Fprintf(&b, "replay ok: %d transition(s) verified", result.Transitions)
	return b.String()
}
