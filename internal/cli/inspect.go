package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/prism/internal/canon"
	"github.com/roach88/prism/internal/manifest"
	"github.com/roach88/prism/internal/state"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Doc string
}

// InspectResult is the inspect command's payload.
type InspectResult struct {
	Manifest     string           `json:"manifest"`
	Facets       map[string]any   `json:"facets"`
	Fields       map[string]int64 `json:"fields"`
	StaticCount  int              `json:"static_count"`
	DynamicSlots []state.SlotInfo `json:"dynamic_slots"`
	SnapshotHash string           `json:"snapshot_hash"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <manifest>",
		Short: "Resolve a manifest and print the configuration layout",
		Long: `Resolve a manifest into a configuration and print the facet values,
field values, and slot layout of the initial state.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Doc, "doc", "", "initial document text")

	return cmd
}

func runInspect(opts *InspectOptions, manifestPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	prog, err := manifest.LoadAndBuild(manifestPath)
	if err != nil {
		formatter.Error(ErrCodeLoad, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading manifest", err)
	}

	st, err := state.NewEditorState(state.EditorStateConfig{Doc: opts.Doc, Extension: prog.Extension})
	if err != nil {
		formatter.Error(ErrCodeResolve, err.Error(), nil)
		return WrapExitError(ExitFailure, "resolving configuration", err)
	}

	snapshot, err := prog.Snapshot(st)
	if err != nil {
		formatter.Error(ErrCodeResolve, err.Error(), nil)
		return WrapExitError(ExitFailure, "reading facets", err)
	}
	hash, err := canon.SnapshotHash(st.Doc(), st.Selection().Anchor, st.Selection().Head, snapshot)
	if err != nil {
		formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "hashing snapshot", err)
	}

	fields := make(map[string]int64, len(prog.FieldNames()))
	for _, name := range prog.FieldNames() {
		v, err := prog.FieldValue(st, name)
		if err != nil {
			formatter.Error(ErrCodeResolve, err.Error(), nil)
			return WrapExitError(ExitFailure, "reading fields", err)
		}
		fields[name] = v
	}

	info := st.Config().Describe()
	result := InspectResult{
		Manifest:     manifestPath,
		Facets:       snapshot,
		Fields:       fields,
		StaticCount:  info.StaticCount,
		DynamicSlots: info.DynamicSlots,
		SnapshotHash: hash,
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(formatInspectText(result, prog.FacetNames()))
}

func formatInspectText(result InspectResult, facetNames []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "manifest: %s\n", result.Manifest)
	fmt.Fprintf(&b, "facets:\n")
	for _, name := range facetNames {
		fmt.Fprintf(&b, "  %s = %v\n", name, result.Facets[name])
	}
	if len(result.Fields) > 0 {
		fieldNames := make([]string, 0, len(result.Fields))
		for name := range result.Fields {
			fieldNames = append(fieldNames, name)
		}
		sort.Strings(fieldNames)
		fmt.Fprintf(&b, "fields:\n")
		for _, name := range fieldNames {
			fmt.Fprintf(&b, "  %s = %d\n", name, result.Fields[name])
		}
	}
	fmt.Fprintf(&b, "static values: %d\n", result.StaticCount)
	fmt.Fprintf(&b, "dynamic slots:\n")
	for _, slot := range result.DynamicSlots {
		fmt.Fprintf(&b, "  [%d] %-9s %s\n", slot.Index, slot.Kind, slot.Owner)
	}
	fmt.Fprintf(&b, "snapshot hash: %s", result.SnapshotHash)
	return b.String()
}
