package manifest

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileString(t *testing.T, src string) (*Spec, error) {
	t.Helper()
	ctx := cuecontext.New()
	return Compile(ctx.CompileString(src))
}

func TestCompile_FullManifest(t *testing.T) {
	spec, err := compileString(t, `
		facet: tabSize: {
			input:   "int"
			combine: "first"
			default: 4
		}
		facet: themes: {
			input:   "string"
			combine: "list"
		}
		facet: readOnly: {
			input:   "int"
			combine: "first"
			static:  true
		}
		provide: [
			{facet: "tabSize", value: 2, prec: "override"},
			{facet: "themes", value: "dark"},
		]
		field: changes: {
			kind: "changeCount"
			provide: [{facet: "tabSize", prec: "fallback"}]
		}
	`)
	require.NoError(t, err)

	require.Len(t, spec.Facets, 3)
	assert.Equal(t, FacetDecl{Name: "tabSize", Input: "int", Combine: "first", DefaultInt: 4}, spec.Facets[0])
	assert.Equal(t, FacetDecl{Name: "themes", Input: "string", Combine: "list"}, spec.Facets[1])
	assert.True(t, spec.Facets[2].Static)

	require.Len(t, spec.Provisions, 2)
	assert.Equal(t, Provision{Facet: "tabSize", Value: int64(2), Prec: "override"}, spec.Provisions[0])
	assert.Equal(t, Provision{Facet: "themes", Value: "dark", Prec: "default"}, spec.Provisions[1])

	require.Len(t, spec.Fields, 1)
	assert.Equal(t, FieldDecl{
		Name:     "changes",
		Kind:     KindChangeCount,
		Provides: []FieldProvision{{Facet: "tabSize", Prec: "fallback"}},
	}, spec.Fields[0])
}

func TestCompile_MissingInputRejected(t *testing.T) {
	_, err := compileString(t, `facet: broken: {combine: "first"}`)
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "input", ce.Field)
}

func TestCompile_UnknownCombineRejected(t *testing.T) {
	_, err := compileString(t, `facet: broken: {input: "int", combine: "median"}`)
	require.Error(t, err)
	assert.ErrorContains(t, err, `unknown combine strategy "median"`)
}

func TestCompile_CombineInputMismatchRejected(t *testing.T) {
	_, err := compileString(t, `facet: broken: {input: "string", combine: "sum"}`)
	require.Error(t, err)
	assert.ErrorContains(t, err, `requires int input`)

	_, err = compileString(t, `facet: broken: {input: "int", combine: "concat"}`)
	require.Error(t, err)
	assert.ErrorContains(t, err, `requires string input`)
}

func TestCompile_ProvisionForUndeclaredFacetRejected(t *testing.T) {
	_, err := compileString(t, `
		facet: tabSize: {input: "int", combine: "first"}
		provide: [{facet: "ghost", value: 1}]
	`)
	require.Error(t, err)
	assert.ErrorContains(t, err, `undeclared facet "ghost"`)
}

func TestCompile_ProvisionValueTypeChecked(t *testing.T) {
	_, err := compileString(t, `
		facet: tabSize: {input: "int", combine: "first"}
		provide: [{facet: "tabSize", value: "wide"}]
	`)
	require.Error(t, err)
}

func TestCompile_UnknownPrecedenceRejected(t *testing.T) {
	_, err := compileString(t, `
		facet: tabSize: {input: "int", combine: "first"}
		provide: [{facet: "tabSize", value: 2, prec: "highest"}]
	`)
	require.Error(t, err)
	assert.ErrorContains(t, err, `unknown precedence "highest"`)
}

func TestCompile_UnknownFieldKindRejected(t *testing.T) {
	_, err := compileString(t, `
		facet: tabSize: {input: "int", combine: "first"}
		field: clock: {kind: "wallTime"}
	`)
	require.Error(t, err)
	assert.ErrorContains(t, err, `unknown kind "wallTime"`)
}

func TestCompile_FieldIntoStringFacetRejected(t *testing.T) {
	_, err := compileString(t, `
		facet: themes: {input: "string", combine: "list"}
		field: changes: {kind: "changeCount", provide: [{facet: "themes"}]}
	`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "does not take int input")
}

func TestCompile_EmptyManifestRejected(t *testing.T) {
	_, err := compileString(t, `x: 1`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "declares no facets")
}

func TestLoad_ManifestFile(t *testing.T) {
	spec, err := Load("testdata/editor.cue")
	require.NoError(t, err)
	assert.NotEmpty(t, spec.Facets)
	assert.NotEmpty(t, spec.Fields)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/absent.cue")
	require.Error(t, err)
	assert.ErrorContains(t, err, "reading manifest")
}
