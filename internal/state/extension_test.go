package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticProviders(leaves []Extension) []int {
	var values []int
	for _, leaf := range leaves {
		if p, ok := leaf.(*provider); ok && p.kind == providerStatic {
			values = append(values, p.value.(int))
		}
	}
	return values
}

func TestFlatten_InsertionOrderWithinLevel(t *testing.T) {
	f := firstIntFacet("f", 0)
	leaves := flatten(Extensions(f.Of(1), f.Of(2), f.Of(3)))
	assert.Equal(t, []int{1, 2, 3}, staticProviders(leaves))
}

func TestFlatten_PrecedenceBucketsConcatenateOverrideFirst(t *testing.T) {
	f := firstIntFacet("f", 0)
	leaves := flatten(Extensions(
		PrecFallback.Set(f.Of(40)),
		f.Of(30),
		PrecExtend.Set(f.Of(20)),
		PrecOverride.Set(f.Of(10)),
	))
	assert.Equal(t, []int{10, 20, 30, 40}, staticProviders(leaves))
}

func TestFlatten_NestedPrecedenceKeepsInnerLevel(t *testing.T) {
	f := firstIntFacet("f", 0)
	// The outer wrapper must not disturb the explicitly set inner level.
	leaves := flatten(PrecFallback.Set(Extensions(
		PrecOverride.Set(f.Of(1)),
		f.Of(2),
	)))
	assert.Equal(t, []int{1, 2}, staticProviders(leaves))
}

func TestFlatten_SharedSubtreeContributesOnce(t *testing.T) {
	f := firstIntFacet("f", 0)
	shared := f.Of(7)
	leaves := flatten(Extensions(shared, Extensions(shared), shared))
	assert.Equal(t, []int{7}, staticProviders(leaves))
}

func TestFlatten_FieldAttachedExtensionsInheritFieldPrecedence(t *testing.T) {
	f := firstIntFacet("f", 0)
	counter := DefineField[int](FieldSpec[int]{
		Name:   "counter",
		Create: func(*EditorState) int { return 0 },
		Update: func(v int, _ *Transaction) int { return v },
	})
	decorated := Provide(counter, f, func(v int) int { return v })

	leaves := flatten(Extensions(
		f.Of(1),
		PrecOverride.Set(decorated),
	))
	// The field and its attached provider land in the override bucket,
	// ahead of the default-level static provider.
	require.Len(t, leaves, 3)
	_, isField := leaves[0].(fieldExtension)
	assert.True(t, isField)
	p, isProvider := leaves[1].(*provider)
	require.True(t, isProvider)
	assert.Equal(t, providerSingle, p.kind)
	assert.Equal(t, []int{1}, staticProviders(leaves))
}

func TestFlatten_AttachedProviderExplicitPrecedenceWins(t *testing.T) {
	f := firstIntFacet("f", 0)
	counter := DefineField[int](FieldSpec[int]{
		Name:   "counter",
		Create: func(*EditorState) int { return 9 },
		Update: func(v int, _ *Transaction) int { return v },
	})
	decorated := Provide(counter, f, func(v int) int { return v }, PrecOverride)

	st, err := NewEditorState(EditorStateConfig{
		Extension: Extensions(f.Of(1), decorated),
	})
	require.NoError(t, err)
	// Field provider carries override precedence, so it outranks the
	// default-level literal even though the field sits at default.
	assert.Equal(t, 9, f.Get(st))
}

func TestPrecedence_String(t *testing.T) {
	assert.Equal(t, "override", PrecOverride.String())
	assert.Equal(t, "extend", PrecExtend.String())
	assert.Equal(t, "default", PrecDefault.String())
	assert.Equal(t, "fallback", PrecFallback.String())
}

func TestExtensions_SkipsNil(t *testing.T) {
	f := firstIntFacet("f", 0)
	leaves := flatten(Extensions(nil, f.Of(1), nil))
	assert.Equal(t, []int{1}, staticProviders(leaves))
}
