package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate_MutuallyRecursiveFieldsDetected(t *testing.T) {
	var fieldA, fieldB StateField[int]
	fieldA = DefineField[int](FieldSpec[int]{
		Name:   "a",
		Create: func(*EditorState) int { return 0 },
		Update: func(v int, tr *Transaction) int {
			return fieldB.Get(tr.State()) + 1
		},
	})
	fieldB = DefineField[int](FieldSpec[int]{
		Name:   "b",
		Create: func(*EditorState) int { return 0 },
		Update: func(v int, tr *Transaction) int {
			return fieldA.Get(tr.State()) + 1
		},
	})

	// Creation is fine: create functions do not read each other.
	st, err := NewEditorState(EditorStateConfig{Extension: Extensions(fieldA, fieldB)})
	require.NoError(t, err)

	// The first update forces a, whose update forces b, whose update
	// re-enters a mid-computation.
	_, err = st.Update(TransactionSpec{Doc: strptr("x")})
	require.Error(t, err)
	assert.True(t, IsCyclicDependency(err))

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "a", ce.Entity)
}

func TestUpdate_FieldFacetFieldCycleDetected(t *testing.T) {
	size := firstIntFacet("size", 0)
	var field StateField[int]
	field = DefineField[int](FieldSpec[int]{
		Name:   "looper",
		Create: func(*EditorState) int { return 0 },
		Update: func(v int, tr *Transaction) int {
			return size.Get(tr.State())
		},
	})
	decorated := Provide(field, size, func(v int) int { return v })

	st, err := NewEditorState(EditorStateConfig{Extension: decorated})
	require.NoError(t, err)

	_, err = st.Update(TransactionSpec{Doc: strptr("x")})
	require.Error(t, err)
	assert.True(t, IsCyclicDependency(err))
}

func TestNewEditorState_SelfReferentialProviderDetected(t *testing.T) {
	size := firstIntFacet("size", 0)
	loop := size.Compute([]Dependency{size}, func(st *EditorState) int {
		return size.Get(st)
	})

	_, err := NewEditorState(EditorStateConfig{Extension: loop})
	require.Error(t, err)
	assert.True(t, IsCyclicDependency(err))
}

func TestEnsure_ProviderEvaluatedOncePerTransition(t *testing.T) {
	calls := 0
	lengths := firstIntFacet("len", 0)
	dynamic := lengths.Compute([]Dependency{Doc}, func(st *EditorState) int {
		calls++
		return len(st.Doc())
	})

	st, err := NewEditorState(EditorStateConfig{Extension: dynamic})
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	// Repeated reads hit the computed slot; nothing re-runs.
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0, lengths.Get(st))
	}
	assert.Equal(t, 1, calls)

	tr, err := st.Update(TransactionSpec{Doc: strptr("ab")})
	require.NoError(t, err)
	assert.Equal(t, 2, lengths.Get(tr.State()))
	assert.Equal(t, 2, lengths.Get(tr.State()))
	assert.Equal(t, 2, calls)
}

func TestEnsure_DemandOrderIndependentOfDeclarationOrder(t *testing.T) {
	lengths := firstIntFacet("len", 0)
	doubled := firstIntFacet("doubled", 0)

	// doubled is declared before its dependency: its provider slot is
	// evaluated first and pulls the len facet in on demand.
	tree := Extensions(
		doubled.Compute([]Dependency{lengths}, func(st *EditorState) int {
			return lengths.Get(st) * 2
		}),
		lengths.Compute([]Dependency{Doc}, func(st *EditorState) int {
			return len(st.Doc())
		}),
	)

	st, err := NewEditorState(EditorStateConfig{Doc: "abc", Extension: tree})
	require.NoError(t, err)
	assert.Equal(t, 6, doubled.Get(st))

	tr, err := st.Update(TransactionSpec{Doc: strptr("abcde")})
	require.NoError(t, err)
	assert.Equal(t, 10, doubled.Get(tr.State()))
	assert.True(t, doubled.Changed(tr.State()))
}

func TestUpdate_UserPanicPropagates(t *testing.T) {
	size := firstIntFacet("size", 0)
	bomb := size.Compute([]Dependency{Doc}, func(st *EditorState) int {
		if st.Doc() == "boom" {
			panic("getter exploded")
		}
		return 0
	})

	st, err := NewEditorState(EditorStateConfig{Extension: bomb})
	require.NoError(t, err)

	// Panics that are not evaluator errors are not converted; they belong
	// to the caller.
	assert.PanicsWithValue(t, "getter exploded", func() {
		_, _ = st.Update(TransactionSpec{Doc: strptr("boom")})
	})
}

func TestEnsure_StaticAddressAlwaysComputed(t *testing.T) {
	f := firstIntFacet("f", 0)
	st, err := NewEditorState(EditorStateConfig{Extension: f.Of(3)})
	require.NoError(t, err)

	addr := st.config.address[f.data.id]
	require.True(t, addr.isStatic())
	assert.Equal(t, statusComputed, ensureAddr(st, addr))
	assert.Equal(t, 3, getAddr(st, addr))
	assert.False(t, f.Changed(st), "static values never report changes")
}
