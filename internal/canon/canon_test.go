package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_SortsKeysByUTF16CodeUnits(t *testing.T) {
	// U+1D11E (musical G clef) encodes as the surrogate pair D834 DD1E,
	// which sorts before U+FF20 in UTF-16 but after it in UTF-8. RFC 8785
	// requires the UTF-16 order.
	out, err := Marshal(map[string]any{
		"＠":  2,
		"𝄞": 1,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"𝄞":1,"＠":2}`, string(out))
}

func TestMarshal_PlainObjectAndArray(t *testing.T) {
	out, err := Marshal(map[string]any{
		"b":    []any{1, "two", true},
		"a":    int64(-7),
		"flag": false,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":-7,"b":[1,"two",true],"flag":false}`, string(out))
}

func TestMarshal_NoHTMLEscaping(t *testing.T) {
	out, err := Marshal("<a href=\"x\">&</a>")
	require.NoError(t, err)
	assert.Equal(t, `"<a href=\"x\">&</a>"`, string(out))
}

func TestMarshal_ControlCharacterEscapes(t *testing.T) {
	out, err := Marshal("a\nb\tc\u0001d")
	require.NoError(t, err)
	assert.Equal(t, `"a\nb\tc\u0001d"`, string(out))
}

func TestMarshal_LineAndParagraphSeparatorsStayLiteral(t *testing.T) {
	out, err := Marshal("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(out))
}

func TestMarshal_NFCNormalizesStrings(t *testing.T) {
	// e + combining acute accent normalizes to the precomposed form.
	composed, err := Marshal("café")
	require.NoError(t, err)
	decomposed, err := Marshal("cafe\u0301")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshal_RejectsFloatsAndNull(t *testing.T) {
	_, err := Marshal(3.14)
	assert.ErrorContains(t, err, "floats are forbidden")

	_, err = Marshal(nil)
	assert.ErrorContains(t, err, "null is forbidden")

	_, err = Marshal(map[string]any{"ok": 1, "bad": []any{nil}})
	require.Error(t, err)
	assert.ErrorContains(t, err, `object["bad"]`)
}

func TestMarshal_RejectsUnsupportedTypes(t *testing.T) {
	_, err := Marshal(struct{}{})
	assert.ErrorContains(t, err, "unsupported type")
}

func TestHash_DomainSeparation(t *testing.T) {
	v := map[string]any{"doc": "hello"}
	h1, err := Hash(DomainSnapshot, v)
	require.NoError(t, err)
	h2, err := Hash(DomainTransition, v)
	require.NoError(t, err)

	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, h2)
}

func TestSnapshotHash_DeterministicAndSensitive(t *testing.T) {
	facets := map[string]any{"tabSize": 4, "themes": []any{"dark"}}

	h1, err := SnapshotHash("doc", 0, 3, facets)
	require.NoError(t, err)
	h2, err := SnapshotHash("doc", 0, 3, map[string]any{"themes": []any{"dark"}, "tabSize": 4})
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "key insertion order must not matter")

	h3, err := SnapshotHash("doc!", 0, 3, facets)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestSnapshotHash_RejectsFloatFacetValues(t *testing.T) {
	_, err := SnapshotHash("doc", 0, 0, map[string]any{"zoom": 1.5})
	assert.Error(t, err)
}
