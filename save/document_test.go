package save

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDocumentOrderRoundTrip verifies key order survives CBOR and nested maps decode as documents
func TestDocumentOrderRoundTrip(t *testing.T) {
	doc := NewDocument()
	doc.Set("zeta", 1)
	doc.Set("alpha", "two")
	inner := doc.Sub("mid")
	inner.Set("y", 2.5)
	inner.Set("b", true)
	doc.Set("list", []int{3, 4})

	data, err := cbor.Marshal(doc)
	require.NoError(t, err)

	got := NewDocument()
	require.NoError(t, cbor.Unmarshal(data, got))
	assert.Equal(t, []string{"zeta", "alpha", "mid", "list"}, got.Keys())

	sub, ok := got.TrySub("mid")
	require.True(t, ok)
	assert.Equal(t, []string{"y", "b"}, sub.Keys())

	n, err := Read[int](got, "zeta")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := Read[[]int](got, "list")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, list)

	f, err := Read[float64](sub, "y")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, f, 1e-9)
}

// TestDocumentSetKeepsPosition verifies overwriting a key does not move it
func TestDocumentSetKeepsPosition(t *testing.T) {
	doc := NewDocument()
	doc.Set("a", 1)
	doc.Set("b", 2)
	doc.Set("a", 3)
	assert.Equal(t, []string{"a", "b"}, doc.Keys())

	v, ok := doc.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3, v)

	doc.Delete("a")
	assert.False(t, doc.Has("a"))
	assert.Equal(t, 1, doc.Len())
	doc.Delete("missing")
	assert.Equal(t, 1, doc.Len())
}

// TestDocumentSubReplacesScalar verifies Sub turns a scalar slot into a document
func TestDocumentSubReplacesScalar(t *testing.T) {
	doc := NewDocument()
	doc.Set("slot", 7)
	sub := doc.Sub("slot")
	sub.Set("k", "v")
	assert.Same(t, sub, doc.Sub("slot"))
	assert.Equal(t, []string{"slot"}, doc.Keys())
}

// TestDocumentReadErrors covers missing keys and impossible conversions
func TestDocumentReadErrors(t *testing.T) {
	doc := NewDocument()
	doc.Set("name", "ghost")

	_, err := Read[int](doc, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Read[int](doc, "name")
	assert.ErrorIs(t, err, ErrMalformed)
}

// TestDocumentUnmarshalRejectsNonMap verifies only maps decode into a document
func TestDocumentUnmarshalRejectsNonMap(t *testing.T) {
	data, err := cbor.Marshal([]int{1, 2})
	require.NoError(t, err)
	assert.ErrorIs(t, NewDocument().UnmarshalCBOR(data), ErrMalformed)
	assert.ErrorIs(t, NewDocument().UnmarshalCBOR(nil), ErrMalformed)
}

// TestDocumentLargeMapHeader exercises multi-byte map lengths
func TestDocumentLargeMapHeader(t *testing.T) {
	doc := NewDocument()
	for i := 0; i < 300; i++ {
		doc.Set(string(rune('a'+i%26))+string(rune('0'+i/26)), i)
	}
	data, err := cbor.Marshal(doc)
	require.NoError(t, err)

	got := NewDocument()
	require.NoError(t, got.UnmarshalCBOR(data))
	assert.Equal(t, doc.Keys(), got.Keys())
}

// TestDocumentJSONOrder verifies JSON output follows insertion order
func TestDocumentJSONOrder(t *testing.T) {
	doc := NewDocument()
	doc.Set("b", 1)
	doc.Sub("a").Set("z", "x")
	data, err := doc.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":1,"a":{"z":"x"}}`, string(data))
	assert.Equal(t, `{"b":1,"a":{"z":"x"}}`, string(data))
}
