package distinct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/codec"
)

func TestApplyKeepsFirstPerValue(t *testing.T) {
	values := map[codec.DocumentId]string{1: "A", 2: "A", 3: "B", 4: "B", 5: "C"}
	lookup := func(id codec.DocumentId) ([]string, error) { return []string{values[id]}, nil }

	f := New(lookup)
	kept, excluded, err := f.Apply(bitmap.FromSlice([]uint32{1, 2, 3, 4, 5}))
	require.NoError(t, err)

	assert.ElementsMatch(t, []uint32{1, 3, 5}, kept.ToArray())
	assert.ElementsMatch(t, []uint32{2, 4}, excluded.ToArray())
}

func TestApplyAccumulatesAcrossCalls(t *testing.T) {
	values := map[codec.DocumentId]string{1: "A", 2: "A"}
	lookup := func(id codec.DocumentId) ([]string, error) { return []string{values[id]}, nil }

	f := New(lookup)
	kept1, _, err := f.Apply(bitmap.FromSlice([]uint32{1}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint32{1}, kept1.ToArray())

	kept2, excluded2, err := f.Apply(bitmap.FromSlice([]uint32{2}))
	require.NoError(t, err)
	assert.Empty(t, kept2.ToArray())
	assert.ElementsMatch(t, []uint32{2}, excluded2.ToArray())
}

func TestApplyMultiValuedFieldExcludesOnAnyMatch(t *testing.T) {
	values := map[codec.DocumentId][]string{1: {"A", "B"}, 2: {"B", "C"}}
	lookup := func(id codec.DocumentId) ([]string, error) { return values[id], nil }

	f := New(lookup)
	kept, excluded, err := f.Apply(bitmap.FromSlice([]uint32{1, 2}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint32{1}, kept.ToArray())
	assert.ElementsMatch(t, []uint32{2}, excluded.ToArray())
}
