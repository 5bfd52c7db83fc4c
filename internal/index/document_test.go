package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenDocumentDottedPaths(t *testing.T) {
	doc := map[string]interface{}{
		"title": "Shawshank",
		"year":  float64(1994),
		"cast": map[string]interface{}{
			"lead": "Tim Robbins",
		},
		"tags": []interface{}{"drama", "prison"},
	}

	leaves, err := flattenDocument(doc)
	require.NoError(t, err)

	byPath := map[string]leaf{}
	for _, lf := range leaves {
		byPath[lf.path] = lf
	}

	require.Contains(t, byPath, "title")
	assert.Equal(t, "Shawshank", byPath["title"].text)
	assert.True(t, byPath["title"].isStr)

	require.Contains(t, byPath, "year")
	assert.True(t, byPath["year"].isNum)
	assert.Equal(t, float64(1994), byPath["year"].num)

	require.Contains(t, byPath, "cast.lead")
	assert.Equal(t, "Tim Robbins", byPath["cast.lead"].text)

	require.Contains(t, byPath, "tags")
	assert.Contains(t, byPath["tags"].text, "drama")
	assert.Contains(t, byPath["tags"].text, "prison")
}

func TestPrimaryKeyValueAsString(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want string
		ok   bool
	}{
		{"string", "abc-1", "abc-1", true},
		{"integral float", float64(42), "42", true},
		{"fractional float", float64(4.2), "4.2", true},
		{"bool rejected", true, "", false},
		{"nil rejected", nil, "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := primaryKeyValueAsString(c.in)
			assert.Equal(t, c.ok, ok)
			if c.ok {
				assert.Equal(t, c.want, got)
			}
		})
	}
}

func TestInferPrimaryKeyRequiresExactlyOneCandidate(t *testing.T) {
	_, err := inferPrimaryKey(map[string]interface{}{"title": "x"})
	assert.Error(t, err)

	pk, err := inferPrimaryKey(map[string]interface{}{"id": "1", "title": "x"})
	require.NoError(t, err)
	assert.Equal(t, "id", pk)

	_, err = inferPrimaryKey(map[string]interface{}{"id": "1", "movie_id": "2"})
	assert.Error(t, err)
}
