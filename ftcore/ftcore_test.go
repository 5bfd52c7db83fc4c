package ftcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := Open(t.TempDir(), DefaultOptions(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func TestOpenCreatesEmptyIndexWithDefaultSettings(t *testing.T) {
	ix := openTestIndex(t)
	assert.Equal(t, DefaultSettings(), ix.Settings())
}

func TestAddDocumentsAndSearchRoundTrip(t *testing.T) {
	ix := openTestIndex(t)

	s := DefaultSettings()
	s.SearchableFields = []string{"title"}
	s.FilterableFields = []string{"genre"}
	require.NoError(t, ix.UpdateSettings(s))

	docs := []map[string]interface{}{
		{"id": "1", "title": "The Godfather", "genre": "drama"},
		{"id": "2", "title": "The Dark Knight", "genre": "action"},
	}
	stats, err := ix.AddDocuments(docs, ReplaceDocuments, "")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Indexed)

	result, err := ix.Search(Query{Text: "godfather", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "1", result.Hits[0].ExternalId)
}

func TestDeleteByFilterRemovesMatches(t *testing.T) {
	ix := openTestIndex(t)

	s := DefaultSettings()
	s.SearchableFields = []string{"title"}
	s.FilterableFields = []string{"genre"}
	require.NoError(t, ix.UpdateSettings(s))

	docs := []map[string]interface{}{
		{"id": "1", "title": "The Godfather", "genre": "drama"},
		{"id": "2", "title": "The Dark Knight", "genre": "action"},
	}
	_, err := ix.AddDocuments(docs, ReplaceDocuments, "")
	require.NoError(t, err)

	stats, err := ix.DeleteByFilter(`genre = "action"`)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)

	result, err := ix.Search(Query{Text: "dark knight", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
}

func TestCompactIsNoOpOnQuerySemantics(t *testing.T) {
	ix := openTestIndex(t)

	s := DefaultSettings()
	s.SearchableFields = []string{"title"}
	require.NoError(t, ix.UpdateSettings(s))

	_, err := ix.AddDocuments([]map[string]interface{}{
		{"id": "1", "title": "The Godfather"},
	}, ReplaceDocuments, "")
	require.NoError(t, err)

	before, err := ix.Search(Query{Text: "godfather", Limit: 10})
	require.NoError(t, err)

	require.NoError(t, ix.Compact())

	after, err := ix.Search(Query{Text: "godfather", Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, before.EstimatedTotal, after.EstimatedTotal)
	require.Len(t, after.Hits, 1)
	assert.Equal(t, before.Hits[0].ExternalId, after.Hits[0].ExternalId)
}
