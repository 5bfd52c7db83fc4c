package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbosearch/ftcore/internal/kv"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(t.TempDir(), kv.DefaultOptions(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func movieDocs() []map[string]interface{} {
	return []map[string]interface{}{
		{"id": "1", "title": "The Shawshank Redemption", "genre": "drama", "year": float64(1994)},
		{"id": "2", "title": "The Dark Knight", "genre": "action", "year": float64(2008)},
		{"id": "3", "title": "The Godfather", "genre": "drama", "year": float64(1972)},
	}
}

func TestAddDocumentsInfersPrimaryKeyAndIndexes(t *testing.T) {
	idx := openTestIndex(t)
	s := DefaultSettings()
	s.SearchableFields = []string{"title"}
	s.FilterableFields = []string{"genre", "year"}
	s.SortableFields = []string{"year"}
	require.NoError(t, idx.UpdateSettings(s))

	stats, err := idx.AddDocuments(movieDocs(), ReplaceDocuments, "")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Indexed)
	assert.Empty(t, stats.Errors)
	assert.Equal(t, "id", idx.primaryKey)
}

func TestSearchFindsByTitleWord(t *testing.T) {
	idx := openTestIndex(t)
	s := DefaultSettings()
	s.SearchableFields = []string{"title"}
	s.FilterableFields = []string{"genre", "year"}
	require.NoError(t, idx.UpdateSettings(s))

	_, err := idx.AddDocuments(movieDocs(), ReplaceDocuments, "")
	require.NoError(t, err)

	result, err := idx.Search(Query{Text: "godfather", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "3", result.Hits[0].ExternalId)
}

func TestSearchRespectsFilter(t *testing.T) {
	idx := openTestIndex(t)
	s := DefaultSettings()
	s.SearchableFields = []string{"title"}
	s.FilterableFields = []string{"genre"}
	require.NoError(t, idx.UpdateSettings(s))

	_, err := idx.AddDocuments(movieDocs(), ReplaceDocuments, "")
	require.NoError(t, err)

	result, err := idx.Search(Query{Filter: `genre = "drama"`, Limit: 10})
	require.NoError(t, err)

	var ids []string
	for _, h := range result.Hits {
		ids = append(ids, h.ExternalId)
	}
	assert.ElementsMatch(t, []string{"1", "3"}, ids)
}

func TestUpdateDocumentsMergesFields(t *testing.T) {
	idx := openTestIndex(t)
	s := DefaultSettings()
	s.SearchableFields = []string{"title"}
	s.FilterableFields = []string{"genre"}
	require.NoError(t, idx.UpdateSettings(s))

	_, err := idx.AddDocuments(movieDocs(), ReplaceDocuments, "")
	require.NoError(t, err)

	_, err = idx.AddDocuments([]map[string]interface{}{
		{"id": "1", "genre": "prison-drama"},
	}, UpdateDocuments, "")
	require.NoError(t, err)

	result, err := idx.Search(Query{Filter: `genre = "prison-drama"`, Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "1", result.Hits[0].ExternalId)
	assert.Equal(t, "The Shawshank Redemption", result.Hits[0].Fields["title"])
}

func TestDeleteByExternalIdsRetractsDocument(t *testing.T) {
	idx := openTestIndex(t)
	s := DefaultSettings()
	s.SearchableFields = []string{"title"}
	require.NoError(t, idx.UpdateSettings(s))

	_, err := idx.AddDocuments(movieDocs(), ReplaceDocuments, "")
	require.NoError(t, err)

	stats, err := idx.DeleteByExternalIds([]string{"2"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)

	result, err := idx.Search(Query{Text: "dark knight", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
}

func TestPrimaryKeyCannotChangeAfterFirstBatch(t *testing.T) {
	idx := openTestIndex(t)
	_, err := idx.AddDocuments(movieDocs(), ReplaceDocuments, "")
	require.NoError(t, err)

	_, err = idx.AddDocuments([]map[string]interface{}{{"id": "4", "movie_id": "x"}}, ReplaceDocuments, "movie_id")
	assert.Error(t, err)
}

func TestCompactPreservesDocuments(t *testing.T) {
	idx := openTestIndex(t)
	s := DefaultSettings()
	s.SearchableFields = []string{"title"}
	require.NoError(t, idx.UpdateSettings(s))

	_, err := idx.AddDocuments(movieDocs(), ReplaceDocuments, "")
	require.NoError(t, err)

	require.NoError(t, idx.Compact())

	result, err := idx.Search(Query{Text: "godfather", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
}
