package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacetDistributionCountsWithinSearchResults(t *testing.T) {
	idx := openTestIndex(t)

	s := DefaultSettings()
	s.SearchableFields = []string{"title"}
	s.FilterableFields = []string{"genre"}
	require.NoError(t, idx.UpdateSettings(s))

	_, err := idx.AddDocuments(movieDocs(), ReplaceDocuments, "")
	require.NoError(t, err)

	result, err := idx.Search(Query{Limit: 10, Facets: []string{"genre"}})
	require.NoError(t, err)

	require.Contains(t, result.FacetDistribution, "genre")
	assert.Equal(t, 2, result.FacetDistribution["genre"]["drama"])
	assert.Equal(t, 1, result.FacetDistribution["genre"]["action"])
}

func TestFacetDistributionSkipsNonFilterableFields(t *testing.T) {
	idx := openTestIndex(t)

	s := DefaultSettings()
	s.SearchableFields = []string{"title"}
	s.FilterableFields = []string{"genre"}
	require.NoError(t, idx.UpdateSettings(s))

	_, err := idx.AddDocuments(movieDocs(), ReplaceDocuments, "")
	require.NoError(t, err)

	result, err := idx.Search(Query{Limit: 10, Facets: []string{"title"}})
	require.NoError(t, err)
	assert.NotContains(t, result.FacetDistribution, "title")
}
