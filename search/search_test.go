package search

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbosearch/ftcore/internal/index"
)

type fakeSearcher struct {
	gotQuery index.Query
	result   index.Result
	err      error
}

func (f *fakeSearcher) Search(q index.Query) (index.Result, error) {
	f.gotQuery = q
	return f.result, f.err
}

func TestRunTranslatesRequestToQuery(t *testing.T) {
	fake := &fakeSearcher{result: index.Result{EstimatedTotal: 2}}

	req := Request{
		Q:                "godfather",
		Offset:           5,
		Limit:            10,
		Filter:           `genre = "drama"`,
		MatchingStrategy: "last",
		ShowRankingScore: true,
		CropLength:       20,
		HighlightPreTag:  "<em>",
		HighlightPostTag: "</em>",
		Facets:           []string{"genre"},
	}

	_, err := Run(fake, req)
	require.NoError(t, err)

	assert.Equal(t, "godfather", fake.gotQuery.Text)
	assert.Equal(t, 5, fake.gotQuery.Offset)
	assert.Equal(t, 10, fake.gotQuery.Limit)
	assert.Equal(t, `genre = "drama"`, fake.gotQuery.Filter)
	assert.Equal(t, "last", fake.gotQuery.MatchingStrategy)
	assert.True(t, fake.gotQuery.ShowRankingScore)
	assert.Equal(t, 20, fake.gotQuery.CropLength)
	assert.Equal(t, "<em>", fake.gotQuery.HighlightPreTag)
	assert.Equal(t, []string{"genre"}, fake.gotQuery.Facets)
}

func TestRunTranslatesResultToResponse(t *testing.T) {
	fake := &fakeSearcher{result: index.Result{
		Hits:              []index.Hit{{ExternalId: "1"}},
		EstimatedTotal:    1,
		Degraded:          true,
		ProcessingTime:    42 * time.Millisecond,
		FacetDistribution: map[string]map[string]int{"genre": {"drama": 1}},
	}}

	resp, err := Run(fake, Request{Q: "x"})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.EstimatedTotal)
	assert.True(t, resp.Degraded)
	assert.Equal(t, 42*time.Millisecond, resp.ProcessingTime)
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, "1", resp.Hits[0].ExternalId)
	assert.Equal(t, 1, resp.FacetDistribution["genre"]["drama"])
}

func TestRunPropagatesSearchError(t *testing.T) {
	fake := &fakeSearcher{err: errors.New("boom")}

	_, err := Run(fake, Request{Q: "x"})
	assert.Error(t, err)
}
