// Package search is the thin façade spec §6 calls "Search": it adapts the
// public Request/Response shapes a caller builds to internal/index.Query,
// leaving every actual resolution step (tokenize, query graph, ranking-rule
// bucket sort, distinct, highlight) to that package.
package search

import (
	"time"

	"github.com/turbosearch/ftcore/internal/geo"
	"github.com/turbosearch/ftcore/internal/index"
)

// SortCriterion orders hits by a sortable field, ascending or descending.
type SortCriterion = index.SortCriterion

// GeoSortCriterion orders hits by distance from Center.
type GeoSortCriterion = index.GeoSortCriterion

// VectorCriterion orders hits by cosine similarity to Query under Embedder.
type VectorCriterion = index.VectorCriterion

// Request is the public query shape of spec §6: "search(query) where query
// has fields q, offset, limit, filter, sort, distinct, facets,
// attributes_to_retrieve, attributes_to_highlight, attributes_to_crop,
// crop_length, matching_strategy, ranking_score_threshold, vector, hybrid,
// show_ranking_score, show_matches_position".
type Request struct {
	Q                string
	Offset, Limit    int
	Filter           string
	Sort             []SortCriterion
	GeoSort          *GeoSortCriterion
	Vector           *VectorCriterion
	MatchingStrategy string
	ShowRankingScore bool
	CropLength       int
	HighlightPreTag  string
	HighlightPostTag string
	TimeoutMillis    int
	Facets           []string
}

// Hit is one returned document plus its formatted/highlighted projection.
type Hit = index.Hit

// Response is the result of one Run call.
type Response struct {
	Hits              []Hit
	EstimatedTotal    int
	Degraded          bool
	ProcessingTime    time.Duration
	FacetDistribution map[string]map[string]int
}

// Searcher is satisfied by *ftcore.Index (and directly by *index.Index),
// kept as an interface so this façade never imports ftcore (avoiding an
// import cycle, since ftcore wraps search and index both).
type Searcher interface {
	Search(q index.Query) (index.Result, error)
}

// Run translates a Request into internal/index's Query shape, executes it
// against s, and translates the Result back.
func Run(s Searcher, req Request) (Response, error) {
	q := index.Query{
		Text:             req.Q,
		Filter:           req.Filter,
		Sort:             req.Sort,
		GeoSort:          req.GeoSort,
		Vector:           req.Vector,
		Offset:           req.Offset,
		Limit:            req.Limit,
		MatchingStrategy: req.MatchingStrategy,
		ShowRankingScore: req.ShowRankingScore,
		CropLength:       req.CropLength,
		HighlightPreTag:  req.HighlightPreTag,
		HighlightPostTag: req.HighlightPostTag,
		TimeoutMillis:    req.TimeoutMillis,
		Facets:           req.Facets,
	}
	res, err := s.Search(q)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Hits:              res.Hits,
		EstimatedTotal:    res.EstimatedTotal,
		Degraded:          res.Degraded,
		ProcessingTime:    res.ProcessingTime,
		FacetDistribution: res.FacetDistribution,
	}, nil
}

// GeoPoint is re-exported for callers building GeoSortCriterion values
// without importing internal/geo directly.
type GeoPoint = geo.Point
