package index

import (
	"time"

	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/distinct"
	"github.com/turbosearch/ftcore/internal/errs"
	"github.com/turbosearch/ftcore/internal/geo"
	"github.com/turbosearch/ftcore/internal/highlight"
	"github.com/turbosearch/ftcore/internal/kv"
	"github.com/turbosearch/ftcore/internal/querygraph"
	"github.com/turbosearch/ftcore/internal/rank"
	"github.com/turbosearch/ftcore/internal/tokenize"
)

// conditionCacheSize bounds internal/rank's per-query ConditionCache
// (spec §5 "per-query ... caches").
const conditionCacheSize = 4096

// Query is one search request (spec §6 "search(query, filter?, sort?,
// facets?, limit/offset, matching_strategy, distinct?, show_ranking_score,
// crop/highlight params, vector?, geo?, timeout_ms)").
type Query struct {
	Text              string
	Filter            string
	Sort              []SortCriterion
	GeoSort           *GeoSortCriterion
	Vector            *VectorCriterion
	Offset, Limit     int
	MatchingStrategy  string
	Distinct          bool
	ShowRankingScore  bool
	CropLength        int
	HighlightPreTag   string
	HighlightPostTag  string
	TimeoutMillis     int
	Facets            []string
}

// SortCriterion is one entry of the query's `sort` list (spec §6).
type SortCriterion struct {
	Field      string
	Ascending  bool
}

// GeoSortCriterion sorts by distance from Center.
type GeoSortCriterion struct {
	Center    geo.Point
	Ascending bool
}

// VectorCriterion ranks by similarity to Query under the named Embedder.
type VectorCriterion struct {
	Embedder string
	Query    []float32
}

// Hit is one returned document.
type Hit struct {
	ExternalId   string
	Fields       map[string]interface{}
	RankingScore float64
	Formatted    map[string]string
}

// Result is the full response to a Search call.
type Result struct {
	Hits               []Hit
	EstimatedTotal     int
	Degraded           bool
	ProcessingTime     time.Duration
	FacetDistribution  map[string]map[string]int
}

// Search runs spec §4.4/§4.5's full pipeline: tokenize, build the query
// graph, resolve the filter/universe, drive the ranking-rule bucket sort,
// apply distinct dedup, and format hits with highlight/crop.
func (idx *Index) Search(q Query) (Result, error) {
	start := time.Now()
	idx.mu.RLock()
	settings := idx.settings
	tok := idx.tokenizer()
	wordDict := idx.wordDict
	idx.mu.RUnlock()

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	var result Result
	err := idx.env.View(func(tx kv.Tx) error {
		res := newResolver(idx, tx)
		filterExpr, err := parseFilterOrEmpty(q.Filter)
		if err != nil {
			return err
		}
		universe, err := evalFilterExpr(filterExpr, res)
		if err != nil {
			return err
		}
		if len(q.Facets) > 0 {
			result.FacetDistribution = facetDistributionTx(idx, tx, universe, q.Facets)
		}

		tokens, phraseSpans := tok.TokenizeQuery(q.Text)
		graph := querygraph.Build(tokens, phraseSpans, wordDict, querygraph.Config{
			MinWordLenOneTypo:  settings.TypoTolerance.MinWordLenOneTypo,
			MinWordLenTwoTypos: settings.TypoTolerance.MinWordLenTwoTypos,
			AllowPrefix:        true,
			MinPrefixLen:       1,
			Synonyms:           settings.Synonyms,
		})

		rIdx := newRankIndex(idx, tx)
		ctx, err := rank.NewContext(graph, rIdx, conditionCacheSize)
		if err != nil {
			return err
		}

		rules := idx.buildRules(settings, q)

		var deadline rank.DeadlineFunc
		if q.TimeoutMillis > 0 {
			cutoff := start.Add(time.Duration(q.TimeoutMillis) * time.Millisecond)
			deadline = func() bool { return time.Now().After(cutoff) }
		}

		fetchLimit := q.Offset + limit
		if settings.DistinctField != "" {
			fetchLimit *= 4 // distinct dedup may discard hits; over-fetch before trimming
		}
		outcome, err := rank.Run(ctx, rules, universe, 0, fetchLimit, deadline)
		if err != nil {
			return err
		}
		result.Degraded = outcome.Degraded

		ids := outcome.Docids
		if settings.DistinctField != "" {
			ids, err = idx.applyDistinct(tx, settings.DistinctField, ids)
			if err != nil {
				return err
			}
		}
		if q.Offset < len(ids) {
			ids = ids[q.Offset:]
		} else {
			ids = nil
		}
		if len(ids) > limit {
			ids = ids[:limit]
		}
		result.EstimatedTotal = len(outcome.Docids)

		matchedWords := matchedWordSet(graph)
		for _, docid := range ids {
			hit, err := idx.buildHit(tx, docid, outcome.CostTrail[docid], q, matchedWords)
			if err != nil {
				return err
			}
			result.Hits = append(result.Hits, hit)
		}
		return nil
	})
	result.ProcessingTime = time.Since(start)
	return result, err
}

func (idx *Index) buildRules(settings Settings, q Query) []rank.Rule {
	strategy := settings.matchingStrategy(q.MatchingStrategy)
	var rules []rank.Rule
	for _, name := range settings.RankingRules {
		switch name {
		case "words":
			rules = append(rules, rank.NewWordsRule(strategy))
		case "typo":
			rules = append(rules, rank.NewTypoRule(8))
		case "proximity":
			rules = append(rules, rank.NewProximityRule())
		case "attribute":
			rules = append(rules, rank.NewAttributeRule())
		case "exactness":
			rules = append(rules, rank.NewExactnessRule())
		case "sort":
			for _, sc := range q.Sort {
				rules = append(rules, rank.NewSortRule(sc.Field, sc.Ascending))
			}
		}
	}
	if q.GeoSort != nil {
		rules = append(rules, rank.NewGeoSortRule(q.GeoSort.Center, q.GeoSort.Ascending))
	}
	if q.Vector != nil {
		rules = append(rules, rank.NewVectorSortRule(q.Vector.Embedder, q.Vector.Query))
	}
	return rules
}

func (idx *Index) applyDistinct(tx kv.Tx, field string, ids []codec.DocumentId) ([]codec.DocumentId, error) {
	lookup := func(docid codec.DocumentId) ([]string, error) {
		doc, err := idx.loadDocument(tx, docid)
		if err != nil || doc == nil {
			return nil, err
		}
		v, ok := doc[field]
		if !ok {
			return nil, nil
		}
		s, ok := primaryKeyValueAsString(v)
		if !ok {
			return nil, nil
		}
		return []string{s}, nil
	}
	f := distinct.New(lookup)
	candidates := bitmap.New()
	for _, id := range ids {
		candidates.Add(uint32(id))
	}
	kept, _, err := f.Apply(candidates)
	if err != nil {
		return nil, err
	}
	keptSet := map[codec.DocumentId]bool{}
	it := kept.Iterator()
	for it.HasNext() {
		keptSet[codec.DocumentId(it.Next())] = true
	}
	var out []codec.DocumentId
	for _, id := range ids {
		if keptSet[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (idx *Index) buildHit(tx kv.Tx, docid codec.DocumentId, trail []int, q Query, matchedWords map[string]bool) (Hit, error) {
	doc, err := idx.loadDocument(tx, docid)
	if err != nil {
		return Hit{}, err
	}
	if doc == nil {
		return Hit{}, errs.IndexState(errs.CodeMalformedDocument, errMissingStoredDocument)
	}

	hit := Hit{Fields: projectDisplayedFields(doc, idx.settings.DisplayedFields)}
	if ext, ok := primaryKeyValueAsString(doc[idx.primaryKey]); ok {
		hit.ExternalId = ext
	}
	if q.ShowRankingScore {
		scores := make([]float64, len(trail))
		for i, cost := range trail {
			scores[i] = rank.NormalizeCost(cost, maxCostFloor(cost))
		}
		hit.RankingScore = rank.AggregateScore(scores)
	}

	if q.CropLength > 0 || q.HighlightPreTag != "" {
		hit.Formatted = formatHit(hit.Fields, matchedWords, q)
	}
	return hit, nil
}

func maxCostFloor(cost int) int {
	if cost == 0 {
		return 1
	}
	return cost + 1
}

func projectDisplayedFields(doc map[string]interface{}, displayed []string) map[string]interface{} {
	if len(displayed) == 0 {
		return doc
	}
	out := map[string]interface{}{}
	for _, name := range displayed {
		if v, ok := doc[name]; ok {
			out[name] = v
		}
	}
	return out
}

func formatHit(fields map[string]interface{}, matchedWords map[string]bool, q Query) map[string]string {
	out := map[string]string{}
	for name, v := range fields {
		s, ok := v.(string)
		if !ok {
			continue
		}
		spans := highlight.Matches(s, matchedWords)
		text := s
		if q.CropLength > 0 {
			text, _ = highlight.Crop(s, spans, q.CropLength)
			spans = highlight.Matches(text, matchedWords)
		}
		open, close := q.HighlightPreTag, q.HighlightPostTag
		if open == "" {
			open = "<em>"
		}
		if close == "" {
			close = "</em>"
		}
		out[name] = highlight.Mark(text, spans, open, close)
	}
	return out
}

func matchedWordSet(g *querygraph.Graph) map[string]bool {
	out := map[string]bool{}
	for i := 0; i < g.Arena.Len(); i++ {
		s := g.Arena.Get(querygraph.NodeID(i))
		out[s.Original] = true
		for _, w := range s.OneTypo {
			out[w] = true
		}
		for _, w := range s.TwoTypos {
			out[w] = true
		}
		for _, w := range s.Phrase {
			out[w] = true
		}
	}
	return out
}

var errMissingStoredDocument = indexErrMissingDocument{}

type indexErrMissingDocument struct{}

func (indexErrMissingDocument) Error() string {
	return "index: document referenced by a posting is missing from storage"
}
