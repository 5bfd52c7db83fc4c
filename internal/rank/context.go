// Package rank implements spec §4.5 "Ranking-rule graph and bucket sort":
// eight ranking rules behind a uniform next_bucket(ctx, universe) contract
// (spec §9 "Dynamic dispatch among ranking rules": "represent each rule as
// a tagged variant with a uniform next_bucket(ctx, universe) -> Option<(cost,
// docids)> contract"), driven by a recursive bucket-sort pipeline.
package rank

import (
	"github.com/hashicorp/golang-lru"

	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/geo"
	"github.com/turbosearch/ftcore/internal/querygraph"
)

// Index is the set of lookups a ranking rule needs from the persisted
// inverted index. internal/index implements this; internal/rank never
// imports internal/index, mirroring the internal/filter.Resolver split so
// neither package has to import the other.
type Index interface {
	WordDocids(word string) (*bitmap.Bitmap, error)
	ExactWordDocids(word string) (*bitmap.Bitmap, error)
	PrefixDocids(prefix string) (*bitmap.Bitmap, error)
	WordFidDocids(word string, fid codec.FieldId) (*bitmap.Bitmap, error)
	WordPositionDocids(word string, position uint32) (*bitmap.Bitmap, error)
	// WordPositions returns every position word occurs at, mapped to the
	// docids that hold it there (spec §3 phrase invariant: "words must
	// occur contiguously at consecutive positions in the same attribute").
	WordPositions(word string) (map[uint32]*bitmap.Bitmap, error)
	PairProximityDocids(word1, word2 string, proximity int) (*bitmap.Bitmap, error)
	FieldIdWordCountDocids(fid codec.FieldId, count int) (*bitmap.Bitmap, error)

	SearchableFields() []codec.FieldId
	FieldWeight(fid codec.FieldId) int

	// SortBuckets returns field's facet-tree values as cost-ordered
	// buckets of docids sharing that value, ascending if asc else
	// descending (spec §4.5 rule 6 "Sort").
	SortBuckets(field string, asc bool) ([]Bucket, error)
	// GeoSortBuckets returns docids grouped by distance from center, in
	// ascending or descending order (rule 7 "Geo-sort").
	GeoSortBuckets(center geo.Point, asc bool) ([]Bucket, error)
	// VectorSortBuckets returns docids grouped by descending similarity
	// to query under the named embedder (rule 8 "Vector-sort").
	VectorSortBuckets(embedder string, query []float32) ([]Bucket, error)
}

// Bucket is one cost-equivalence class of docids (GLOSSARY "Bucket").
type Bucket struct {
	Cost   int
	Docids *bitmap.Bitmap
}

// Context is the per-query mutable state shared by every rule in the
// pipeline: the query graph, the backing index, and the two caches spec
// §4.5/§5 call out as per-query and dropped at the end of evaluation.
type Context struct {
	Graph      *querygraph.Graph
	Index      Index
	Conditions *ConditionCache
	DeadEnds   *DeadEndCache
	generation int
}

// NewContext builds a fresh per-query Context. condCacheSize bounds the
// golang-lru cache backing ConditionCache (spec §5 "in-memory caches ...
// are per-query and dropped at its end" — bounding it still avoids
// pathological queries over huge dictionaries from retaining unbounded
// memory within a single evaluation).
func NewContext(g *querygraph.Graph, idx Index, condCacheSize int) (*Context, error) {
	cache, err := lru.New(condCacheSize)
	if err != nil {
		return nil, err
	}
	return &Context{
		Graph:      g,
		Index:      idx,
		Conditions: &ConditionCache{cache: cache},
		DeadEnds:   newDeadEndCache(),
	}, nil
}

// BumpGeneration marks the universe as having shrunk, so
// ConditionDocIdsCache entries computed against a larger universe are
// intersected lazily instead of recomputed (spec §4.5 "Per-condition
// docid computation is cached ... keyed by interned condition id and
// universe generation").
func (c *Context) BumpGeneration() { c.generation++ }

// Generation returns the current universe generation counter.
func (c *Context) Generation() int { return c.generation }
