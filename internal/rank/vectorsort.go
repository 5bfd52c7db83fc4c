package rank

import "github.com/turbosearch/ftcore/internal/bitmap"

// VectorSortRule implements spec §4.5 rule 8: buckets in order of
// descending cosine similarity to a query embedding under a named
// embedder.
type VectorSortRule struct {
	eagerRule
	Embedder string
	Query    []float32
}

// NewVectorSortRule builds a Vector-sort rule.
func NewVectorSortRule(embedder string, query []float32) *VectorSortRule {
	return &VectorSortRule{eagerRule: eagerRule{name: "vector-sort"}, Embedder: embedder, Query: query}
}

func (r *VectorSortRule) Init(ctx *Context, universe *bitmap.Bitmap) error {
	raw, err := ctx.Index.VectorSortBuckets(r.Embedder, r.Query)
	if err != nil {
		return err
	}
	r.buckets = r.buckets[:0]
	r.pos = 0
	for i, b := range raw {
		d := bitmap.Intersect(b.Docids, universe)
		if !d.IsEmpty() {
			r.buckets = append(r.buckets, Bucket{Cost: i, Docids: d})
		}
	}
	return nil
}
