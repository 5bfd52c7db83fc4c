package rank

import "github.com/turbosearch/ftcore/internal/bitmap"

// SortRule implements spec §4.5 rule 6: consumes a forward (ascending)
// or backward (descending) scan over one declared sort criterion's facet
// tree; each bucket is the set of docids sharing the same facet value.
// Cost is the scan position, so earlier buckets always sort ahead of
// later ones regardless of the underlying facet value's magnitude.
type SortRule struct {
	eagerRule
	Field string
	Asc   bool
}

// NewSortRule builds a Sort rule for one criterion.
func NewSortRule(field string, asc bool) *SortRule {
	return &SortRule{eagerRule: eagerRule{name: "sort:" + field}, Field: field, Asc: asc}
}

func (r *SortRule) Init(ctx *Context, universe *bitmap.Bitmap) error {
	raw, err := ctx.Index.SortBuckets(r.Field, r.Asc)
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
