package rank

import (
	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/geo"
)

// GeoSortRule implements spec §4.5 rule 7: ascending or descending
// distance from a reference point, one bucket per exact distance; bucket
// boundaries do not follow the geo facet tree's levels (Open Question:
// ties at identical distance share a bucket and fall through to the next
// rule rather than stabilizing by docid — see DESIGN.md).
type GeoSortRule struct {
	eagerRule
	Center geo.Point
	Asc    bool
}

// NewGeoSortRule builds a Geo-sort rule around center.
func NewGeoSortRule(center geo.Point, asc bool) *GeoSortRule {
	return &GeoSortRule{eagerRule: eagerRule{name: "geo-sort"}, Center: center, Asc: asc}
}

func (r *GeoSortRule) Init(ctx *Context, universe *bitmap.Bitmap) error {
	raw, err := ctx.Index.GeoSortBuckets(r.Center, r.Asc)
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
