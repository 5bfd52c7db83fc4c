package rank

import "github.com/turbosearch/ftcore/internal/bitmap"

// ExactnessRule implements spec §4.5 rule 5: separates documents where
// every matched term is an exact, non-typoed occurrence from the rest;
// cost 0 for the former, term_count for the latter.
type ExactnessRule struct {
	eagerRule
}

// NewExactnessRule builds an Exactness rule.
func NewExactnessRule() *ExactnessRule {
	return &ExactnessRule{eagerRule: eagerRule{name: "exactness"}}
}

func (r *ExactnessRule) Init(ctx *Context, universe *bitmap.Bitmap) error {
	positions := ctx.Graph.Positions
	var exactAll *bitmap.Bitmap
	for i, id := range positions {
		word := ctx.Graph.Arena.Get(id).ExactTerm()
		d, err := ctx.Index.ExactWordDocids(word)
		if err != nil {
			return err
		}
		if i == 0 {
			exactAll = d.Clone()
		} else {
			exactAll.And(d)
		}
	}
	if exactAll == nil {
		exactAll = bitmap.New()
	}
	exactAll = bitmap.Intersect(exactAll, universe)

	remainder := universe.Clone()
	remainder.AndNot(exactAll)

	r.buckets = r.buckets[:0]
	r.pos = 0
	if !exactAll.IsEmpty() {
		r.buckets = append(r.buckets, Bucket{Cost: 0, Docids: exactAll})
	}
	if !remainder.IsEmpty() {
		r.buckets = append(r.buckets, Bucket{Cost: len(positions), Docids: remainder})
	}
	return nil
}
