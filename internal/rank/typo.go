package rank

import "github.com/turbosearch/ftcore/internal/bitmap"

// TypoRule implements spec §4.5 rule 2: buckets candidates by total edit
// distance summed over every matched term, from 0 upward to MaxTypos.
type TypoRule struct {
	eagerRule
	MaxTypos int
}

// NewTypoRule builds a Typo rule capping total summed edit distance at
// maxTypos (a query of N terms can accumulate up to 2N since each term's
// own tier caps at two_typos; MaxTypos bounds the rule's own bucket
// count, not any single term).
func NewTypoRule(maxTypos int) *TypoRule {
	if maxTypos <= 0 {
		maxTypos = 8
	}
	return &TypoRule{eagerRule: eagerRule{name: "typo"}, MaxTypos: maxTypos}
}

func (r *TypoRule) Init(ctx *Context, universe *bitmap.Bitmap) error {
	costs := map[int]*bitmap.Bitmap{0: universe.Clone()}

	for _, id := range ctx.Graph.Positions {
		subset := ctx.Graph.Arena.Get(id)

		exact, err := ctx.Index.ExactWordDocids(subset.Original)
		if err != nil {
			return err
		}
		exact = bitmap.Intersect(exact, universe)

		one := bitmap.New()
		for _, w := range subset.OneTypo {
			d, err := ctx.Index.WordDocids(w)
			if err != nil {
				return err
			}
			one.Or(d)
		}
		one = bitmap.Intersect(one, universe)
		one.AndNot(exact)

		two := bitmap.New()
		for _, w := range subset.TwoTypos {
			d, err := ctx.Index.WordDocids(w)
			if err != nil {
				return err
			}
			two.Or(d)
		}
		two = bitmap.Intersect(two, universe)
		two.AndNot(exact)
		two.AndNot(one)

		classes := []struct {
			cost int
			docs *bitmap.Bitmap
		}{
			{0, exact},
			{1, one},
			{2, two},
		}

		next := map[int]*bitmap.Bitmap{}
		for priorCost, priorDocs := range costs {
			for _, cl := range classes {
				if cl.docs.IsEmpty() {
					continue
				}
				match := bitmap.Intersect(priorDocs, cl.docs)
				if match.IsEmpty() {
					continue
				}
				total := priorCost + cl.cost
				if total > r.MaxTypos {
					total = r.MaxTypos
				}
				if existing, ok := next[total]; ok {
					existing.Or(match)
				} else {
					next[total] = match
				}
			}
		}
		if len(next) > 0 {
			costs = next
		}
	}

	r.buckets = r.buckets[:0]
	r.pos = 0
	for cost := 0; cost <= r.MaxTypos; cost++ {
		if docs, ok := costs[cost]; ok && !docs.IsEmpty() {
			r.buckets = append(r.buckets, Bucket{Cost: cost, Docids: docs})
		}
	}
	return nil
}
