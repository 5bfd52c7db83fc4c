package rank

import (
	"sort"

	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/codec"
)

// AttributeRule implements spec §4.5 rule 4: every matched term
// contributes weight × term_count to the bucket cost, where weight comes
// from the per-field weight map (settings' searchable_fields ordering,
// lower index = lower cost = more important).
type AttributeRule struct {
	eagerRule
}

// NewAttributeRule builds an Attribute/Fid rule.
func NewAttributeRule() *AttributeRule {
	return &AttributeRule{eagerRule: eagerRule{name: "attribute"}}
}

func (r *AttributeRule) Init(ctx *Context, universe *bitmap.Bitmap) error {
	fids := append([]codec.FieldId(nil), ctx.Index.SearchableFields()...)
	sort.Slice(fids, func(i, j int) bool {
		return ctx.Index.FieldWeight(fids[i]) < ctx.Index.FieldWeight(fids[j])
	})

	costs := map[int]*bitmap.Bitmap{0: universe.Clone()}
	maxTotal := 0

	for _, id := range ctx.Graph.Positions {
		word := ctx.Graph.Arena.Get(id).Original

		accountedFor := bitmap.New()
		var classes []Bucket
		for _, fid := range fids {
			d, err := ctx.Index.WordFidDocids(word, fid)
			if err != nil {
				return err
			}
			d = bitmap.Intersect(d, universe)
			d.AndNot(accountedFor)
			if d.IsEmpty() {
				continue
			}
			classes = append(classes, Bucket{Cost: ctx.Index.FieldWeight(fid), Docids: d})
			accountedFor.Or(d)
		}
		// An extra max-weight edge: docs matching via a field not in
		// SearchableFields (or not resolvable per-field) still complete
		// the query, charged the worst weight seen plus one so bucket
		// boundaries stay monotone (spec §4.5 "an extra 'max-weight' edge
		// ensures monotone bucket boundaries").
		remainder := universe.Clone()
		remainder.AndNot(accountedFor)
		if !remainder.IsEmpty() {
			worst := 0
			for _, cl := range classes {
				if cl.Cost > worst {
					worst = cl.Cost
				}
			}
			classes = append(classes, Bucket{Cost: worst + 1, Docids: remainder})
		}

		next := map[int]*bitmap.Bitmap{}
		for priorCost, priorDocs := range costs {
			for _, cl := range classes {
				match := bitmap.Intersect(priorDocs, cl.Docids)
				if match.IsEmpty() {
					continue
				}
				total := priorCost + cl.Cost
				if total > maxTotal {
					maxTotal = total
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
	for cost := 0; cost <= maxTotal; cost++ {
		if docs, ok := costs[cost]; ok && !docs.IsEmpty() {
			r.buckets = append(r.buckets, Bucket{Cost: cost, Docids: docs})
		}
	}
	return nil
}
