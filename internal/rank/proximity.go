package rank

import "github.com/turbosearch/ftcore/internal/bitmap"

// MaxProximity caps the word-distance window considered between two
// query term positions (spec's supplemented default: proximity capped at
// 8, mirrored from original_source's word_pair_proximity extraction cap,
// recorded in SPEC_FULL.md).
const MaxProximity = 8

// ProximityRule implements spec §4.5 rule 3: for each adjacent pair of
// query positions, finds the minimum observed attribute-level distance
// in word-pair-proximity-docids and sums those minimums along the query
// into the bucket cost.
type ProximityRule struct {
	eagerRule
}

// NewProximityRule builds a Proximity rule.
func NewProximityRule() *ProximityRule {
	return &ProximityRule{eagerRule: eagerRule{name: "proximity"}}
}

func (r *ProximityRule) Init(ctx *Context, universe *bitmap.Bitmap) error {
	positions := ctx.Graph.Positions
	if len(positions) < 2 {
		r.buckets = []Bucket{{Cost: 0, Docids: universe.Clone()}}
		r.pos = 0
		return nil
	}

	costs := map[int]*bitmap.Bitmap{0: universe.Clone()}
	maxTotal := 0

	for i := 0; i+1 < len(positions); i++ {
		w1 := ctx.Graph.Arena.Get(positions[i]).Original
		w2 := ctx.Graph.Arena.Get(positions[i+1]).Original

		accountedFor := bitmap.New()
		var classes []Bucket
		for p := 1; p <= MaxProximity; p++ {
			d, err := ctx.Index.PairProximityDocids(w1, w2, p)
			if err != nil {
				return err
			}
			d = bitmap.Intersect(d, universe)
			d.AndNot(accountedFor)
			if d.IsEmpty() {
				continue
			}
			classes = append(classes, Bucket{Cost: p, Docids: d})
			accountedFor.Or(d)
		}
		// Docs whose terms never co-occur within the proximity window
		// still may satisfy the query via other positions; charge them
		// the maximum proximity cost rather than excluding them.
		remainder := universe.Clone()
		remainder.AndNot(accountedFor)
		if !remainder.IsEmpty() {
			classes = append(classes, Bucket{Cost: MaxProximity + 1, Docids: remainder})
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
