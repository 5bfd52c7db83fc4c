package rank

import (
	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/codec"
)

// Outcome is one bucket-sort pass: the ordered docids produced, whether
// the pipeline ran to completion or was cut short by the caller's
// deadline (spec §5 "on expiry it returns the best-so-far buckets
// already emitted, flagged as degraded"), and the per-document cost path
// through every rule (for show_ranking_score / Detailed scoring).
type Outcome struct {
	Docids    []codec.DocumentId
	Degraded  bool
	CostTrail map[codec.DocumentId][]int
}

// DeadlineFunc reports whether the evaluator's cooperative deadline has
// passed; checked between buckets (spec §5 "Timeouts").
type DeadlineFunc func() bool

// Run drives the ordered rule list through the recursive bucket-sort
// algorithm of spec §4.5: each rule is (re-)initialized against the
// universe it inherits from its parent, asked for its next (cost,
// candidates) bucket, and the candidates are intersected with that
// universe before recursing into the next rule. Every recursion into a
// given rule index re-runs Init against the narrower universe, since a
// rule's bucket boundaries depend on the candidates its parent just
// produced (spec: "the next rule only buckets within the current cost
// class").
func Run(ctx *Context, rules []Rule, universe *bitmap.Bitmap, offset, limit int, deadline DeadlineFunc) (Outcome, error) {
	out := Outcome{CostTrail: map[codec.DocumentId][]int{}}
	skipped := 0
	trail := make([]int, 0, len(rules))

	var walk func(idx int, u *bitmap.Bitmap) error
	walk = func(idx int, u *bitmap.Bitmap) error {
		if len(out.Docids) >= limit || u.IsEmpty() {
			return nil
		}
		if deadline != nil && deadline() {
			out.Degraded = true
			return nil
		}
		if idx >= len(rules) {
			emit(u, &out, &skipped, offset, limit, trail)
			return nil
		}

		ctx.BumpGeneration()
		rule := rules[idx]
		if err := rule.Init(ctx, u); err != nil {
			return err
		}

		for {
			bucket, more, err := rule.NextBucket()
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
			candidates := bitmap.Intersect(bucket.Docids, u)
			if !candidates.IsEmpty() {
				trail = append(trail, bucket.Cost)
				if err := walk(idx+1, candidates); err != nil {
					trail = trail[:len(trail)-1]
					return err
				}
				trail = trail[:len(trail)-1]
				if len(out.Docids) >= limit {
					return nil
				}
			}
		}
	}

	if err := walk(0, universe); err != nil {
		return out, err
	}
	return out, nil
}

func emit(u *bitmap.Bitmap, out *Outcome, skipped *int, offset, limit int, trail []int) {
	it := u.Iterator()
	for it.HasNext() && len(out.Docids) < limit {
		id := codec.DocumentId(it.Next())
		if *skipped < offset {
			*skipped++
			continue
		}
		out.Docids = append(out.Docids, id)
		out.CostTrail[id] = append([]int(nil), trail...)
	}
}
