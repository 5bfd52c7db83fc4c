package rank

import "github.com/turbosearch/ftcore/internal/bitmap"

// Rule is the uniform interface every ranking rule implements (spec §9
// "tagged variant" design note). Init prepares the rule's bucket sequence
// against the universe the pipeline hands it when this rule is entered;
// NextBucket advances through that sequence, returning ok=false once
// exhausted.
type Rule interface {
	Name() string
	Init(ctx *Context, universe *bitmap.Bitmap) error
	NextBucket() (Bucket, bool, error)
}

// eagerRule is a Rule backed by a precomputed, cost-ascending bucket
// list. Every rule below builds its bucket list during Init against the
// universe it was handed, then simply walks it in NextBucket — a
// deliberate simplification over resolving buckets fully lazily (see
// DESIGN.md): the per-query dictionaries and facet levels a single
// evaluation touches are small enough that materializing the ordered
// bucket list costs little next to the rest of query evaluation, while
// the interface stays ready for a future lazy resolver to slot in
// without changing callers.
type eagerRule struct {
	name    string
	buckets []Bucket
	pos     int
}

func (r *eagerRule) Name() string { return r.name }

func (r *eagerRule) NextBucket() (Bucket, bool, error) {
	if r.pos >= len(r.buckets) {
		return Bucket{}, false, nil
	}
	b := r.buckets[r.pos]
	r.pos++
	return b, true, nil
}
