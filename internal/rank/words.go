package rank

import (
	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/querygraph"
)

// resolveNode returns the docids a query-graph node resolves to, through
// the condition cache. Phrase-bound nodes and split-word alternatives
// resolve through resolvePhrase, which requires the words to occur at
// consecutive positions in the same attribute (spec §3's phrase
// invariant); non-phrase nodes union every single-word alternative, a
// prefix-db lookup when applicable, and each split-word alternative.
func resolveNode(ctx *Context, id querygraph.NodeID, universe *bitmap.Bitmap) (*bitmap.Bitmap, error) {
	key := ConditionKey(id, "node")
	if cached, ok := ctx.Conditions.Get(key, universe, ctx.Generation()); ok {
		return cached, nil
	}
	if ctx.DeadEnds.IsDead(key) {
		empty := bitmap.New()
		ctx.Conditions.Put(key, empty, ctx.Generation())
		return empty, nil
	}

	subset := ctx.Graph.Arena.Get(id)
	var acc *bitmap.Bitmap
	if len(subset.Phrase) > 0 {
		phrase, err := resolvePhrase(ctx, subset.Phrase)
		if err != nil {
			return nil, err
		}
		acc = phrase
	} else {
		acc = bitmap.New()
		for _, w := range subset.AllSingleWordsExceptPrefixDB() {
			d, err := ctx.Index.WordDocids(w)
			if err != nil {
				return nil, err
			}
			acc.Or(d)
		}
		if prefix, ok := subset.UsePrefixDB(); ok {
			d, err := ctx.Index.PrefixDocids(prefix)
			if err != nil {
				return nil, err
			}
			acc.Or(d)
		}
		for _, pair := range subset.SplitWords {
			d, err := resolvePhrase(ctx, []string{pair.A, pair.B})
			if err != nil {
				return nil, err
			}
			acc.Or(d)
		}
	}

	if acc.IsEmpty() {
		ctx.DeadEnds.MarkDead(key)
	}
	ctx.Conditions.Put(key, acc, ctx.Generation())
	return acc, nil
}

// resolvePhrase returns the docids where words occur at consecutive
// positions in the same attribute: for every position word-position-docids
// records for words[0], it requires words[1] at the next position,
// words[2] at the one after, and so on, unioning every starting position
// that carries the whole run (spec §3 "words must occur contiguously at
// consecutive positions in the same attribute").
func resolvePhrase(ctx *Context, words []string) (*bitmap.Bitmap, error) {
	acc := bitmap.New()
	if len(words) == 0 {
		return acc, nil
	}
	starts, err := ctx.Index.WordPositions(words[0])
	if err != nil {
		return nil, err
	}
	for pos, docids := range starts {
		run := docids.Clone()
		for i := 1; i < len(words) && !run.IsEmpty(); i++ {
			next, err := ctx.Index.WordPositionDocids(words[i], pos+uint32(i))
			if err != nil {
				return nil, err
			}
			run.And(next)
		}
		if !run.IsEmpty() {
			acc.Or(run)
		}
	}
	return acc, nil
}

// WordsRule implements spec §4.5 rule 1: pops mandatory terms one at a
// time according to the configured matching strategy, charging cost =
// number of dropped terms.
type WordsRule struct {
	eagerRule
	Strategy querygraph.MatchingStrategy
}

// NewWordsRule constructs a Words rule for the given matching strategy.
func NewWordsRule(strategy querygraph.MatchingStrategy) *WordsRule {
	return &WordsRule{eagerRule: eagerRule{name: "words"}, Strategy: strategy}
}

func (r *WordsRule) Init(ctx *Context, universe *bitmap.Bitmap) error {
	positions := ctx.Graph.Positions
	idxPositions := make([]int, len(positions))
	for i := range positions {
		idxPositions[i] = i
	}

	nodeDocids := make([]*bitmap.Bitmap, len(positions))
	for i, id := range positions {
		d, err := resolveNode(ctx, id, universe)
		if err != nil {
			return err
		}
		nodeDocids[i] = d
	}

	// A concat edge's compound reading (e.g. "inside" for query words "in"
	// "side") satisfies both of the positions it spans: a document holding
	// the compound is folded into each position's docids so it counts as a
	// match for either original word (spec §4.4 step 3).
	for _, edge := range ctx.Graph.ConcatEdges {
		if edge.FromPosition < 0 || edge.ToPosition >= len(nodeDocids) {
			continue
		}
		compound, err := resolveNode(ctx, edge.Node, universe)
		if err != nil {
			return err
		}
		if compound.IsEmpty() {
			continue
		}
		nodeDocids[edge.FromPosition] = orClone(nodeDocids[edge.FromPosition], compound)
		nodeDocids[edge.ToPosition] = orClone(nodeDocids[edge.ToPosition], compound)
	}

	postingSize := func(pos int) int { return int(nodeDocids[pos].Cardinality()) }
	order := querygraph.DropOrder(r.Strategy, idxPositions, postingSize)

	cum := make([]*bitmap.Bitmap, len(order)+1)
	cum[0] = andAll(nodeDocids)
	dropped := map[int]bool{}
	for n := 1; n <= len(order); n++ {
		dropped[order[n-1]] = true
		var kept []*bitmap.Bitmap
		for i := range positions {
			if !dropped[i] {
				kept = append(kept, nodeDocids[i])
			}
		}
		cum[n] = andAll(kept)
	}

	r.buckets = r.buckets[:0]
	r.pos = 0
	for n := 0; n <= len(order); n++ {
		bucket := cum[n].Clone()
		for m := 0; m < n; m++ {
			bucket.AndNot(cum[m])
		}
		bucket.And(universe)
		if !bucket.IsEmpty() {
			r.buckets = append(r.buckets, Bucket{Cost: n, Docids: bucket})
		}
	}
	return nil
}

// orClone returns a's docids unioned with b's, without mutating either —
// both may be shared through the condition cache.
func orClone(a, b *bitmap.Bitmap) *bitmap.Bitmap {
	out := a.Clone()
	out.Or(b)
	return out
}

func andAll(bitmaps []*bitmap.Bitmap) *bitmap.Bitmap {
	if len(bitmaps) == 0 {
		return bitmap.New()
	}
	acc := bitmaps[0].Clone()
	for _, b := range bitmaps[1:] {
		acc.And(b)
	}
	return acc
}
