package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/dict"
	"github.com/turbosearch/ftcore/internal/geo"
	"github.com/turbosearch/ftcore/internal/querygraph"
	"github.com/turbosearch/ftcore/internal/tokenize"
)

// fakeIndex is an in-memory stand-in for the persisted inverted index,
// used only to exercise rank's rules without internal/index.
type fakeIndex struct {
	word       map[string][]uint32
	exact      map[string][]uint32
	fidWord    map[string][]uint32            // key: word|fid
	pairProx   map[string][]uint32            // key: w1|w2|proximity
	positions  map[string]map[uint32][]uint32 // word -> position -> docids
	fids       []codec.FieldId
	weights    map[codec.FieldId]int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		word:      map[string][]uint32{},
		exact:     map[string][]uint32{},
		fidWord:   map[string][]uint32{},
		pairProx:  map[string][]uint32{},
		positions: map[string]map[uint32][]uint32{},
		weights:   map[codec.FieldId]int{},
	}
}

// setPosition records that word occurs at position in every docid given.
func (f *fakeIndex) setPosition(word string, position uint32, docids ...uint32) {
	m := f.positions[word]
	if m == nil {
		m = map[uint32][]uint32{}
		f.positions[word] = m
	}
	m[position] = docids
}

func (f *fakeIndex) WordDocids(word string) (*bitmap.Bitmap, error) {
	return bitmap.FromSlice(f.word[word]), nil
}
func (f *fakeIndex) ExactWordDocids(word string) (*bitmap.Bitmap, error) {
	return bitmap.FromSlice(f.exact[word]), nil
}
func (f *fakeIndex) PrefixDocids(prefix string) (*bitmap.Bitmap, error) {
	return bitmap.New(), nil
}
func (f *fakeIndex) WordFidDocids(word string, fid codec.FieldId) (*bitmap.Bitmap, error) {
	return bitmap.FromSlice(f.fidWord[keyWF(word, fid)]), nil
}
func (f *fakeIndex) WordPositionDocids(word string, position uint32) (*bitmap.Bitmap, error) {
	return bitmap.FromSlice(f.positions[word][position]), nil
}
func (f *fakeIndex) WordPositions(word string) (map[uint32]*bitmap.Bitmap, error) {
	out := map[uint32]*bitmap.Bitmap{}
	for pos, docids := range f.positions[word] {
		out[pos] = bitmap.FromSlice(docids)
	}
	return out, nil
}
func (f *fakeIndex) PairProximityDocids(w1, w2 string, proximity int) (*bitmap.Bitmap, error) {
	return bitmap.FromSlice(f.pairProx[keyPP(w1, w2, proximity)]), nil
}
func (f *fakeIndex) FieldIdWordCountDocids(fid codec.FieldId, count int) (*bitmap.Bitmap, error) {
	return bitmap.New(), nil
}
func (f *fakeIndex) SearchableFields() []codec.FieldId { return f.fids }
func (f *fakeIndex) FieldWeight(fid codec.FieldId) int { return f.weights[fid] }
func (f *fakeIndex) SortBuckets(field string, asc bool) ([]Bucket, error) { return nil, nil }
func (f *fakeIndex) GeoSortBuckets(center geo.Point, asc bool) ([]Bucket, error) { return nil, nil }
func (f *fakeIndex) VectorSortBuckets(embedder string, query []float32) ([]Bucket, error) {
	return nil, nil
}

func keyWF(word string, fid codec.FieldId) string { return word + "|" + string(rune(fid)) }
func keyPP(w1, w2 string, p int) string            { return w1 + "|" + w2 + "|" + string(rune(p)) }

func graphFor(t *testing.T, query string) *querygraph.Graph {
	t.Helper()
	d := dict.Build([]string{})
	tz := tokenize.New(nil)
	tokens := tz.Tokenize(query)
	return querygraph.Build(tokens, nil, d, querygraph.DefaultConfig())
}

func TestWordsRuleAllStrategyRequiresEveryTerm(t *testing.T) {
	idx := newFakeIndex()
	idx.word["summer"] = []uint32{1, 2, 3}
	idx.word["holiday"] = []uint32{2, 3, 4}

	g := graphFor(t, "summer holiday")
	ctx, err := NewContext(g, idx, 128)
	require.NoError(t, err)

	rule := NewWordsRule(querygraph.All)
	universe := bitmap.FromSlice([]uint32{1, 2, 3, 4})
	require.NoError(t, rule.Init(ctx, universe))

	bucket, more, err := rule.NextBucket()
	require.NoError(t, err)
	require.True(t, more)
	assert.Equal(t, 0, bucket.Cost)
	assert.ElementsMatch(t, []uint32{2, 3}, bucket.Docids.ToArray())

	_, more, err = rule.NextBucket()
	require.NoError(t, err)
	assert.False(t, more)
}

func TestWordsRuleLastStrategyRelaxesRightmost(t *testing.T) {
	idx := newFakeIndex()
	idx.word["summer"] = []uint32{1, 2}
	idx.word["holiday"] = []uint32{2}

	g := graphFor(t, "summer holiday")
	ctx, err := NewContext(g, idx, 128)
	require.NoError(t, err)

	rule := NewWordsRule(querygraph.Last)
	universe := bitmap.FromSlice([]uint32{1, 2})
	require.NoError(t, rule.Init(ctx, universe))

	var all []Bucket
	for {
		b, more, err := rule.NextBucket()
		require.NoError(t, err)
		if !more {
			break
		}
		all = append(all, b)
	}
	require.Len(t, all, 2)
	assert.Equal(t, 0, all[0].Cost)
	assert.ElementsMatch(t, []uint32{2}, all[0].Docids.ToArray())
	assert.Equal(t, 1, all[1].Cost)
	assert.ElementsMatch(t, []uint32{1}, all[1].Docids.ToArray())
}

func TestExactnessRuleSeparatesExactFromTypoed(t *testing.T) {
	idx := newFakeIndex()
	idx.exact["summer"] = []uint32{1}

	g := graphFor(t, "summer")
	ctx, err := NewContext(g, idx, 128)
	require.NoError(t, err)

	rule := NewExactnessRule()
	universe := bitmap.FromSlice([]uint32{1, 2})
	require.NoError(t, rule.Init(ctx, universe))

	b0, more, err := rule.NextBucket()
	require.NoError(t, err)
	require.True(t, more)
	assert.Equal(t, 0, b0.Cost)
	assert.ElementsMatch(t, []uint32{1}, b0.Docids.ToArray())

	b1, more, err := rule.NextBucket()
	require.NoError(t, err)
	require.True(t, more)
	assert.Equal(t, 1, b1.Cost)
	assert.ElementsMatch(t, []uint32{2}, b1.Docids.ToArray())
}

func TestRunRespectsOffsetAndLimit(t *testing.T) {
	idx := newFakeIndex()
	idx.word["summer"] = []uint32{1, 2, 3, 4, 5}
	idx.exact["summer"] = []uint32{1, 2, 3, 4, 5}

	g := graphFor(t, "summer")
	ctx, err := NewContext(g, idx, 128)
	require.NoError(t, err)

	rules := []Rule{NewWordsRule(querygraph.All), NewExactnessRule()}
	universe := bitmap.FromSlice([]uint32{1, 2, 3, 4, 5})

	out, err := Run(ctx, rules, universe, 1, 2, nil)
	require.NoError(t, err)
	assert.Len(t, out.Docids, 2)
	assert.False(t, out.Degraded)
}

func TestRunDegradesOnDeadline(t *testing.T) {
	idx := newFakeIndex()
	idx.word["summer"] = []uint32{1, 2}

	g := graphFor(t, "summer")
	ctx, err := NewContext(g, idx, 128)
	require.NoError(t, err)

	rules := []Rule{NewWordsRule(querygraph.All)}
	universe := bitmap.FromSlice([]uint32{1, 2})

	out, err := Run(ctx, rules, universe, 0, 10, func() bool { return true })
	require.NoError(t, err)
	assert.True(t, out.Degraded)
	assert.Empty(t, out.Docids)
}

func graphForQuery(t *testing.T, query string) *querygraph.Graph {
	t.Helper()
	d := dict.Build([]string{})
	tz := tokenize.New(nil)
	tokens, phraseSpans := tz.TokenizeQuery(query)
	return querygraph.Build(tokens, phraseSpans, d, querygraph.DefaultConfig())
}

func TestWordsRulePhraseRequiresConsecutivePositions(t *testing.T) {
	idx := newFakeIndex()
	idx.word["dark"] = []uint32{1, 2}
	idx.word["knight"] = []uint32{1, 2}
	// doc 1: "dark" then "knight" right after it.
	idx.setPosition("dark", 0, 1)
	idx.setPosition("knight", 1, 1)
	// doc 2: the words appear, but not adjacent (a bag-of-words match only).
	idx.setPosition("dark", 0, 2)
	idx.setPosition("knight", 5, 2)

	g := graphForQuery(t, `"dark knight"`)
	ctx, err := NewContext(g, idx, 128)
	require.NoError(t, err)

	rule := NewWordsRule(querygraph.All)
	universe := bitmap.FromSlice([]uint32{1, 2})
	require.NoError(t, rule.Init(ctx, universe))

	bucket, more, err := rule.NextBucket()
	require.NoError(t, err)
	require.True(t, more)
	assert.Equal(t, 0, bucket.Cost)
	assert.ElementsMatch(t, []uint32{1}, bucket.Docids.ToArray())
}

func TestWordsRuleSplitWordAlternativeMatchesAdjacentParts(t *testing.T) {
	idx := newFakeIndex()
	idx.word["in"] = []uint32{7}
	idx.word["side"] = []uint32{7}
	idx.setPosition("in", 0, 7)
	idx.setPosition("side", 1, 7)

	d := dict.Build([]string{"in", "side"})
	tz := tokenize.New(nil)
	tokens := tz.Tokenize("inside")
	g := querygraph.Build(tokens, nil, d, querygraph.DefaultConfig())
	ctx, err := NewContext(g, idx, 128)
	require.NoError(t, err)

	rule := NewWordsRule(querygraph.All)
	universe := bitmap.FromSlice([]uint32{7})
	require.NoError(t, rule.Init(ctx, universe))

	bucket, more, err := rule.NextBucket()
	require.NoError(t, err)
	require.True(t, more)
	assert.Equal(t, 0, bucket.Cost)
	assert.ElementsMatch(t, []uint32{7}, bucket.Docids.ToArray())
}

func TestWordsRuleConcatEdgeMatchesCompoundReading(t *testing.T) {
	d := dict.Build([]string{"inside"})
	tz := tokenize.New(nil)
	tokens := tz.Tokenize("in side")
	g := querygraph.Build(tokens, nil, d, querygraph.DefaultConfig())

	idx := newFakeIndex()
	idx.word["inside"] = []uint32{9}

	ctx, err := NewContext(g, idx, 128)
	require.NoError(t, err)

	rule := NewWordsRule(querygraph.All)
	universe := bitmap.FromSlice([]uint32{9})
	require.NoError(t, rule.Init(ctx, universe))

	bucket, more, err := rule.NextBucket()
	require.NoError(t, err)
	require.True(t, more)
	assert.Equal(t, 0, bucket.Cost)
	assert.ElementsMatch(t, []uint32{9}, bucket.Docids.ToArray())
}

func TestNormalizeCost(t *testing.T) {
	assert.Equal(t, 1.0, NormalizeCost(0, 4))
	assert.Equal(t, 0.0, NormalizeCost(4, 4))
	assert.InDelta(t, 0.5, NormalizeCost(2, 4), 0.001)
}

func TestAggregateScoreIsMinimum(t *testing.T) {
	assert.Equal(t, 0.3, AggregateScore([]float64{0.9, 0.3, 0.7}))
}
