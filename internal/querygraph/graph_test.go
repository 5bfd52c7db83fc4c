package querygraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbosearch/ftcore/internal/dict"
	"github.com/turbosearch/ftcore/internal/tokenize"
)

func TestInternDedupesEqualSubsets(t *testing.T) {
	a := NewArena()
	id1 := a.Intern(TermSubset{Original: "cat", OneTypo: []string{"bat", "car"}})
	id2 := a.Intern(TermSubset{Original: "cat", OneTypo: []string{"car", "bat"}})
	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, a.Len())
}

func TestInternDistinguishesDifferentSubsets(t *testing.T) {
	a := NewArena()
	id1 := a.Intern(TermSubset{Original: "cat"})
	id2 := a.Intern(TermSubset{Original: "dog"})
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, a.Len())
}

func TestBuildConcatEdge(t *testing.T) {
	d := dict.Build([]string{"inside", "in", "side"})
	tz := tokenize.New(nil)
	tokens := tz.Tokenize("in side")
	g := Build(tokens, nil, d, DefaultConfig())

	require.Len(t, g.ConcatEdges, 1)
	assert.Equal(t, "inside", g.Arena.Get(g.ConcatEdges[0].Node).Original)
}

func TestBuildPhraseBinding(t *testing.T) {
	d := dict.Build([]string{"summer", "holiday"})
	tz := tokenize.New(nil)
	tokens, spans := tz.TokenizeQuery(`"summer holiday"`)
	g := Build(tokens, spans, d, DefaultConfig())

	require.Len(t, g.Positions, 2)
	first := g.Arena.Get(g.Positions[0])
	assert.True(t, first.KeepOnlyExactTerm)
	assert.Equal(t, []string{"summer", "holiday"}, first.Phrase)
}

func TestBuildSplitWords(t *testing.T) {
	d := dict.Build([]string{"sun", "shine", "sunshine"})
	subset := buildSubset("sunshine", d, DefaultConfig())
	assert.Contains(t, subset.SplitWords, SplitPair{A: "sun", B: "shine"})
}

func TestDropOrderAllNeverRelaxes(t *testing.T) {
	assert.Empty(t, DropOrder(All, []int{0, 1, 2}, func(int) int { return 0 }))
}

func TestDropOrderLastDropsRightmostFirst(t *testing.T) {
	order := DropOrder(Last, []int{0, 1, 2}, func(int) int { return 0 })
	assert.Equal(t, []int{2, 1}, order)
}

func TestDropOrderFrequencyDropsLargestPostingFirst(t *testing.T) {
	sizes := map[int]int{0: 5, 1: 500, 2: 50}
	order := DropOrder(Frequency, []int{0, 1, 2}, func(p int) int { return sizes[p] })
	require.NotEmpty(t, order)
	assert.Equal(t, 1, order[0])
}

func TestMandatorySetDropsPrefix(t *testing.T) {
	positions := []int{0, 1, 2}
	order := []int{2, 1}
	m0 := MandatorySet(positions, order, 0)
	assert.Len(t, m0, 3)

	m1 := MandatorySet(positions, order, 1)
	assert.False(t, m1[2])
	assert.True(t, m1[0])
	assert.True(t, m1[1])
}
