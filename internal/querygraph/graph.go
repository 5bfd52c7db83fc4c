package querygraph

import (
	"strings"

	"github.com/turbosearch/ftcore/internal/dict"
	"github.com/turbosearch/ftcore/internal/tokenize"
)

// ConcatEdge is the "single node whose term is wi‖wi+1 replaces two
// positions" construction of spec §4.4 step 3: it lets the evaluator
// prefer a compound reading (e.g. "in side" vs "inside") over the two
// original positions without losing either interpretation.
type ConcatEdge struct {
	FromPosition int // index into Graph.Positions this edge starts at
	ToPosition   int // index this edge ends at (inclusive)
	Node         NodeID
}

// Graph is a query's full DAG of term subsets: one node per linear query
// position plus concat edges joining adjacent positions.
type Graph struct {
	Arena       *Arena
	Positions   []NodeID
	ConcatEdges []ConcatEdge
}

// Config bounds how aggressively Build expands typo/prefix/split
// alternatives (spec §4.4's `min_word_len_one_typo` /
// `min_word_len_two_typos`, and settings' prefix_search threshold).
type Config struct {
	MinWordLenOneTypo int
	MinWordLenTwoTypos int
	AllowPrefix        bool
	MinPrefixLen       int
	Synonyms           map[string][]string
}

// DefaultConfig mirrors the common defaults quoted in the distilled spec's
// source system: one-typo tolerance from length 5, two-typo from length 9.
func DefaultConfig() Config {
	return Config{
		MinWordLenOneTypo:  5,
		MinWordLenTwoTypos: 9,
		AllowPrefix:        true,
		MinPrefixLen:       1,
	}
}

// Build constructs a query graph from already-tokenized query words,
// resolving typo/prefix/synonym/split alternatives against d and binding
// phrase spans reported by tokenize.TokenizeQuery.
func Build(tokens []tokenize.Token, phraseSpans [][2]int, d *dict.Dict, cfg Config) *Graph {
	arena := NewArena()
	g := &Graph{Arena: arena}

	phraseStart := make(map[int]int) // token index -> phrase end index (exclusive)
	for _, span := range phraseSpans {
		phraseStart[span[0]] = span[1]
	}

	for i, tok := range tokens {
		subset := buildSubset(tok.Word, d, cfg)
		if end, ok := phraseStart[i]; ok && end > i {
			words := make([]string, 0, end-i)
			for j := i; j < end && j < len(tokens); j++ {
				words = append(words, tokens[j].Word)
			}
			subset.Phrase = words
			subset.KeepOnlyExactTerm = true
		}
		g.Positions = append(g.Positions, arena.Intern(subset))
	}

	for i := 0; i+1 < len(tokens); i++ {
		if _, inPhrase := phraseStart[i]; inPhrase {
			continue
		}
		combined := tokens[i].Word + tokens[i+1].Word
		if !d.Contains(combined) {
			continue
		}
		node := arena.Intern(TermSubset{Original: combined, KeepOnlyExactTerm: true})
		g.ConcatEdges = append(g.ConcatEdges, ConcatEdge{FromPosition: i, ToPosition: i + 1, Node: node})
	}

	return g
}

func buildSubset(word string, d *dict.Dict, cfg Config) TermSubset {
	s := TermSubset{Original: word}

	if len(word) >= cfg.MinWordLenOneTypo {
		s.OneTypo = d.FuzzyMatches(word, 1)
	}
	if len(word) >= cfg.MinWordLenTwoTypos {
		s.TwoTypos = d.FuzzyMatches(word, 2)
	}

	if cfg.AllowPrefix && len(word) >= cfg.MinPrefixLen {
		if matches := d.PrefixRange(word); len(matches) > 0 {
			s.UsesPrefix = true
			s.PrefixOf = word
		}
	}

	if cfg.Synonyms != nil {
		if syns, ok := cfg.Synonyms[word]; ok {
			s.Synonyms = syns
		}
	}

	for split := 1; split < len(word); split++ {
		a, b := word[:split], word[split:]
		if d.Contains(a) && d.Contains(b) {
			s.SplitWords = append(s.SplitWords, SplitPair{A: a, B: b})
		}
	}

	return s
}

// String renders a position-ordered summary, handy for logging; a full
// graphviz export lives in dot.go.
func (g *Graph) String() string {
	var b strings.Builder
	for i, id := range g.Positions {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(g.Arena.Get(id).Original)
	}
	return b.String()
}
