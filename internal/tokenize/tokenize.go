// Package tokenize provides the default implementation behind spec §2's
// external "Tokenizer" collaborator: it turns a field's string value into a
// stream of (normalized word, position, rune-offset) tuples. Stop-word
// membership uses golang-set the way the teacher and erigon both depend on
// it for small ad-hoc set types; no dedicated Unicode-segmentation library
// appears anywhere in the pack, so normalization stays on stdlib
// unicode/strings (see DESIGN.md).
package tokenize

import (
	"strings"
	"unicode"

	mapset "github.com/deckarep/golang-set"
)

// Token is one normalized word with its position within the field and its
// span in the original text as rune indexes (used by internal/highlight).
type Token struct {
	Word     string
	Position uint32
	Start    int
	End      int
}

// Tokenizer splits text into normalized tokens, skipping configured
// stop-words.
type Tokenizer struct {
	stopWords mapset.Set
}

// New builds a Tokenizer with the given stop-word list (spec §3/§6
// "stop_words" setting).
func New(stopWords []string) *Tokenizer {
	s := mapset.NewSet()
	for _, w := range stopWords {
		s.Add(Normalize(w))
	}
	return &Tokenizer{stopWords: s}
}

// Normalize lowercases and strips combining marks/diacritics from w,
// matching spec §3 "Word": "a normalized token (lowercased, unicode-folded,
// optionally stemmed)". Stemming itself is the out-of-scope external
// language library (spec §1); this core only folds case and accents.
func Normalize(w string) string {
	var b strings.Builder
	b.Grow(len(w))
	for _, r := range w {
		if unicode.Is(unicode.Mn, r) { // combining mark: drop, keep base rune
			continue
		}
		b.WriteRune(unicode.ToLower(stripAccent(r)))
	}
	return b.String()
}

// stripAccent maps a handful of common Latin accented runes to their plain
// form without pulling in a full Unicode normalization library. This is
// intentionally partial (spec leaves exact folding to the external
// stemming/language library) — good enough that typo/prefix matching in
// the dictionary behaves sensibly for the test corpus.
func stripAccent(r rune) rune {
	switch r {
	case 'à', 'á', 'â', 'ã', 'ä', 'å':
		return 'a'
	case 'è', 'é', 'ê', 'ë':
		return 'e'
	case 'ì', 'í', 'î', 'ï':
		return 'i'
	case 'ò', 'ó', 'ô', 'õ', 'ö':
		return 'o'
	case 'ù', 'ú', 'û', 'ü':
		return 'u'
	case 'ç':
		return 'c'
	case 'ñ':
		return 'n'
	default:
		return r
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Tokenize splits text into a stream of tokens, numbering positions
// sequentially and skipping stop-words (which still consume a position, so
// phrase gaps are representable as spec §3 "Phrase" describes: "some
// positions may be None to represent stop-word gaps").
func (t *Tokenizer) Tokenize(text string) []Token {
	var tokens []Token
	var pos uint32
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		if !isWordRune(runes[i]) {
			i++
			continue
		}
		start := i
		for i < len(runes) && isWordRune(runes[i]) {
			i++
		}
		word := Normalize(string(runes[start:i]))
		if word != "" && !t.stopWords.Contains(word) {
			tokens = append(tokens, Token{Word: word, Position: pos, Start: start, End: i})
		}
		pos++
	}
	return tokens
}

// Phrase groups consecutive quoted tokens; spec §4.4 step 1 "Tokenize Q
// into words ... preserving positions and quoted-phrase groupings." This
// is used by internal/querygraph when parsing query strings (as opposed to
// document bodies, which never contain quote-phrase grouping).
func (t *Tokenizer) TokenizeQuery(q string) (tokens []Token, phraseSpans [][2]int) {
	var pos uint32
	runes := []rune(q)
	i := 0
	inPhrase := false
	phraseStart := -1
	for i < len(runes) {
		switch {
		case runes[i] == '"':
			if inPhrase {
				phraseSpans = append(phraseSpans, [2]int{phraseStart, len(tokens)})
				inPhrase = false
			} else {
				inPhrase = true
				phraseStart = len(tokens)
			}
			i++
		case !isWordRune(runes[i]):
			i++
		default:
			start := i
			for i < len(runes) && isWordRune(runes[i]) {
				i++
			}
			word := Normalize(string(runes[start:i]))
			if word != "" {
				tokens = append(tokens, Token{Word: word, Position: pos, Start: start, End: i})
				pos++
			}
		}
	}
	return tokens, phraseSpans
}
