// Package highlight implements spec §4.7: given the original field text
// and the set of matched word forms, compute matched span intervals and,
// optionally, crop the text around the densest match window. Per spec,
// bit-exact output is not part of the core contract — only the mapping
// from matched terms to character ranges is.
package highlight

import (
	"sort"

	"github.com/turbosearch/ftcore/internal/tokenize"
)

// Span is a half-open [Start, End) character range within the original
// text that matched one of the query's word forms.
type Span struct {
	Start, End int
}

// Matches computes every span in text whose normalized word appears in
// matchedWords (the union of original/typo/prefix forms the query graph
// resolved for this document, per spec §4.7).
func Matches(text string, matchedWords map[string]bool) []Span {
	tz := tokenize.New(nil)
	var spans []Span
	for _, tok := range tz.Tokenize(text) {
		if matchedWords[tok.Word] {
			spans = append(spans, Span{Start: tok.Start, End: tok.End})
		}
	}
	return spans
}

// Mark wraps each matched span in text with openTag/closeTag, applied
// right-to-left (descending start offset) so inserting a tag never
// invalidates the offsets of spans still to come.
func Mark(text string, spans []Span, openTag, closeTag string) string {
	if len(spans) == 0 {
		return text
	}
	runes := []rune(text)
	sorted := append([]Span(nil), spans...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start > sorted[j].Start })

	openRunes, closeRunes := []rune(openTag), []rune(closeTag)
	boundary := len(runes)
	for _, s := range sorted {
		if s.Start < 0 || s.End > boundary {
			continue // overlapping or out-of-range span, already covered
		}
		runes = spliceRunes(runes, s.End, closeRunes)
		runes = spliceRunes(runes, s.Start, openRunes)
		boundary = s.Start
	}
	return string(runes)
}

func spliceRunes(runes []rune, at int, insert []rune) []rune {
	out := make([]rune, 0, len(runes)+len(insert))
	out = append(out, runes[:at]...)
	out = append(out, insert...)
	out = append(out, runes[at:]...)
	return out
}

// Crop returns the substring of text (by word count, not characters)
// centered on the densest window of match spans, at most cropLength
// words long, alongside the rune offset the crop starts at.
func Crop(text string, spans []Span, cropLength int) (cropped string, offset int) {
	tz := tokenize.New(nil)
	tokens := tz.Tokenize(text)
	if len(tokens) <= cropLength || cropLength <= 0 {
		return text, 0
	}

	matchTokenIdx := map[int]bool{}
	for i, tok := range tokens {
		for _, sp := range spans {
			if tok.Start >= sp.Start && tok.End <= sp.End {
				matchTokenIdx[i] = true
			}
		}
	}

	bestStart, bestCount := 0, -1
	for start := 0; start+cropLength <= len(tokens); start++ {
		count := 0
		for i := start; i < start+cropLength; i++ {
			if matchTokenIdx[i] {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			bestStart = start
		}
	}

	end := bestStart + cropLength
	if end > len(tokens) {
		end = len(tokens)
	}
	startByte := tokens[bestStart].Start
	endByte := tokens[end-1].End
	runes := []rune(text)
	if endByte > len(runes) {
		endByte = len(runes)
	}
	return string(runes[startByte:endByte]), startByte
}
