package querygraph

// SplitPair is an ordered pair (A, B) such that A‖B reconstructs the
// original word and both halves are present in the dictionary (spec §4.4
// `split_words`).
type SplitPair struct {
	A, B string
}

// TermSubset is the reified set of alternatives occupying one query
// position (spec §4.4, GLOSSARY "Term subset"): the exact word plus every
// typo-tolerant, prefix, synonym, split, and phrase-bound variant the
// query graph considers equivalent to it at this position.
type TermSubset struct {
	// Original is the exact, normalized query word.
	Original string
	// OneTypo / TwoTypos are dictionary words within Levenshtein distance
	// 1 / 2 of Original, empty when the word is shorter than the
	// configured minimum for that tier.
	OneTypo  []string
	TwoTypos []string
	// UsesPrefix and PrefixOf capture `use_prefix_db`: when set, queries
	// against this subset may resolve through word-prefix-docids using
	// PrefixOf instead of enumerating every dictionary extension.
	UsesPrefix bool
	PrefixOf   string
	// Synonyms are configured expansions of Original (settings-level
	// synonym table).
	Synonyms []string
	// SplitWords are two-word reconstructions of Original.
	SplitWords []SplitPair
	// Phrase, when non-empty, binds this subset to a quoted sequence
	// starting at this position; phrase words must occur contiguously at
	// consecutive positions in the same attribute to match.
	Phrase []string
	// KeepOnlyExactTerm restricts resolution to Original, ignoring every
	// other alternative (set for phrase-bound positions).
	KeepOnlyExactTerm bool
	// MakeMandatory is set by mandatory-term analysis (DropOrder) before
	// the Words ranking rule runs; it is not part of the interning
	// fingerprint's identity, so it is excluded from fingerprint().
	MakeMandatory bool
}

// AllSingleWordsExceptPrefixDB returns every single-word alternative this
// subset admits other than a materialized prefix-db lookup: Original plus
// the typo and synonym expansions (spec §4.4, `all_single_words_except_prefix_db`).
func (s *TermSubset) AllSingleWordsExceptPrefixDB() []string {
	if s.KeepOnlyExactTerm {
		return []string{s.Original}
	}
	out := make([]string, 0, 1+len(s.OneTypo)+len(s.TwoTypos)+len(s.Synonyms))
	out = append(out, s.Original)
	out = append(out, s.OneTypo...)
	out = append(out, s.TwoTypos...)
	out = append(out, s.Synonyms...)
	return out
}

// AllPhrases returns the phrase word sequence bound to this subset, if
// any (`all_phrases`).
func (s *TermSubset) AllPhrases() [][]string {
	if len(s.Phrase) == 0 {
		return nil
	}
	return [][]string{s.Phrase}
}

// UsePrefixDB reports the prefix this subset should resolve through
// word-prefix-docids, if applicable (`use_prefix_db`).
func (s *TermSubset) UsePrefixDB() (string, bool) {
	if !s.UsesPrefix || s.KeepOnlyExactTerm {
		return "", false
	}
	return s.PrefixOf, true
}

// ExactTerm returns the single exact-match word for this subset
// (`exact_term`), used by the Exactness rule.
func (s *TermSubset) ExactTerm() string { return s.Original }
