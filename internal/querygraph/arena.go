// Package querygraph builds the DAG of term alternatives described in spec
// §4.4/§9 "Cyclic ownership": term subsets are shared across many
// ranking-rule graphs, so they live in an arena keyed by stable interned
// ids rather than behind pointers — the same shape the teacher's
// fields.Global/Map pair uses for FieldId interning, generalized here from
// a flat name->id map to a content-addressed node arena.
package querygraph

import "sort"

// NodeID is a stable identifier for one interned TermSubset. Two subsets
// with identical content always intern to the same NodeID.
type NodeID int

// Arena owns every interned TermSubset for one query evaluation. It is
// built once per query and discarded at the end (spec §5 "in-memory caches
// ... are per-query and dropped at its end").
type Arena struct {
	nodes []TermSubset
	index map[string]NodeID
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{index: make(map[string]NodeID)}
}

// Intern inserts s if no equal subset is already present and returns its
// stable id either way.
func (a *Arena) Intern(s TermSubset) NodeID {
	key := s.fingerprint()
	if id, ok := a.index[key]; ok {
		return id
	}
	id := NodeID(len(a.nodes))
	a.nodes = append(a.nodes, s)
	a.index[key] = id
	return id
}

// Get dereferences id. Panics on an id this arena never issued — a caller
// bug, since NodeIDs never escape the arena that produced them.
func (a *Arena) Get(id NodeID) *TermSubset {
	return &a.nodes[id]
}

// Len returns the number of distinct interned subsets.
func (a *Arena) Len() int { return len(a.nodes) }

// fingerprint is a deterministic content key used for interning; field
// order matches TermSubset's declaration so two subsets built from the
// same inputs always fingerprint identically regardless of slice append
// order upstream (callers are expected to pass pre-sorted slices; sort
// defensively here since interning correctness must not depend on it).
func (s TermSubset) fingerprint() string {
	var b []byte
	b = append(b, "o:"...)
	b = append(b, s.Original...)
	b = append(b, '|')

	one := append([]string(nil), s.OneTypo...)
	sort.Strings(one)
	b = append(b, "1:"...)
	for _, w := range one {
		b = append(b, w...)
		b = append(b, ',')
	}

	two := append([]string(nil), s.TwoTypos...)
	sort.Strings(two)
	b = append(b, "|2:"...)
	for _, w := range two {
		b = append(b, w...)
		b = append(b, ',')
	}

	b = append(b, "|p:"...)
	if s.UsesPrefix {
		b = append(b, s.PrefixOf...)
	}

	syn := append([]string(nil), s.Synonyms...)
	sort.Strings(syn)
	b = append(b, "|s:"...)
	for _, w := range syn {
		b = append(b, w...)
		b = append(b, ',')
	}

	b = append(b, "|sp:"...)
	for _, sw := range s.SplitWords {
		b = append(b, sw.A...)
		b = append(b, '+')
		b = append(b, sw.B...)
		b = append(b, ',')
	}

	b = append(b, "|ph:"...)
	for _, w := range s.Phrase {
		b = append(b, w...)
		b = append(b, ' ')
	}
	return string(b)
}
