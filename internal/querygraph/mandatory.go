package querygraph

import "sort"

// MatchingStrategy selects how the Words ranking rule relaxes mandatory
// terms as it searches for non-empty buckets (spec §4.4 "Mandatory
// terms").
type MatchingStrategy int

const (
	// All marks every term mandatory: only the all-terms-matched bucket
	// is ever emitted.
	All MatchingStrategy = iota
	// Last relaxes mandatory terms from the rightmost query position
	// backwards.
	Last
	// Frequency relaxes starting from the term with the largest posting
	// (the least discriminative term, dropped first as the roughest cost
	// heuristic).
	Frequency
)

// PostingSize reports the candidate-count estimate for a graph position,
// used by the Frequency strategy to rank terms by selectivity.
type PostingSize func(pos int) int

// DropOrder returns query positions in the order the Words rule should
// relax them from mandatory to optional as it searches for increasingly
// permissive buckets. The returned slice never includes position 0 for
// Last (the leftmost term stays mandatory throughout, matching the
// teacher-style "anchor" reading of free-text queries) and is empty for
// All, since no term is ever relaxed under that strategy.
func DropOrder(strategy MatchingStrategy, positions []int, size PostingSize) []int {
	switch strategy {
	case All:
		return nil
	case Last:
		order := make([]int, 0, len(positions))
		for i := len(positions) - 1; i > 0; i-- {
			order = append(order, positions[i])
		}
		return order
	case Frequency:
		order := append([]int(nil), positions...)
		sort.SliceStable(order, func(i, j int) bool {
			return size(order[i]) > size(order[j])
		})
		if len(order) > 0 {
			// keep the single most selective term mandatory, same anchor
			// rule as Last, so Frequency never drops every term.
			for i, p := range order {
				if size(p) == minSize(order, size) {
					order = append(order[:i:i], order[i+1:]...)
					break
				}
			}
		}
		return order
	default:
		return nil
	}
}

func minSize(positions []int, size PostingSize) int {
	if len(positions) == 0 {
		return 0
	}
	m := size(positions[0])
	for _, p := range positions[1:] {
		if size(p) < m {
			m = size(p)
		}
	}
	return m
}

// MandatorySet returns the set of positions still mandatory after
// dropping the first n entries of order (the Words rule's cost-n
// bucket).
func MandatorySet(positions []int, order []int, n int) map[int]bool {
	dropped := make(map[int]bool, n)
	for i := 0; i < n && i < len(order); i++ {
		dropped[order[i]] = true
	}
	out := make(map[int]bool, len(positions))
	for _, p := range positions {
		if !dropped[p] {
			out[p] = true
		}
	}
	return out
}
