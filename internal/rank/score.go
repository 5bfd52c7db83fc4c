package rank

// Open Question decision (spec §9 "Interaction of ranking_score_threshold
// with rule-specific normalization"): every rule normalizes to a
// similarity-style score in [0, 1] where 1 is best, rather than exposing
// raw costs. ranking_score_threshold then compares uniformly across
// rules regardless of which one produced the lowest cost bucket a
// document fell into. See DESIGN.md for the corpus-owner-equivalent
// decision record.

// NormalizeCost maps a rule's raw non-negative integer cost to a [0, 1]
// score, where 0 cost maps to 1.0 and costs at or beyond worstCost map to
// 0.0, linearly in between. internal/index passes cost+1 (1 for cost 0)
// as worstCost for every rule, so a score depends only on the bucket's
// own cost, not on a rule-specific bound.
func NormalizeCost(cost, worstCost int) float64 {
	if worstCost <= 0 {
		if cost <= 0 {
			return 1
		}
		return 0
	}
	if cost <= 0 {
		return 1
	}
	if cost >= worstCost {
		return 0
	}
	return 1 - float64(cost)/float64(worstCost)
}

// NormalizeSimilarity clamps a cosine-similarity-style score (already in
// [-1, 1] for vector-sort) into [0, 1] so it composes uniformly with
// NormalizeCost's output under a single ranking_score_threshold.
func NormalizeSimilarity(sim float64) float64 {
	n := (sim + 1) / 2
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// AggregateScore combines a document's per-rule normalized scores into
// the single `show_ranking_score` value, as the minimum across rules
// (the weakest link dominates) — matching how ranking_score_threshold is
// documented to behave as a floor rather than an average.
func AggregateScore(normalized []float64) float64 {
	if len(normalized) == 0 {
		return 1
	}
	min := normalized[0]
	for _, v := range normalized[1:] {
		if v < min {
			min = v
		}
	}
	return min
}
