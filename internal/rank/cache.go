package rank

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/querygraph"
)

// ConditionCache memoizes the docid set a query-graph condition (a node,
// or a node paired with a proximity/position constraint) resolves to,
// keyed by condition id and the universe generation it was computed
// against (spec §4.5 "Per-condition docid computation is cached in a
// ConditionDocIdsCache keyed by interned condition id and universe
// generation; when the universe shrinks the cache intersects lazily
// rather than recomputing").
type ConditionCache struct {
	cache *lru.Cache
}

type conditionEntry struct {
	generation int
	docids     *bitmap.Bitmap
}

// Get returns the cached docids for key if present and valid for
// universe (intersecting down from an older, larger generation when
// needed), or reports a miss.
func (c *ConditionCache) Get(key string, universe *bitmap.Bitmap, currentGen int) (*bitmap.Bitmap, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	entry := v.(conditionEntry)
	if entry.generation == currentGen {
		return entry.docids, true
	}
	// Stale generation: the universe has shrunk since this was computed.
	// Intersecting lazily is still correct and cheaper than recomputing
	// from the base databases.
	narrowed := bitmap.Intersect(entry.docids, universe)
	c.cache.Add(key, conditionEntry{generation: currentGen, docids: narrowed})
	return narrowed, true
}

// Put stores the docids resolved for key at the given universe
// generation.
func (c *ConditionCache) Put(key string, docids *bitmap.Bitmap, generation int) {
	c.cache.Add(key, conditionEntry{generation: generation, docids: docids})
}

// ConditionKey derives a stable cache key from a query-graph node id and
// an optional qualifier (e.g. a proximity value or fid), avoiding
// collisions between a rule's distinct uses of the same node.
func ConditionKey(node querygraph.NodeID, qualifier string) string {
	return fmt.Sprintf("%d:%s", node, qualifier)
}

// DeadEndCache records conditions (and short condition paths) proven to
// intersect empty with the current universe, so the evaluator can skip
// re-deriving them on pathological queries (spec §4.5 "Dead-end cache").
type DeadEndCache struct {
	singles map[string]bool
	pairs   map[[2]string]bool
}

func newDeadEndCache() *DeadEndCache {
	return &DeadEndCache{singles: map[string]bool{}, pairs: map[[2]string]bool{}}
}

// MarkDead records key as a dead end.
func (d *DeadEndCache) MarkDead(key string) { d.singles[key] = true }

// IsDead reports whether key was previously marked dead.
func (d *DeadEndCache) IsDead(key string) bool { return d.singles[key] }

// MarkPairDead records that keys a and b together produced an empty
// intersection.
func (d *DeadEndCache) MarkPairDead(a, b string) {
	d.pairs[orderedPair(a, b)] = true
}

// IsPairDead reports whether a and b were previously marked as a dead
// pair.
func (d *DeadEndCache) IsPairDead(a, b string) bool {
	return d.pairs[orderedPair(a, b)]
}

func orderedPair(a, b string) [2]string {
	if a <= b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}
