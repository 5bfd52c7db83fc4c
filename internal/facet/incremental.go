package facet

import (
	"github.com/google/btree"
)

// IncrementalThreshold is the fraction of changed level-0 entries above
// which ShouldRebuildBulk reports true.
const IncrementalThreshold = 0.02

// ShouldRebuildBulk reports whether a bulk rebuild is cheaper/safer than an
// incremental patch, given how many level-0 entries changed this commit.
func ShouldRebuildBulk(changed, level0Total int) bool {
	if level0Total == 0 {
		return true
	}
	return float64(changed)/float64(level0Total) > IncrementalThreshold
}

// f64Item adapts F64Entry for ordered staging in a google/btree.BTree,
// which gives O(log N) ordered insert/delete while a delta is applied to a
// level-0 slice.
type f64Item struct {
	F64Entry
}

func (a f64Item) Less(than btree.Item) bool {
	return a.Value < than.(f64Item).Value
}

// StageF64 builds a btree staging area from the current level-0 entries,
// applies the delta (insertions/removals keyed by value), and returns the
// new sorted level-0 slice in full, as BuildF64Levels takes it; there is
// no range-restricted build.
func StageF64(level0 []F64Entry, upserts []F64Entry, removeValues []float64) []F64Entry {
	tr := btree.New(32)
	for _, e := range level0 {
		tr.ReplaceOrInsert(f64Item{e})
	}
	for _, v := range removeValues {
		tr.Delete(f64Item{F64Entry{Value: v}})
	}
	for _, e := range upserts {
		if existing := tr.Get(f64Item{F64Entry{Value: e.Value}}); existing != nil {
			merged := existing.(f64Item).Docids.Clone()
			merged.Or(e.Docids)
			tr.ReplaceOrInsert(f64Item{F64Entry{Value: e.Value, Docids: merged}})
		} else {
			tr.ReplaceOrInsert(f64Item{e})
		}
	}

	out := make([]F64Entry, 0, tr.Len())
	tr.Ascend(func(it btree.Item) bool {
		e := it.(f64Item).F64Entry
		if e.Docids == nil || !e.Docids.IsEmpty() {
			out = append(out, e)
		}
		return true
	})
	return out
}

// stringItem is the string-facet analogue of f64Item.
type stringItem struct {
	StringEntry
}

func (a stringItem) Less(than btree.Item) bool {
	return a.Value < than.(stringItem).Value
}

// StageString is the string-facet analogue of StageF64.
func StageString(level0 []StringEntry, upserts []StringEntry, removeValues []string) []StringEntry {
	tr := btree.New(32)
	for _, e := range level0 {
		tr.ReplaceOrInsert(stringItem{e})
	}
	for _, v := range removeValues {
		tr.Delete(stringItem{StringEntry{Value: v}})
	}
	for _, e := range upserts {
		if existing := tr.Get(stringItem{StringEntry{Value: e.Value}}); existing != nil {
			merged := existing.(stringItem).Docids.Clone()
			merged.Or(e.Docids)
			tr.ReplaceOrInsert(stringItem{StringEntry{Value: e.Value, Docids: merged}})
		} else {
			tr.ReplaceOrInsert(stringItem{e})
		}
	}

	out := make([]StringEntry, 0, tr.Len())
	tr.Ascend(func(it btree.Item) bool {
		e := it.(stringItem).StringEntry
		if e.Docids == nil || !e.Docids.IsEmpty() {
			out = append(out, e)
		}
		return true
	})
	return out
}
