package index

import (
	"github.com/google/btree"

	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/facet"
	"github.com/turbosearch/ftcore/internal/kv"
)

// incrementalRebuildThreshold is the fraction of the index's total
// documents above which shouldRebuildBulk reports true.
const incrementalRebuildThreshold = 0.02

// f64StageItem is one touched (value -> docids) delta, staged in a
// google/btree.BTree so a batch's many updates to the same value collapse
// to one entry before they're folded into the persisted level-0 set; the
// teacher's own in-memory staging structures (e.g. the block-range maps in
// eth/stagedsync) are never a self-balancing tree, so this is the one
// place in the port that reaches for google/btree specifically for its
// ordered-staging behavior.
type f64StageItem struct {
	value  float64
	docids *bitmap.Bitmap
}

func (i *f64StageItem) Less(than btree.Item) bool {
	return i.value < than.(*f64StageItem).value
}

type stringStageItem struct {
	value  string
	docids *bitmap.Bitmap
}

func (i *stringStageItem) Less(than btree.Item) bool {
	return i.value < than.(*stringStageItem).value
}

// shouldRebuildBulk reports whether a batch touched more than
// incrementalRebuildThreshold of the documents. commit only logs the
// answer; both cases use the same full rebuild.
func shouldRebuildBulk(touchedDocs, totalDocs int) bool {
	if totalDocs == 0 {
		return true
	}
	return float64(touchedDocs)/float64(totalDocs) > incrementalRebuildThreshold
}

// rebuildF64Facet stages this batch's (value -> docids) deltas in a
// btree to dedupe same-value touches, merges them against the full
// level-0 set read back from field-id-docid-facet-f64, and rewrites the
// whole facet-id-f64-docids tree for fid. The staging step is always run;
// what spec §9 calls "incremental" here means skipping the O(total) level-0
// rescan when the touched fraction is small, which the bulk path below
// does not yet specialize — see DESIGN.md.
func rebuildF64Facet(tx kv.Tx, fid codec.FieldId, deltas map[float64]*bitmap.Bitmap) error {
	staged := btree.New(32)
	for v, bm := range deltas {
		staged.ReplaceOrInsert(&f64StageItem{value: v, docids: bm})
	}

	level0 := map[float64]*bitmap.Bitmap{}
	docs := tx.Bucket(codec.BucketFieldIdDocidFacetF64)
	c := docs.Cursor()
	prefix := codec.PutFieldId(nil, fid)
	for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
		docid := codec.DecodeDocumentId(k[2:6])
		var arr [8]byte
		copy(arr[:], k[6:14])
		v := codec.DecodeF64Ordered(arr)
		bm, ok := level0[v]
		if !ok {
			bm = bitmap.New()
			level0[v] = bm
		}
		bm.Add(uint32(docid))
	}

	staged.Ascend(func(item btree.Item) bool {
		s := item.(*f64StageItem)
		bm, ok := level0[s.value]
		if !ok {
			bm = bitmap.New()
			level0[s.value] = bm
		}
		bm.Or(s.docids)
		return true
	})

	facetBucket := tx.Bucket(codec.BucketFacetIdF64Docids)
	if err := deleteFieldLevels(facetBucket, fid); err != nil {
		return err
	}

	var entries []facet.F64Entry
	for v, bm := range level0 {
		if bm.IsEmpty() {
			continue
		}
		entries = append(entries, facet.F64Entry{Value: v, Docids: bm})
	}
	levels := facet.BuildF64Levels(entries, facet.DefaultGroupSize, facet.DefaultMinLevelSize)
	for level, groups := range levels {
		for _, g := range groups {
			enc, err := facet.EncodeF64Group(g)
			if err != nil {
				return err
			}
			key := codec.FacetF64Key(fid, uint8(level), g.Left, g.Right)
			if err := facetBucket.Put(key, enc); err != nil {
				return err
			}
		}
	}
	return nil
}

// rebuildStringFacet is the string-facet analogue of rebuildF64Facet.
func rebuildStringFacet(tx kv.Tx, fid codec.FieldId, deltas map[string]*bitmap.Bitmap) error {
	staged := btree.New(32)
	for v, bm := range deltas {
		staged.ReplaceOrInsert(&stringStageItem{value: v, docids: bm})
	}

	level0 := map[string]*bitmap.Bitmap{}
	docs := tx.Bucket(codec.BucketFieldIdDocidFacetString)
	c := docs.Cursor()
	prefix := codec.PutFieldId(nil, fid)
	for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
		docid := codec.DecodeDocumentId(k[2:6])
		v := string(k[6:])
		bm, ok := level0[v]
		if !ok {
			bm = bitmap.New()
			level0[v] = bm
		}
		bm.Add(uint32(docid))
	}

	staged.Ascend(func(item btree.Item) bool {
		s := item.(*stringStageItem)
		bm, ok := level0[s.value]
		if !ok {
			bm = bitmap.New()
			level0[s.value] = bm
		}
		bm.Or(s.docids)
		return true
	})

	facetBucket := tx.Bucket(codec.BucketFacetIdStringDocids)
	if err := deleteFieldLevels(facetBucket, fid); err != nil {
		return err
	}

	var entries []facet.StringEntry
	for v, bm := range level0 {
		if bm.IsEmpty() {
			continue
		}
		entries = append(entries, facet.StringEntry{Value: v, Docids: bm})
	}
	levels := facet.BuildStringLevels(entries, facet.DefaultGroupSize, facet.DefaultMinLevelSize)
	for level, groups := range levels {
		for _, g := range groups {
			enc, err := facet.EncodeF64Group(facet.F64Group{Docids: g.Docids})
			if err != nil {
				return err
			}
			key := codec.FacetStringKey(fid, uint8(level), g.LeftBound)
			if err := facetBucket.Put(key, enc); err != nil {
				return err
			}
		}
	}
	return nil
}

func deleteFieldLevels(bucket kv.Bucket, fid codec.FieldId) error {
	prefix := codec.PutFieldId(nil, fid)
	var toDelete [][]byte
	c := bucket.Cursor()
	for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
		toDelete = append(toDelete, append([]byte(nil), k...))
	}
	for _, k := range toDelete {
		if err := bucket.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}
