package index

import (
	"fmt"

	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/geo"
	"github.com/turbosearch/ftcore/internal/kv"
	"github.com/turbosearch/ftcore/internal/rank"
	"github.com/turbosearch/ftcore/internal/vector"
)

// rankIndex adapts one read transaction to internal/rank.Index.
type rankIndex struct {
	idx *Index
	tx  kv.Tx
}

func newRankIndex(idx *Index, tx kv.Tx) *rankIndex { return &rankIndex{idx: idx, tx: tx} }

func decodeBucket(b kv.Bucket, key []byte) (*bitmap.Bitmap, error) {
	raw := b.Get(key)
	if raw == nil {
		return bitmap.New(), nil
	}
	return bitmap.Decode(raw)
}

func (r *rankIndex) WordDocids(word string) (*bitmap.Bitmap, error) {
	return decodeBucket(r.tx.Bucket(codec.BucketWordDocids), codec.WordDocidsKey(word))
}

func (r *rankIndex) ExactWordDocids(word string) (*bitmap.Bitmap, error) {
	return decodeBucket(r.tx.Bucket(codec.BucketExactWordDocids), codec.WordDocidsKey(word))
}

func (r *rankIndex) PrefixDocids(prefix string) (*bitmap.Bitmap, error) {
	return decodeBucket(r.tx.Bucket(codec.BucketWordPrefixDocids), codec.WordDocidsKey(prefix))
}

func (r *rankIndex) WordFidDocids(word string, fid codec.FieldId) (*bitmap.Bitmap, error) {
	return decodeBucket(r.tx.Bucket(codec.BucketWordFidDocids), codec.WordFidDocidsKey(word, fid))
}

func (r *rankIndex) WordPositionDocids(word string, position uint32) (*bitmap.Bitmap, error) {
	return decodeBucket(r.tx.Bucket(codec.BucketWordPositionDocids), codec.WordPositionDocidsKey(word, position))
}

func (r *rankIndex) WordPositions(word string) (map[uint32]*bitmap.Bitmap, error) {
	bucket := r.tx.Bucket(codec.BucketWordPositionDocids)
	prefix := codec.WordPositionDocidsPrefix(word)
	out := map[uint32]*bitmap.Bitmap{}
	c := bucket.Cursor()
	for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
		bm, err := bitmap.Decode(v)
		if err != nil {
			return nil, err
		}
		out[codec.DecodeWordPositionDocidsKey(k)] = bm
	}
	return out, nil
}

func (r *rankIndex) PairProximityDocids(word1, word2 string, proximity int) (*bitmap.Bitmap, error) {
	return decodeBucket(r.tx.Bucket(codec.BucketWordPairProximityDocids),
		codec.WordPairProximityDocidsKey(uint8(proximity), word1, word2))
}

func (r *rankIndex) FieldIdWordCountDocids(fid codec.FieldId, count int) (*bitmap.Bitmap, error) {
	bucket := r.tx.Bucket(codec.BucketFieldIdWordCountDocids)
	acc := bitmap.New()
	prefix := codec.FieldIdWordCountDocidsKey(fid, uint8(count), "")
	c := bucket.Cursor()
	for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
		bm, err := bitmap.Decode(v)
		if err != nil {
			return nil, err
		}
		acc.Or(bm)
	}
	return acc, nil
}

func (r *rankIndex) SearchableFields() []codec.FieldId {
	names := r.idx.settings.SearchableFields
	snap := r.idx.fieldsGlobal.Snapshot()
	var out []codec.FieldId
	if len(names) == 0 {
		snap.Each(func(_ string, id codec.FieldId) { out = append(out, id) })
		return out
	}
	for _, n := range names {
		if id, ok := snap.ID(n); ok {
			out = append(out, id)
		}
	}
	return out
}

func (r *rankIndex) FieldWeight(fid codec.FieldId) int {
	snap := r.idx.fieldsGlobal.Snapshot()
	name, ok := snap.Name(fid)
	if !ok {
		return 0
	}
	if w, ok := r.idx.settings.FieldWeights[name]; ok {
		return w
	}
	for i, n := range r.idx.settings.SearchableFields {
		if n == name {
			return i + 1
		}
	}
	return 1
}

func (r *rankIndex) SortBuckets(field string, asc bool) ([]rank.Bucket, error) {
	fid, ok := r.idx.fieldsGlobal.Snapshot().ID(field)
	if !ok {
		return nil, nil
	}
	type entry struct {
		cost   int
		docids *bitmap.Bitmap
	}
	var entries []entry
	res := newResolver(r.idx, r.tx)
	i := 0
	res.scanF64(fid, func(_ float64, docids *bitmap.Bitmap) {
		entries = append(entries, entry{cost: i, docids: docids})
		i++
	})
	if len(entries) == 0 {
		i = 0
		res.scanString(fid, func(_ string, docids *bitmap.Bitmap) {
			entries = append(entries, entry{cost: i, docids: docids})
			i++
		})
	}
	if !asc {
		for l, h := 0, len(entries)-1; l < h; l, h = l+1, h-1 {
			entries[l], entries[h] = entries[h], entries[l]
		}
		for idx := range entries {
			entries[idx].cost = idx
		}
	}
	out := make([]rank.Bucket, len(entries))
	for idx, e := range entries {
		out[idx] = rank.Bucket{Cost: e.cost, Docids: e.docids}
	}
	return out, nil
}

func (r *rankIndex) GeoSortBuckets(center geo.Point, asc bool) ([]rank.Bucket, error) {
	type docDist = struct {
		docid codec.DocumentId
		dist  float64
	}
	var all []docDist
	res := newResolver(r.idx, r.tx)
	universe := res.Universe()
	it := universe.Iterator()
	for it.HasNext() {
		docid := codec.DocumentId(it.Next())
		p, ok := r.idx.docGeoPoint(r.tx, docid)
		if !ok {
			continue
		}
		all = append(all, docDist{docid: docid, dist: geo.DistanceMeters(p, center)})
	}
	return distanceBuckets(all, asc), nil
}

func distanceBuckets(all []struct {
	docid codec.DocumentId
	dist  float64
}, asc bool) []rank.Bucket {
	for i := 1; i < len(all); i++ {
		for j := i; j > 0; j-- {
			less := all[j-1].dist > all[j].dist
			if !asc {
				less = all[j-1].dist < all[j].dist
			}
			if less {
				all[j-1], all[j] = all[j], all[j-1]
			} else {
				break
			}
		}
	}
	out := make([]rank.Bucket, 0, len(all))
	for i, d := range all {
		if i > 0 && d.dist == all[i-1].dist {
			out[len(out)-1].Docids.Add(uint32(d.docid))
			continue
		}
		bm := bitmap.New()
		bm.Add(uint32(d.docid))
		out = append(out, rank.Bucket{Cost: len(out), Docids: bm})
	}
	return out
}

func (r *rankIndex) VectorSortBuckets(embedder string, query []float32) ([]rank.Bucket, error) {
	fid, ok := r.idx.fieldsGlobal.Snapshot().ID(embedderFieldName(embedder))
	if !ok {
		return nil, nil
	}
	type scored struct {
		docid codec.DocumentId
		sim   float64
	}
	var all []scored
	bucket := r.tx.Bucket(codec.BucketEmbeddings)
	prefix := codec.PutFieldId(nil, fid)
	c := bucket.Cursor()
	for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
		docid := codec.DecodeDocumentId(k[2:6])
		emb, err := vector.Decode(v)
		if err != nil {
			continue
		}
		all = append(all, scored{docid: docid, sim: vector.CosineSimilarity(emb.Values, query)})
	}
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j-1].sim < all[j].sim; j-- {
			all[j-1], all[j] = all[j], all[j-1]
		}
	}
	out := make([]rank.Bucket, len(all))
	for i, s := range all {
		bm := bitmap.New()
		bm.Add(uint32(s.docid))
		out[i] = rank.Bucket{Cost: i, Docids: bm}
	}
	return out, nil
}

func embedderFieldName(name string) string { return fmt.Sprintf("_vectors.%s", name) }
