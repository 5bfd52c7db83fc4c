package index

import (
	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/etl"
	"github.com/turbosearch/ftcore/internal/extract"
	"github.com/turbosearch/ftcore/internal/kv"
)

func newCommitStreams() *extract.Streams { return extract.NewStreams() }

// streamBuckets pairs each extract.Streams field with the persistent
// bucket it belongs in (spec §4.1's six word-level databases).
func streamBuckets(s *extract.Streams) map[string]map[string]*bitmap.Bitmap {
	return map[string]map[string]*bitmap.Bitmap{
		codec.BucketWordDocids:              s.WordDocids,
		codec.BucketExactWordDocids:         s.ExactWordDocids,
		codec.BucketWordFidDocids:           s.WordFidDocids,
		codec.BucketWordPositionDocids:      s.WordPositionDocids,
		codec.BucketWordPairProximityDocids: s.WordPairProximityDocids,
		codec.BucketFieldIdWordCountDocids:  s.FieldIdWordCountDocids,
	}
}

func unionCombine(existing, incoming []byte) []byte {
	a, errA := bitmap.Decode(existing)
	b, errB := bitmap.Decode(incoming)
	if errA != nil || errB != nil {
		return incoming
	}
	a.Or(b)
	enc, err := bitmap.Encode(a)
	if err != nil {
		return incoming
	}
	return enc
}

// mergeWordStreams folds each extraction stream through an etl.Collector
// (spec §2 "external-sort pipeline ... then merges them into the
// persistent databases") and applies the merged result onto the
// corresponding bucket with bitmap.MergeOr.
func mergeWordStreams(tx kv.Tx, tmpDir string, s *extract.Streams) error {
	for bucketName, stream := range streamBuckets(s) {
		if len(stream) == 0 {
			continue
		}
		coll := etl.NewCollector(tmpDir, 0, unionCombine)
		for key, bm := range stream {
			enc, err := bitmap.Encode(bm)
			if err != nil {
				return err
			}
			if err := coll.Add([]byte(key), enc); err != nil {
				return err
			}
		}
		bucket := tx.Bucket(bucketName)
		if err := coll.Finish(func(key, value []byte) error {
			bm, err := bitmap.Decode(value)
			if err != nil {
				return err
			}
			existing := bucket.Get(key)
			merged, err := bitmap.MergeOr(existing, bm)
			if err != nil {
				return err
			}
			return bucket.Put(key, merged)
		}); err != nil {
			return err
		}
	}
	return nil
}
