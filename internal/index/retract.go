package index

import (
	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/extract"
	"github.com/turbosearch/ftcore/internal/kv"
)

// retractDocument removes docid's prior contribution to every word-level
// posting and deletes its per-document facet-value keys, in preparation
// for either a full update (re-extraction follows in the same
// transaction) or a deletion (spec §4.3 "Deletion ... retracts the
// document's contribution from every derived structure"). It returns the
// FieldIds whose facet tree must be rebuilt because this document held a
// facet value for them, even if the replacement document carries none.
// geoSet, if non-nil, has docid removed when the prior document carried a
// valid "_geo" field; the caller persists geoSet once per transaction.
func (idx *Index) retractDocument(tx kv.Tx, docid codec.DocumentId, geoSet *bitmap.Bitmap) (touchedF64, touchedString []codec.FieldId, err error) {
	prior, err := idx.loadDocument(tx, docid)
	if err != nil || prior == nil {
		return nil, nil, err
	}

	if geoSet != nil {
		if _, ok := geoPointFromDoc(prior); ok {
			geoSet.Remove(uint32(docid))
		}
	}

	leaves, err := flattenDocument(prior)
	if err != nil {
		return nil, nil, err
	}

	local := idx.fieldsGlobal.LocalClone()
	tok := idx.tokenizer()
	fieldTexts := map[codec.FieldId]string{}
	for _, lf := range leaves {
		if lf.path == "" || lf.text == "" {
			continue
		}
		fid, ok := local.ID(lf.path)
		if !ok {
			continue
		}
		if existing, ok := fieldTexts[fid]; ok {
			fieldTexts[fid] = existing + " " + lf.text
		} else {
			fieldTexts[fid] = lf.text
		}
	}

	streams := extract.NewStreams()
	if err := extract.Extract(extract.Document{Docid: docid, Fields: fieldTexts}, tok, idx.fieldsGlobal, local, streams); err != nil {
		return nil, nil, err
	}
	if err := andNotStreams(tx, streams); err != nil {
		return nil, nil, err
	}

	f64Bucket := tx.Bucket(codec.BucketFieldIdDocidFacetF64)
	stringBucket := tx.Bucket(codec.BucketFieldIdDocidFacetString)
	for _, lf := range leaves {
		if lf.path == "" {
			continue
		}
		fid, ok := local.ID(lf.path)
		if !ok {
			continue
		}
		isFacetField := contains(idx.settings.FilterableFields, lf.path) || contains(idx.settings.SortableFields, lf.path)
		if lf.isNum && isFacetField {
			if err := f64Bucket.Delete(codec.FieldIdDocidFacetF64Key(fid, docid, lf.num)); err != nil {
				return nil, nil, err
			}
			touchedF64 = append(touchedF64, fid)
		} else if lf.isStr && isFacetField {
			if err := stringBucket.Delete(codec.FieldIdDocidFacetStringKey(fid, docid, lf.strVal)); err != nil {
				return nil, nil, err
			}
			touchedString = append(touchedString, fid)
		}
	}

	if rawVectors, ok := prior["_vectors"].(map[string]interface{}); ok {
		embeddings := tx.Bucket(codec.BucketEmbeddings)
		for name := range rawVectors {
			if fid, ok := local.ID(embedderFieldName(name)); ok {
				if err := embeddings.Delete(codec.EmbeddingKey(fid, docid)); err != nil {
					return nil, nil, err
				}
			}
		}
	}

	return touchedF64, touchedString, nil
}

func andNotStreams(tx kv.Tx, s *extract.Streams) error {
	for bucketName, stream := range streamBuckets(s) {
		bucket := tx.Bucket(bucketName)
		for key, bm := range stream {
			existing := bucket.Get([]byte(key))
			merged, err := bitmap.MergeAndNot(existing, bm)
			if err != nil {
				return err
			}
			if merged == nil {
				if err := bucket.Delete([]byte(key)); err != nil {
					return err
				}
				continue
			}
			if err := bucket.Put([]byte(key), merged); err != nil {
				return err
			}
		}
	}
	return nil
}
