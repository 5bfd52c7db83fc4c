package index

import (
	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/fields"
	"github.com/turbosearch/ftcore/internal/kv"
	"github.com/turbosearch/ftcore/internal/vector"
)

// storeEmbeddings pulls any user-provided embedder vectors out of the
// document's reserved "_vectors" object (spec §3 "Embedding: a document
// may carry a user-provided vector under a configured embedder name") and
// persists them keyed by a synthetic "_vectors.<name>" field path so
// VectorSortBuckets can resolve the embedder name to a FieldId the same
// way every other field does.
func (idx *Index) storeEmbeddings(tx kv.Tx, local *fields.Map, docid codec.DocumentId, doc map[string]interface{}) error {
	raw, ok := doc["_vectors"]
	if !ok {
		return nil
	}
	vectors, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	bucket := tx.Bucket(codec.BucketEmbeddings)
	for name, v := range vectors {
		values, ok := floatsFromJSON(v)
		if !ok {
			continue
		}
		fid, err := idx.fieldsGlobal.IDOrInsert(local, embedderFieldName(name))
		if err != nil {
			return err
		}
		enc := vector.Encode(vector.Embedding{Values: values, UserProvided: true})
		if err := bucket.Put(codec.EmbeddingKey(fid, docid), enc); err != nil {
			return err
		}
	}
	return nil
}

func floatsFromJSON(v interface{}) ([]float32, bool) {
	arr, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]float32, 0, len(arr))
	for _, e := range arr {
		f, ok := e.(float64)
		if !ok {
			return nil, false
		}
		out = append(out, float32(f))
	}
	return out, true
}
