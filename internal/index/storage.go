package index

import (
	json "github.com/goccy/go-json"

	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/fields"
	"github.com/turbosearch/ftcore/internal/kv"
)

// storeDocument persists one document's top-level fields as an OBKV blob
// (spec §4.1 "documents: one OBKV entry per document, keyed by docid").
func (idx *Index) storeDocument(bucket kv.Bucket, local *fields.Map, docid codec.DocumentId, doc map[string]interface{}) error {
	entries := map[codec.FieldId][]byte{}
	for name, v := range doc {
		fid, err := idx.fieldsGlobal.IDOrInsert(local, name)
		if err != nil {
			return err
		}
		raw, err := marshalField(v)
		if err != nil {
			return err
		}
		entries[fid] = raw
	}
	obkv := codec.NewOBKV(entries)
	return bucket.Put(codec.DocumentKey(docid), codec.EncodeOBKV(obkv))
}

// loadDocument reverses storeDocument, resolving each stored FieldId back
// to its name via the index's global fields map.
func (idx *Index) loadDocument(tx kv.Tx, docid codec.DocumentId) (map[string]interface{}, error) {
	raw := tx.Bucket(codec.BucketDocuments).Get(codec.DocumentKey(docid))
	if raw == nil {
		return nil, nil
	}
	obkv, err := codec.DecodeOBKV(raw)
	if err != nil {
		return nil, err
	}
	names := idx.fieldsGlobal.Snapshot()
	out := map[string]interface{}{}
	var decodeErr error
	obkv.Each(func(fid codec.FieldId, value []byte) {
		if decodeErr != nil {
			return
		}
		name, ok := names.Name(fid)
		if !ok {
			return
		}
		var v interface{}
		if err := json.Unmarshal(value, &v); err != nil {
			decodeErr = err
			return
		}
		out[name] = v
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return out, nil
}
