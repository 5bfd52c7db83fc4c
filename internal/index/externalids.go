package index

import (
	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/kv"
)

// lookupExternalId resolves an external primary-key string to its
// internal DocumentId, if the id is already known (spec §4.3 step 1
// "for known ids, reuse").
func lookupExternalId(bucket kv.Bucket, external string) (codec.DocumentId, bool) {
	raw := bucket.Get([]byte(external))
	if raw == nil {
		return 0, false
	}
	return codec.DecodeDocumentId(raw), true
}

func putExternalId(bucket kv.Bucket, external string, id codec.DocumentId) error {
	return bucket.Put([]byte(external), codec.PutDocumentId(nil, id))
}

func deleteExternalId(bucket kv.Bucket, external string) error {
	return bucket.Delete([]byte(external))
}
