package codec

import (
	"bytes"
	"encoding/binary"
)

// Bucket names. An implementation may flatten these into one keyspace with
// a name prefix (spec §4.1); here each is its own bbolt bucket, mirroring
// the teacher's one-bucket-per-logical-table layout in dbutils.Buckets,
// just keyed by search concepts instead of chain concepts.
const (
	BucketMain                   = "main"
	BucketExternalDocumentsIds    = "external-documents-ids"
	BucketWordDocids              = "word-docids"
	BucketExactWordDocids         = "exact-word-docids"
	BucketWordPrefixDocids        = "word-prefix-docids"
	BucketWordPairProximityDocids = "word-pair-proximity-docids"
	BucketWordPositionDocids      = "word-position-docids"
	BucketWordFidDocids           = "word-fid-docids"
	BucketFieldIdWordCountDocids  = "field-id-word-count-docids"
	BucketFacetIdF64Docids        = "facet-id-f64-docids"
	BucketFacetIdStringDocids     = "facet-id-string-docids"
	BucketFieldIdDocidFacetF64    = "field-id-docid-facet-f64"
	BucketFieldIdDocidFacetString = "field-id-docid-facet-string"
	BucketDocuments                = "documents"
	BucketWordPrefixPairProximity = "word-prefix-pair-proximity-docids"
	BucketWordPrefixPositionDocids = "word-prefix-position-docids"
	BucketEmbeddings                = "embeddings"
)

// AllBuckets lists every bucket an Env must create on open, mirroring the
// teacher's dbutils.Buckets registry consulted at startup.
var AllBuckets = []string{
	BucketMain,
	BucketExternalDocumentsIds,
	BucketWordDocids,
	BucketExactWordDocids,
	BucketWordPrefixDocids,
	BucketWordPairProximityDocids,
	BucketWordPositionDocids,
	BucketWordFidDocids,
	BucketFieldIdWordCountDocids,
	BucketFacetIdF64Docids,
	BucketFacetIdStringDocids,
	BucketFieldIdDocidFacetF64,
	BucketFieldIdDocidFacetString,
	BucketDocuments,
	BucketWordPrefixPairProximity,
	BucketWordPrefixPositionDocids,
	BucketEmbeddings,
}

// Main-db small fixed keys.
const (
	MainKeyFieldsIdsMap      = "fields-ids-map"
	MainKeyPrimaryKey        = "primary-key"
	MainKeyWordsFst          = "words-fst"
	MainKeyWordsPrefixesFst  = "words-prefixes-fst"
	MainKeyStopWords         = "stop-words"
	MainKeySynonyms          = "synonyms"
	MainKeyGeoFacetedDocids  = "geo-faceted-docids"
	MainKeySettings          = "settings"
	MainKeyFreeDocids        = "free-docids"
	MainKeyNumberOfDocuments = "number-of-documents"
	MainKeyNextDocid         = "next-docid"
)

// WordDocidsKey is the key of the word-docids / exact-word-docids /
// word-prefix-docids databases: the word bytes verbatim.
func WordDocidsKey(word string) []byte { return []byte(word) }

// WordPairProximityDocidsKey encodes proximity(1B) || word1 || 0 || word2.
func WordPairProximityDocidsKey(proximity uint8, word1, word2 string) []byte {
	buf := make([]byte, 0, 1+len(word1)+1+len(word2))
	buf = append(buf, proximity)
	buf = append(buf, word1...)
	buf = append(buf, 0)
	buf = append(buf, word2...)
	return buf
}

// DecodeWordPairProximityDocidsKey is the inverse of WordPairProximityDocidsKey.
func DecodeWordPairProximityDocidsKey(k []byte) (proximity uint8, word1, word2 string) {
	proximity = k[0]
	rest := k[1:]
	sep := bytes.IndexByte(rest, 0)
	word1 = string(rest[:sep])
	word2 = string(rest[sep+1:])
	return
}

// WordPositionDocidsKey encodes word || 0 || position(4B).
func WordPositionDocidsKey(word string, position uint32) []byte {
	buf := make([]byte, 0, len(word)+1+4)
	buf = append(buf, word...)
	buf = append(buf, 0)
	var p [4]byte
	binary.BigEndian.PutUint32(p[:], position)
	return append(buf, p[:]...)
}

// WordPositionDocidsPrefix returns the key prefix shared by every position
// recorded for word, for a cursor scan of all of word's occurrences.
func WordPositionDocidsPrefix(word string) []byte {
	buf := make([]byte, 0, len(word)+1)
	buf = append(buf, word...)
	return append(buf, 0)
}

// DecodeWordPositionDocidsKey is the inverse of WordPositionDocidsKey's
// position suffix, for keys already known to share one word prefix.
func DecodeWordPositionDocidsKey(k []byte) (position uint32) {
	return binary.BigEndian.Uint32(k[len(k)-4:])
}

// WordFidDocidsKey encodes word || 0 || fid(2B).
func WordFidDocidsKey(word string, fid FieldId) []byte {
	buf := make([]byte, 0, len(word)+1+2)
	buf = append(buf, word...)
	buf = append(buf, 0)
	return PutFieldId(buf, fid)
}

// FieldIdWordCountDocidsKey encodes fid(2B) || count(1B) || word.
func FieldIdWordCountDocidsKey(fid FieldId, count uint8, word string) []byte {
	buf := make([]byte, 0, 2+1+len(word))
	buf = PutFieldId(buf, fid)
	buf = append(buf, count)
	return append(buf, word...)
}

// FacetF64Key encodes fid(2B) || level(1B) || left(8B ordered) || right(8B ordered).
func FacetF64Key(fid FieldId, level uint8, left, right float64) []byte {
	buf := make([]byte, 0, 2+1+8+8)
	buf = PutFieldId(buf, fid)
	buf = append(buf, level)
	l := EncodeF64Ordered(left)
	r := EncodeF64Ordered(right)
	buf = append(buf, l[:]...)
	buf = append(buf, r[:]...)
	return buf
}

// FacetF64Prefix encodes fid(2B) || level(1B), for range-scanning one level.
func FacetF64Prefix(fid FieldId, level uint8) []byte {
	buf := make([]byte, 0, 3)
	buf = PutFieldId(buf, fid)
	return append(buf, level)
}

// FacetStringKey encodes fid(2B) || level(1B) || left-bound(utf-8).
func FacetStringKey(fid FieldId, level uint8, leftBound string) []byte {
	buf := make([]byte, 0, 2+1+len(leftBound))
	buf = PutFieldId(buf, fid)
	buf = append(buf, level)
	return append(buf, leftBound...)
}

// FieldIdDocidFacetF64Key encodes fid(2B) || docid(4B) || value(8B ordered).
func FieldIdDocidFacetF64Key(fid FieldId, docid DocumentId, value float64) []byte {
	buf := make([]byte, 0, 2+4+8)
	buf = PutFieldId(buf, fid)
	buf = PutDocumentId(buf, docid)
	v := EncodeF64Ordered(value)
	return append(buf, v[:]...)
}

// FieldIdDocidFacetF64Prefix encodes fid(2B) || docid(4B), to enumerate all
// of one document's values for a field.
func FieldIdDocidFacetF64Prefix(fid FieldId, docid DocumentId) []byte {
	buf := make([]byte, 0, 2+4)
	buf = PutFieldId(buf, fid)
	return PutDocumentId(buf, docid)
}

// FieldIdDocidFacetStringKey encodes fid(2B) || docid(4B) || original-string.
func FieldIdDocidFacetStringKey(fid FieldId, docid DocumentId, value string) []byte {
	buf := make([]byte, 0, 2+4+len(value))
	buf = PutFieldId(buf, fid)
	buf = PutDocumentId(buf, docid)
	return append(buf, value...)
}

// DocumentKey encodes the 4-byte big-endian docid used as the documents
// bucket's key.
func DocumentKey(docid DocumentId) []byte {
	return PutDocumentId(nil, docid)
}

// EmbeddingKey encodes fid(2B) || docid(4B), one entry per (embedder
// field, document) pair in the embeddings bucket.
func EmbeddingKey(fid FieldId, docid DocumentId) []byte {
	buf := make([]byte, 0, 2+4)
	buf = PutFieldId(buf, fid)
	return PutDocumentId(buf, docid)
}

// PrefixRangeEnd returns the exclusive upper bound of the key range that
// shares prefix p, i.e. the smallest key strictly greater than every key
// beginning with p. Returns nil when p is all 0xff (unbounded above).
func PrefixRangeEnd(p []byte) []byte {
	end := make([]byte, len(p))
	copy(end, p)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
