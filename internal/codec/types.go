// Package codec implements the bijective, order-preserving key/value
// encodings of spec §4.1: one function pair per logical database, all
// big-endian so that prefix and range iteration over a bucket yields
// semantically meaningful, sorted ranges. Adapted from the teacher's
// common/dbutils/bucket.go, which pins its own chain-keyed bucket layouts
// (HeaderPrefix, BlockBodyPrefix, ...) the same way: small, named,
// hand-written byte-shuffling functions, no generic serialization library.
package codec

import "encoding/binary"

// DocumentId is spec's 32-bit document identifier, stable for the lifetime
// of the document and reused from a free-id pool on deletion.
type DocumentId uint32

// FieldId is spec's 16-bit field identifier, additive and never reused.
type FieldId uint16

// MaxFieldId is one past the largest allocatable FieldId: fields.Map hands
// out ids 0..MaxFieldId-1 and fails once its counter reaches MaxFieldId.
const MaxFieldId = FieldId(^uint16(0))

// MaxPosition bounds in-field word position (spec §3 "Attribute"): all
// positions in a field are clamped into this many bits so they share the
// field's upper bits when packed into one sortable key. The original
// implementation clamps with a 12-bit mask; carried here unchanged
// (see SPEC_FULL.md "Supplemented features").
const MaxPosition = 1<<12 - 1

// Attribute is a (FieldId, word-position) pair, clamped per spec §3.
type Attribute struct {
	Field    FieldId
	Position uint32
}

// ClampPosition clamps pos into [0, MaxPosition].
func ClampPosition(pos uint32) uint32 {
	if pos > MaxPosition {
		return MaxPosition
	}
	return pos
}

// PutDocumentId appends the big-endian encoding of id to dst.
func PutDocumentId(dst []byte, id DocumentId) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(id))
	return append(dst, b[:]...)
}

// DecodeDocumentId reads a big-endian DocumentId from the front of b.
func DecodeDocumentId(b []byte) DocumentId {
	return DocumentId(binary.BigEndian.Uint32(b))
}

// PutFieldId appends the big-endian encoding of id to dst.
func PutFieldId(dst []byte, id FieldId) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(id))
	return append(dst, b[:]...)
}

// DecodeFieldId reads a big-endian FieldId from the front of b.
func DecodeFieldId(b []byte) FieldId {
	return FieldId(binary.BigEndian.Uint16(b))
}
