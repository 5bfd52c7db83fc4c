// Package bitmap implements the CBO ("conditional byte-oriented") roaring
// posting format of spec §3/§4.1: small postings (≤7 docids) are a packed
// native-endian []uint32, anything larger is a standard roaring
// serialization; the decoder tells them apart by the value's byte length.
// Merge-by-OR and merge-by-AndNot (for deletions) are adapted from the
// teacher's ethdb/bitmapdb.AppendMergeByOr, minus its block-number sharding
// (word/facet postings have no monotonic time dimension to shard over —
// see DESIGN.md).
package bitmap

import (
	"encoding/binary"
	"fmt"

	"github.com/RoaringBitmap/roaring"
)

// SmallThreshold is the cardinality at or below which a posting is stored
// as a packed []uint32 instead of a roaring bitmap. Cross-checked against
// the original implementation's CboRoaringBitmapCodec threshold (see
// SPEC_FULL.md "Supplemented features").
const SmallThreshold = 7

// Bitmap is the decoded, mutable in-memory form of a posting.
type Bitmap struct {
	rb *roaring.Bitmap
}

// New returns an empty Bitmap.
func New() *Bitmap { return &Bitmap{rb: roaring.New()} }

// FromSlice builds a Bitmap from a slice of document ids.
func FromSlice(ids []uint32) *Bitmap {
	return &Bitmap{rb: roaring.BitmapOf(ids...)}
}

func (b *Bitmap) Add(id uint32)      { b.rb.Add(id) }
func (b *Bitmap) Remove(id uint32)   { b.rb.Remove(id) }
func (b *Bitmap) Contains(id uint32) bool { return b.rb.Contains(id) }
func (b *Bitmap) Cardinality() uint64     { return b.rb.GetCardinality() }
func (b *Bitmap) IsEmpty() bool           { return b.rb.IsEmpty() }
func (b *Bitmap) ToArray() []uint32       { return b.rb.ToArray() }
func (b *Bitmap) Clone() *Bitmap          { return &Bitmap{rb: b.rb.Clone()} }
func (b *Bitmap) Iterator() roaring.IntPeekable { return b.rb.Iterator() }

// Or mutates b to be the union of b and other.
func (b *Bitmap) Or(other *Bitmap) { b.rb.Or(other.rb) }

// And mutates b to be the intersection of b and other.
func (b *Bitmap) And(other *Bitmap) { b.rb.And(other.rb) }

// AndNot mutates b by removing every id present in other.
func (b *Bitmap) AndNot(other *Bitmap) { b.rb.AndNot(other.rb) }

// Union returns the union of bitmaps without mutating any of them.
func Union(bitmaps ...*Bitmap) *Bitmap {
	rbs := make([]*roaring.Bitmap, len(bitmaps))
	for i, bm := range bitmaps {
		rbs[i] = bm.rb
	}
	return &Bitmap{rb: roaring.FastOr(rbs...)}
}

// Intersect returns the intersection of a and b without mutating either.
func Intersect(a, b *Bitmap) *Bitmap {
	return &Bitmap{rb: roaring.And(a.rb, b.rb)}
}

// Encode serializes b using the CBO format: a packed little-endian
// []uint32 when the cardinality is at or below SmallThreshold, otherwise a
// standard roaring serialization. A roaring serialization of more than
// SmallThreshold ids is either longer than 4*SmallThreshold bytes or of odd
// length, which lets the decoder disambiguate by length.
func Encode(b *Bitmap) ([]byte, error) {
	card := b.rb.GetCardinality()
	if card <= SmallThreshold {
		ids := b.rb.ToArray()
		out := make([]byte, len(ids)*4)
		for i, id := range ids {
			binary.LittleEndian.PutUint32(out[i*4:], id)
		}
		return out, nil
	}
	b.rb.RunOptimize()
	return b.rb.ToBytes()
}

// Decode is the inverse of Encode. Small values (byte length a multiple of
// 4 and implying a cardinality ≤ SmallThreshold) are read back as a packed
// array; everything else is parsed as a roaring serialization.
func Decode(data []byte) (*Bitmap, error) {
	if len(data) == 0 {
		return New(), nil
	}
	if len(data)%4 == 0 && len(data)/4 <= SmallThreshold {
		ids := make([]uint32, len(data)/4)
		for i := range ids {
			ids[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
		return FromSlice(ids), nil
	}
	rb := roaring.New()
	if err := rb.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("bitmap: decode cbo posting: %w", err)
	}
	return &Bitmap{rb: rb}, nil
}

// MergeOr decodes existing (may be nil, meaning "absent"), unions in delta,
// and re-encodes. Used by the indexer's additive database-update step
// (spec §4.3 step 5, "union for additions").
func MergeOr(existing []byte, delta *Bitmap) ([]byte, error) {
	base := New()
	if existing != nil {
		decoded, err := Decode(existing)
		if err != nil {
			return nil, err
		}
		base = decoded
	}
	base.Or(delta)
	return Encode(base)
}

// MergeAndNot decodes existing, removes every id in delta, and re-encodes;
// returns (nil, nil) when the result is empty so the caller deletes the key
// entirely (spec §4.3 step 5, "Empty entries are deleted").
func MergeAndNot(existing []byte, delta *Bitmap) ([]byte, error) {
	if existing == nil {
		return nil, nil
	}
	base, err := Decode(existing)
	if err != nil {
		return nil, err
	}
	base.AndNot(delta)
	if base.IsEmpty() {
		return nil, nil
	}
	return Encode(base)
}
