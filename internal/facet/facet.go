// Package facet implements spec §3/§4.3 step 6: per-(FieldId, DocumentId)
// facet values (string or f64), and the multi-level facet tree built
// bottom-up over level-0 (exact values) so that range scans run in
// O(log N). Bulk rebuild mirrors the teacher's sharded-bitmap-by-bound
// scheme in ethdb/bitmapdb (there sharded by max block number within one
// key; here grouped by bound within one field/level). StageF64/StageString
// apply a delta to a level-0 slice in an in-memory google/btree.BTree; the
// levels above are always rebuilt from the whole level 0, and no function
// here rewrites only the touched range of a tree.
package facet

import (
	"sort"

	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/codec"
)

// DefaultGroupSize and DefaultMinLevelSize are carried from the original
// implementation (see SPEC_FULL.md "Supplemented features").
const (
	DefaultGroupSize    = 4
	DefaultMinLevelSize = 5
)

// F64Entry is one level-0 (value, docids) pair for a numeric facet field.
type F64Entry struct {
	Value  float64
	Docids *bitmap.Bitmap
}

// StringEntry is one level-0 (value, docids) pair for a string facet field.
type StringEntry struct {
	Value  string
	Docids *bitmap.Bitmap
}

// F64Group is one node at level ≥ 1 of an f64 facet tree: bounds [Left,
// Right] and the union of every descendant's docids (spec §3 invariant:
// "union of children docids equals the union... of this group's docids").
type F64Group struct {
	Left, Right float64
	Docids      *bitmap.Bitmap
}

// StringGroup is the string-facet analogue of F64Group: LeftBound is the
// smallest member string in the group (spec §4.1 "facet-id-string-docids"
// key is fid||level||left-bound).
type StringGroup struct {
	LeftBound string
	Docids    *bitmap.Bitmap
}

// BuildF64Levels partitions sorted level0 into chunks of groupSize and
// builds each level bottom-up until the top level has fewer than
// minLevelSize entries (spec §4.3 step 6).
func BuildF64Levels(level0 []F64Entry, groupSize, minLevelSize int) [][]F64Group {
	sort.Slice(level0, func(i, j int) bool { return level0[i].Value < level0[j].Value })

	cur := make([]F64Group, len(level0))
	for i, e := range level0 {
		cur[i] = F64Group{Left: e.Value, Right: e.Value, Docids: e.Docids}
	}
	var levels [][]F64Group
	levels = append(levels, cur)

	for len(cur) >= minLevelSize {
		next := groupF64(cur, groupSize)
		levels = append(levels, next)
		cur = next
	}
	return levels
}

func groupF64(entries []F64Group, groupSize int) []F64Group {
	var out []F64Group
	for i := 0; i < len(entries); i += groupSize {
		end := i + groupSize
		if end > len(entries) {
			end = len(entries)
		}
		chunk := entries[i:end]
		bms := make([]*bitmap.Bitmap, len(chunk))
		for j, c := range chunk {
			bms[j] = c.Docids
		}
		out = append(out, F64Group{
			Left:   chunk[0].Left,
			Right:  chunk[len(chunk)-1].Right,
			Docids: bitmap.Union(bms...),
		})
	}
	return out
}

// BuildStringLevels is the string-facet analogue of BuildF64Levels.
func BuildStringLevels(level0 []StringEntry, groupSize, minLevelSize int) [][]StringGroup {
	sort.Slice(level0, func(i, j int) bool { return level0[i].Value < level0[j].Value })

	cur := make([]StringGroup, len(level0))
	for i, e := range level0 {
		cur[i] = StringGroup{LeftBound: e.Value, Docids: e.Docids}
	}
	var levels [][]StringGroup
	levels = append(levels, cur)

	for len(cur) >= minLevelSize {
		next := groupString(cur, groupSize)
		levels = append(levels, next)
		cur = next
	}
	return levels
}

func groupString(entries []StringGroup, groupSize int) []StringGroup {
	var out []StringGroup
	for i := 0; i < len(entries); i += groupSize {
		end := i + groupSize
		if end > len(entries) {
			end = len(entries)
		}
		chunk := entries[i:end]
		bms := make([]*bitmap.Bitmap, len(chunk))
		for j, c := range chunk {
			bms[j] = c.Docids
		}
		out = append(out, StringGroup{
			LeftBound: chunk[0].LeftBound,
			Docids:    bitmap.Union(bms...),
		})
	}
	return out
}

// EncodeF64Group serializes an (size, roaring) facet group value: a
// varint-free fixed 8-byte count followed by the CBO posting (spec §4.1
// "(size, roaring) facet group").
func EncodeF64Group(g F64Group) ([]byte, error) {
	return encodeGroup(g.Docids)
}

func encodeGroup(bm *bitmap.Bitmap) ([]byte, error) {
	card := bm.Cardinality()
	body, err := bitmap.Encode(bm)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(body))
	putU64(out[:8], card)
	copy(out[8:], body)
	return out, nil
}

func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[7-i] = byte(v)
		v >>= 8
	}
}

func getU64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// DecodeGroup parses the (size, roaring) value; the size prefix is
// authoritative metadata (e.g. for quick cardinality checks) but the
// decoded bitmap's own cardinality is what callers should trust for
// iteration.
func DecodeGroup(data []byte) (*bitmap.Bitmap, uint64, error) {
	if len(data) < 8 {
		return bitmap.New(), 0, nil
	}
	size := getU64(data[:8])
	bm, err := bitmap.Decode(data[8:])
	if err != nil {
		return nil, 0, err
	}
	return bm, size, nil
}

// FieldF64ValueKey builds the field-id-docid-facet-f64 key for one
// (fid, docid, value) triple so the indexer can enumerate a document's own
// numeric facet values (e.g. when deleting it).
func FieldF64ValueKey(fid codec.FieldId, docid codec.DocumentId, value float64) []byte {
	return codec.FieldIdDocidFacetF64Key(fid, docid, value)
}
