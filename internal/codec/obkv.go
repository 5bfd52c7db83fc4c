package codec

import (
	"encoding/binary"
	"fmt"
)

// OBKV is an ordered-by-key blob: a sequence of (u16 key, bytes value)
// entries in ascending key order, encoded as one byte string (spec
// GLOSSARY). It is the on-disk representation of a document in the
// `documents` database: one entry per leaf FieldId, value the raw JSON
// bytes for that field.
type OBKV struct {
	// entries kept sorted by FieldId ascending; EncodeOBKV relies on that.
	fields []FieldId
	values [][]byte
}

// NewOBKV builds an OBKV from a map; order is normalized internally.
func NewOBKV(m map[FieldId][]byte) *OBKV {
	o := &OBKV{}
	for fid, v := range m {
		o.fields = append(o.fields, fid)
		o.values = append(o.values, v)
	}
	o.sort()
	return o
}

func (o *OBKV) sort() {
	// insertion sort: documents have few dozen fields at most, and keeping
	// this allocation-free matters more than asymptotic complexity here.
	for i := 1; i < len(o.fields); i++ {
		for j := i; j > 0 && o.fields[j-1] > o.fields[j]; j-- {
			o.fields[j-1], o.fields[j] = o.fields[j], o.fields[j-1]
			o.values[j-1], o.values[j] = o.values[j], o.values[j-1]
		}
	}
}

// Get returns the raw value for fid, if present.
func (o *OBKV) Get(fid FieldId) ([]byte, bool) {
	lo, hi := 0, len(o.fields)
	for lo < hi {
		mid := (lo + hi) / 2
		if o.fields[mid] < fid {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(o.fields) && o.fields[lo] == fid {
		return o.values[lo], true
	}
	return nil, false
}

// Each calls fn for every (FieldId, value) pair in key order.
func (o *OBKV) Each(fn func(fid FieldId, value []byte)) {
	for i, fid := range o.fields {
		fn(fid, o.values[i])
	}
}

// Len reports the number of fields stored.
func (o *OBKV) Len() int { return len(o.fields) }

// EncodeOBKV serializes the blob: repeated (u16 fid, u32 len, bytes value).
func EncodeOBKV(o *OBKV) []byte {
	size := 0
	for _, v := range o.values {
		size += 2 + 4 + len(v)
	}
	buf := make([]byte, 0, size)
	for i, fid := range o.fields {
		buf = PutFieldId(buf, fid)
		var lb [4]byte
		binary.BigEndian.PutUint32(lb[:], uint32(len(o.values[i])))
		buf = append(buf, lb[:]...)
		buf = append(buf, o.values[i]...)
	}
	return buf
}

// DecodeOBKV parses the serialization produced by EncodeOBKV.
func DecodeOBKV(b []byte) (*OBKV, error) {
	o := &OBKV{}
	for len(b) > 0 {
		if len(b) < 6 {
			return nil, fmt.Errorf("codec: truncated obkv entry header")
		}
		fid := DecodeFieldId(b[:2])
		n := binary.BigEndian.Uint32(b[2:6])
		b = b[6:]
		if uint32(len(b)) < n {
			return nil, fmt.Errorf("codec: truncated obkv entry value")
		}
		o.fields = append(o.fields, fid)
		o.values = append(o.values, b[:n:n])
		b = b[n:]
	}
	return o, nil
}
