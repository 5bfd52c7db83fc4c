package fields

import (
	"encoding/binary"
	"fmt"

	"github.com/turbosearch/ftcore/internal/codec"
)

// encodeBinary serializes m as a u16 next-id counter followed by repeated
// (u16 nameLen, name bytes, u16 fid). It is a compact alternative to
// Encode's JSON form, which is the form the index stores.
func encodeBinary(m *Map) []byte {
	size := 2
	m.Each(func(name string, _ codec.FieldId) {
		size += 2 + len(name) + 2
	})
	buf := make([]byte, 0, size)
	var next [2]byte
	binary.BigEndian.PutUint16(next[:], uint16(m.next))
	buf = append(buf, next[:]...)
	m.Each(func(name string, id codec.FieldId) {
		var nl [2]byte
		binary.BigEndian.PutUint16(nl[:], uint16(len(name)))
		buf = append(buf, nl[:]...)
		buf = append(buf, name...)
		buf = codec.PutFieldId(buf, id)
	})
	return buf
}

// decodeBinary is the inverse of encodeBinary.
func decodeBinary(b []byte) (*Map, error) {
	m := NewMap()
	if len(b) < 2 {
		return m, nil
	}
	m.next = codec.FieldId(binary.BigEndian.Uint16(b[:2]))
	b = b[2:]
	for len(b) > 0 {
		if len(b) < 2 {
			return nil, fmt.Errorf("fields: truncated entry")
		}
		nl := binary.BigEndian.Uint16(b[:2])
		b = b[2:]
		if len(b) < int(nl)+2 {
			return nil, fmt.Errorf("fields: truncated name/id")
		}
		name := string(b[:nl])
		b = b[nl:]
		id := codec.DecodeFieldId(b[:2])
		b = b[2:]
		m.idByName[name] = id
		m.nameById[id] = name
	}
	return m, nil
}
