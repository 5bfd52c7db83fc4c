package index

import (
	"encoding/binary"

	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/kv"
)

// docidAllocator hands out internal DocumentIds for a single commit: it
// first drains the persisted free-docids pool (ids released by prior
// deletions, spec §4.3 step 1 "allocate a fresh internal id from the
// free-ids pool"), then falls back to a monotonically increasing counter.
type docidAllocator struct {
	free *bitmap.Bitmap
	next uint32
}

func loadAllocator(main kv.Bucket) *docidAllocator {
	free := bitmap.New()
	if raw := main.Get([]byte(codec.MainKeyFreeDocids)); raw != nil {
		if decoded, err := bitmap.Decode(raw); err == nil {
			free = decoded
		}
	}
	var next uint32
	if raw := main.Get([]byte(codec.MainKeyNextDocid)); raw != nil && len(raw) == 4 {
		next = binary.BigEndian.Uint32(raw)
	}
	return &docidAllocator{free: free, next: next}
}

func (a *docidAllocator) allocate() codec.DocumentId {
	it := a.free.Iterator()
	if it.HasNext() {
		id := it.Next()
		a.free.Remove(id)
		return codec.DocumentId(id)
	}
	id := a.next
	a.next++
	return codec.DocumentId(id)
}

func (a *docidAllocator) release(id codec.DocumentId) {
	a.free.Add(uint32(id))
}

func (a *docidAllocator) persist(main kv.Bucket) error {
	encoded, err := bitmap.Encode(a.free)
	if err != nil {
		return err
	}
	if err := main.Put([]byte(codec.MainKeyFreeDocids), encoded); err != nil {
		return err
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], a.next)
	return main.Put([]byte(codec.MainKeyNextDocid), buf[:])
}
