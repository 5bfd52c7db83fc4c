// Package fields implements the bidirectional FieldId map of spec §4.2:
// additive, persisted in the main database, allocating monotonically and
// failing when FieldId space (2^16) is exhausted. Global adds
// the concurrent-indexing wrapper the spec calls for: worker threads each
// hold a local clone and take the write lock only to allocate a
// previously-unknown id.
//
// Grounded on the teacher's common/dbutils/bucket.go registry-with-lazy-
// allocation pattern (BucketsConfigs + reinit), adapted from a static
// compile-time bucket list to a dynamic, persisted, runtime-allocated map.
package fields

import (
	"fmt"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/errs"
)

// Map is the persisted name<->id bijection.
type Map struct {
	idByName map[string]codec.FieldId
	nameById map[codec.FieldId]string
	next     codec.FieldId
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{idByName: map[string]codec.FieldId{}, nameById: map[codec.FieldId]string{}}
}

// ID returns the FieldId for name, if already allocated.
func (m *Map) ID(name string) (codec.FieldId, bool) {
	id, ok := m.idByName[name]
	return id, ok
}

// Name returns the field path for id, if allocated.
func (m *Map) Name(id codec.FieldId) (string, bool) {
	n, ok := m.nameById[id]
	return n, ok
}

// Insert allocates (or returns the existing) FieldId for name.
func (m *Map) Insert(name string) (codec.FieldId, error) {
	if id, ok := m.idByName[name]; ok {
		return id, nil
	}
	if m.next == codec.MaxFieldId {
		return 0, errs.UserInput(errs.CodeFieldIdsExhausted, fmt.Errorf("fields: no ids left below 2^16"))
	}
	id := m.next
	m.next++
	m.idByName[name] = id
	m.nameById[id] = name
	return id, nil
}

// Len reports the number of allocated fields.
func (m *Map) Len() int { return len(m.idByName) }

// Each calls fn for every (name, id) pair; order is unspecified.
func (m *Map) Each(fn func(name string, id codec.FieldId)) {
	for n, id := range m.idByName {
		fn(n, id)
	}
}

// Clone deep-copies the map, used by indexing workers to take a consistent
// local snapshot before taking the global write lock only on a miss.
func (m *Map) Clone() *Map {
	c := NewMap()
	c.next = m.next
	for k, v := range m.idByName {
		c.idByName[k] = v
	}
	for k, v := range m.nameById {
		c.nameById[k] = v
	}
	return c
}

// Global wraps a Map behind an RWMutex so that indexing worker threads can
// read concurrently and only serialize when a name truly needs a fresh id
// (spec §4.2 "Concurrency"). Local inserts are idempotent and consistent
// across threads via this shared source of truth.
type Global struct {
	mu sync.RWMutex
	m  *Map
}

// NewGlobal wraps m (typically loaded from the main database) for
// concurrent use during one indexing run.
func NewGlobal(m *Map) *Global {
	return &Global{m: m}
}

// LocalClone returns a private snapshot a worker can read without locking.
func (g *Global) LocalClone() *Map {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.m.Clone()
}

// IDOrInsert resolves name to an id, allocating one under the write lock
// only if the caller's local clone didn't already know it. Safe to call
// from many worker goroutines concurrently.
func (g *Global) IDOrInsert(local *Map, name string) (codec.FieldId, error) {
	if id, ok := local.ID(name); ok {
		return id, nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := g.m.Insert(name)
	if err != nil {
		return 0, err
	}
	local.idByName[name] = id
	local.nameById[id] = name
	return id, nil
}

// Snapshot returns a read-consistent clone of the global map for
// persisting at commit time.
func (g *Global) Snapshot() *Map {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.m.Clone()
}

// wireMap is the on-disk encoding of Map: name->id, reloaded into both
// idByName and the derived nameById on Decode.
type wireMap struct {
	Next codec.FieldId            `json:"next"`
	IDs  map[string]codec.FieldId `json:"ids"`
}

// Encode serializes m for storage under codec.MainKeyFieldsIdsMap.
func Encode(m *Map) ([]byte, error) {
	w := wireMap{Next: m.next, IDs: m.idByName}
	return json.Marshal(w)
}

// Decode is the inverse of Encode.
func Decode(b []byte) (*Map, error) {
	var w wireMap
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, err
	}
	m := NewMap()
	m.next = w.Next
	for name, id := range w.IDs {
		m.idByName[name] = id
		m.nameById[id] = name
	}
	return m, nil
}
