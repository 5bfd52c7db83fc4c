// Package distinct implements spec §4.6: post-bucket deduplication by a
// single configured facet field, removing every subsequent document that
// shares an already-seen value so at most one document per value
// survives into the result page.
package distinct

import (
	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/codec"
)

// ValueLookup resolves the distinct field's facet value(s) for a docid,
// implemented by internal/index against field-id-docid-facet-{f64,string}.
// A document may carry more than one value for a multi-valued facet
// field; seeing any previously-seen value excludes the whole document.
type ValueLookup func(docid codec.DocumentId) ([]string, error)

// Filter tracks values already emitted across a whole query (not just
// one bucket), since spec §4.6 requires excluded docids to "be
// accumulated and removed from every subsequent bucket."
type Filter struct {
	lookup ValueLookup
	seen   map[string]bool
}

// New builds a Filter around lookup.
func New(lookup ValueLookup) *Filter {
	return &Filter{lookup: lookup, seen: map[string]bool{}}
}

// Apply walks candidates in iteration order, keeping the first document
// to carry each distinct value and excluding every later one, returning
// the surviving subset and the set removed in this call so a caller can
// subtract it from later buckets directly rather than re-deriving it.
func (f *Filter) Apply(candidates *bitmap.Bitmap) (kept, excluded *bitmap.Bitmap, err error) {
	kept = bitmap.New()
	excluded = bitmap.New()
	it := candidates.Iterator()
	for it.HasNext() {
		id := codec.DocumentId(it.Next())
		values, err := f.lookup(id)
		if err != nil {
			return nil, nil, err
		}
		if f.alreadySeen(values) {
			excluded.Add(uint32(id))
			continue
		}
		f.markSeen(values)
		kept.Add(uint32(id))
	}
	return kept, excluded, nil
}

func (f *Filter) alreadySeen(values []string) bool {
	for _, v := range values {
		if f.seen[v] {
			return true
		}
	}
	return false
}

func (f *Filter) markSeen(values []string) {
	for _, v := range values {
		f.seen[v] = true
	}
}
