package index

import (
	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/kv"
)

// DeleteByExternalIds removes every document named by externalIds, if
// present, retracting each one's contribution from every derived
// structure and releasing its internal id back to the free-docids pool
// (spec §4.3 "Deletion").
func (idx *Index) DeleteByExternalIds(externalIds []string) (Stats, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var stats Stats
	f64Touched := map[codec.FieldId]map[float64]*bitmap.Bitmap{}
	strTouched := map[codec.FieldId]map[string]*bitmap.Bitmap{}

	err := idx.env.Update(func(tx kv.Tx) error {
		main := tx.Bucket(codec.BucketMain)
		extIds := tx.Bucket(codec.BucketExternalDocumentsIds)
		docsBucket := tx.Bucket(codec.BucketDocuments)
		alloc := loadAllocator(main)

		geoSet, err := loadGeoFacetedDocids(main)
		if err != nil {
			return err
		}

		for _, ext := range externalIds {
			docid, ok := lookupExternalId(extIds, ext)
			if !ok {
				continue
			}
			touchedF64, touchedStr, err := idx.retractDocument(tx, docid, geoSet)
			if err != nil {
				return err
			}
			for _, fid := range touchedF64 {
				if _, ok := f64Touched[fid]; !ok {
					f64Touched[fid] = map[float64]*bitmap.Bitmap{}
				}
			}
			for _, fid := range touchedStr {
				if _, ok := strTouched[fid]; !ok {
					strTouched[fid] = map[string]*bitmap.Bitmap{}
				}
			}
			if err := docsBucket.Delete(codec.DocumentKey(docid)); err != nil {
				return err
			}
			if err := deleteExternalId(extIds, ext); err != nil {
				return err
			}
			alloc.release(docid)
			stats.Indexed++
		}

		for fid, deltas := range f64Touched {
			if err := rebuildF64Facet(tx, fid, deltas); err != nil {
				return err
			}
		}
		for fid, deltas := range strTouched {
			if err := rebuildStringFacet(tx, fid, deltas); err != nil {
				return err
			}
		}

		if err := alloc.persist(main); err != nil {
			return err
		}
		if err := putGeoFacetedDocids(main, geoSet); err != nil {
			return err
		}
		count := idx.documentCount(main) - stats.Indexed
		if count < 0 {
			count = 0
		}
		return putDocumentCount(main, count)
	})
	if err != nil {
		return stats, err
	}
	return stats, idx.loadMirrors()
}

// DeleteByFilter resolves filterExpr against the current universe and
// deletes every matching document.
func (idx *Index) DeleteByFilter(filterExpr string) (Stats, error) {
	ids, err := idx.externalIdsMatchingFilter(filterExpr)
	if err != nil {
		return Stats{}, err
	}
	return idx.DeleteByExternalIds(ids)
}

func (idx *Index) externalIdsMatchingFilter(filterExpr string) ([]string, error) {
	expr, err := parseFilterOrEmpty(filterExpr)
	if err != nil {
		return nil, err
	}
	var ids []string
	err = idx.env.View(func(tx kv.Tx) error {
		r := newResolver(idx, tx)
		matched, err := evalFilterExpr(expr, r)
		if err != nil {
			return err
		}
		if idx.primaryKey == "" {
			return nil
		}
		it := matched.Iterator()
		for it.HasNext() {
			docid := codec.DocumentId(it.Next())
			doc, err := idx.loadDocument(tx, docid)
			if err != nil {
				return err
			}
			if doc == nil {
				continue
			}
			if ext, ok := primaryKeyValueAsString(doc[idx.primaryKey]); ok {
				ids = append(ids, ext)
			}
		}
		return nil
	})
	return ids, err
}
