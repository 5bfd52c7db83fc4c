package index

import (
	"errors"
	"os"

	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/errs"
	"github.com/turbosearch/ftcore/internal/extract"
	"github.com/turbosearch/ftcore/internal/fields"
	"github.com/turbosearch/ftcore/internal/kv"
)

type commitResult struct {
	indexed int
	errors  []DocStat
}

// commit runs spec §4.3 steps 3-7 as a single write transaction: extract
// every prepared document into tuple streams, fold the streams through an
// etl.Collector per stream (spec §2 "external-sort pipeline ... merges
// them into the persistent databases"), apply the merges with
// bitmap.MergeOr, persist the document blob and facet values, and rebuild
// the affected facet trees.
func (idx *Index) commit(prepared []preparedDoc, method Method) (commitResult, error) {
	tmpDir, err := os.MkdirTemp(idx.env.Path(), "commit-*")
	if err != nil {
		return commitResult{}, err
	}
	defer os.RemoveAll(tmpDir)

	var result commitResult
	err = idx.env.Update(func(tx kv.Tx) error {
		main := tx.Bucket(codec.BucketMain)
		extIds := tx.Bucket(codec.BucketExternalDocumentsIds)
		docsBucket := tx.Bucket(codec.BucketDocuments)

		alloc := loadAllocator(main)
		local := idx.fieldsGlobal.LocalClone()
		tok := idx.tokenizer()
		streams := newCommitStreams()

		f64Deltas := map[codec.FieldId]map[float64]*bitmap.Bitmap{}
		stringDeltas := map[codec.FieldId]map[string]*bitmap.Bitmap{}

		geoSet, err := loadGeoFacetedDocids(main)
		if err != nil {
			return err
		}

		added := 0
		for i := range prepared {
			p := &prepared[i]
			_, existed := lookupExternalId(extIds, p.external)
			docid, err := idx.resolveDocid(tx, alloc, extIds, p, method, f64Deltas, stringDeltas, geoSet)
			if err != nil {
				var ferr *errs.Error
				if errors.As(err, &ferr) {
					result.errors = append(result.errors, DocStat{External: p.external, Err: ferr})
					continue
				}
				return err
			}
			if err := putExternalId(extIds, p.external, docid); err != nil {
				return err
			}

			if err := idx.storeDocument(docsBucket, local, docid, p.fields); err != nil {
				return err
			}

			if err := idx.storeEmbeddings(tx, local, docid, p.fields); err != nil {
				return err
			}

			if _, ok := geoPointFromDoc(p.fields); ok {
				geoSet.Add(uint32(docid))
			}

			fieldTexts := map[codec.FieldId]string{}
			for _, lf := range p.leaves {
				if lf.path == "" {
					continue
				}
				if len(idx.settings.SearchableFields) > 0 && !contains(idx.settings.SearchableFields, lf.path) {
					continue
				}
				if lf.text == "" {
					continue
				}
				fid, err := idx.fieldsGlobal.IDOrInsert(local, lf.path)
				if err != nil {
					return err
				}
				if existing, ok := fieldTexts[fid]; ok {
					fieldTexts[fid] = existing + " " + lf.text
				} else {
					fieldTexts[fid] = lf.text
				}
			}
			if err := extract.Extract(extract.Document{Docid: docid, Fields: fieldTexts}, tok, idx.fieldsGlobal, local, streams); err != nil {
				return err
			}

			for _, lf := range p.leaves {
				if lf.path == "" {
					continue
				}
				isFilterable := contains(idx.settings.FilterableFields, lf.path)
				isSortable := contains(idx.settings.SortableFields, lf.path)
				if !isFilterable && !isSortable {
					continue
				}
				fid, err := idx.fieldsGlobal.IDOrInsert(local, lf.path)
				if err != nil {
					return err
				}
				if lf.isNum {
					if err := tx.Bucket(codec.BucketFieldIdDocidFacetF64).Put(
						codec.FieldIdDocidFacetF64Key(fid, docid, lf.num), []byte{1}); err != nil {
						return err
					}
					m := f64Deltas[fid]
					if m == nil {
						m = map[float64]*bitmap.Bitmap{}
						f64Deltas[fid] = m
					}
					bm, ok := m[lf.num]
					if !ok {
						bm = bitmap.New()
						m[lf.num] = bm
					}
					bm.Add(uint32(docid))
				} else if lf.isStr {
					if err := tx.Bucket(codec.BucketFieldIdDocidFacetString).Put(
						codec.FieldIdDocidFacetStringKey(fid, docid, lf.strVal), []byte{1}); err != nil {
						return err
					}
					m := stringDeltas[fid]
					if m == nil {
						m = map[string]*bitmap.Bitmap{}
						stringDeltas[fid] = m
					}
					bm, ok := m[lf.strVal]
					if !ok {
						bm = bitmap.New()
						m[lf.strVal] = bm
					}
					bm.Add(uint32(docid))
				}
			}

			result.indexed++
			if !existed {
				added++
			}
		}

		if err := mergeWordStreams(tx, tmpDir, streams); err != nil {
			return err
		}

		for fid, deltas := range f64Deltas {
			idx.log.Debug().Bool("bulk", shouldRebuildBulk(len(prepared), idx.documentCount(main))).
				Uint16("fid", uint16(fid)).Msg("rebuilding f64 facet tree")
			if err := rebuildF64Facet(tx, fid, deltas); err != nil {
				return err
			}
		}
		for fid, deltas := range stringDeltas {
			if err := rebuildStringFacet(tx, fid, deltas); err != nil {
				return err
			}
		}

		snapshot := idx.fieldsGlobal.Snapshot()
		encoded, err := fields.Encode(snapshot)
		if err != nil {
			return err
		}
		if err := main.Put([]byte(codec.MainKeyFieldsIdsMap), encoded); err != nil {
			return err
		}

		if err := alloc.persist(main); err != nil {
			return err
		}

		if err := putGeoFacetedDocids(main, geoSet); err != nil {
			return err
		}

		count := idx.documentCount(main) + added
		return putDocumentCount(main, count)
	})
	if err != nil {
		return commitResult{}, err
	}

	if err := idx.loadMirrors(); err != nil {
		return commitResult{}, err
	}
	return result, nil
}

func (idx *Index) resolveDocid(
	tx kv.Tx, alloc *docidAllocator, extIds kv.Bucket, p *preparedDoc, method Method,
	f64Deltas map[codec.FieldId]map[float64]*bitmap.Bitmap, stringDeltas map[codec.FieldId]map[string]*bitmap.Bitmap,
	geoSet *bitmap.Bitmap,
) (codec.DocumentId, error) {
	existing, ok := lookupExternalId(extIds, p.external)
	if !ok {
		return alloc.allocate(), nil
	}

	if method == UpdateDocuments {
		merged, err := idx.mergeWithStored(tx, existing, p.fields)
		if err != nil {
			return 0, err
		}
		p.fields = merged
		leaves, err := flattenDocument(merged)
		if err != nil {
			return 0, err
		}
		p.leaves = leaves
	}

	touchedF64, touchedStr, err := idx.retractDocument(tx, existing, geoSet)
	if err != nil {
		return 0, err
	}
	for _, fid := range touchedF64 {
		if _, ok := f64Deltas[fid]; !ok {
			f64Deltas[fid] = map[float64]*bitmap.Bitmap{}
		}
	}
	for _, fid := range touchedStr {
		if _, ok := stringDeltas[fid]; !ok {
			stringDeltas[fid] = map[string]*bitmap.Bitmap{}
		}
	}
	return existing, nil
}

func (idx *Index) mergeWithStored(tx kv.Tx, docid codec.DocumentId, incoming map[string]interface{}) (map[string]interface{}, error) {
	prior, err := idx.loadDocument(tx, docid)
	if err != nil {
		return nil, err
	}
	if prior == nil {
		prior = map[string]interface{}{}
	}
	for k, v := range incoming {
		prior[k] = v
	}
	return prior, nil
}

func (idx *Index) documentCount(main kv.Bucket) int {
	raw := main.Get([]byte(codec.MainKeyNumberOfDocuments))
	if len(raw) != 8 {
		return 0
	}
	var n int
	for i := 0; i < 8; i++ {
		n = n<<8 | int(raw[i])
	}
	return n
}

func putDocumentCount(main kv.Bucket, n int) error {
	var buf [8]byte
	v := n
	for i := 7; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return main.Put([]byte(codec.MainKeyNumberOfDocuments), buf[:])
}

