package index

import (
	"fmt"

	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/errs"
	"github.com/turbosearch/ftcore/internal/facet"
	"github.com/turbosearch/ftcore/internal/filter"
	"github.com/turbosearch/ftcore/internal/geo"
	"github.com/turbosearch/ftcore/internal/kv"
)

// resolver implements filter.Resolver against one read transaction,
// keeping internal/filter free of any dependency on internal/index or
// internal/kv (spec §9's import-cycle note).
type resolver struct {
	idx *Index
	tx  kv.Tx
}

func newResolver(idx *Index, tx kv.Tx) *resolver { return &resolver{idx: idx, tx: tx} }

func parseFilterOrEmpty(src string) (*filter.Expr, error) {
	if src == "" {
		return nil, nil
	}
	expr, err := filter.Parse(src)
	if err != nil {
		return nil, errs.UserInput(errs.CodeInvalidFilter, fmt.Errorf("filter: %w", err))
	}
	return expr, nil
}

func evalFilterExpr(expr *filter.Expr, r filter.Resolver) (*bitmap.Bitmap, error) {
	if expr == nil {
		return r.Universe(), nil
	}
	return filter.Eval(expr, r)
}

func (r *resolver) IsFilterable(field string) bool {
	return contains(r.idx.settings.FilterableFields, field) || contains(r.idx.settings.SortableFields, field)
}

func (r *resolver) fieldId(field string) (codec.FieldId, bool) {
	return r.idx.fieldsGlobal.Snapshot().ID(field)
}

func (r *resolver) Eq(field string, value filter.Value) (*bitmap.Bitmap, error) {
	fid, ok := r.fieldId(field)
	if !ok {
		return bitmap.New(), nil
	}
	if value.Number != nil {
		return r.f64GroupAt(fid, *value.Number), nil
	}
	s := valueString(value)
	return r.stringGroupAt(fid, s), nil
}

func (r *resolver) Neq(field string, value filter.Value) (*bitmap.Bitmap, error) {
	eq, err := r.Eq(field, value)
	if err != nil {
		return nil, err
	}
	universe := r.Universe()
	universe.AndNot(eq)
	return universe, nil
}

func (r *resolver) Range(field, op string, value filter.Value) (*bitmap.Bitmap, error) {
	fid, ok := r.fieldId(field)
	if !ok {
		return bitmap.New(), nil
	}
	if value.Number == nil {
		return nil, errs.WithField(errs.KindUserInput, errs.CodeInvalidFilter, field,
			fmt.Errorf("filter: %s requires a numeric value", op))
	}
	v := *value.Number
	acc := bitmap.New()
	r.scanF64(fid, func(val float64, docids *bitmap.Bitmap) {
		match := false
		switch op {
		case ">":
			match = val > v
		case ">=":
			match = val >= v
		case "<":
			match = val < v
		case "<=":
			match = val <= v
		}
		if match {
			acc.Or(docids)
		}
	})
	return acc, nil
}

func (r *resolver) Between(field string, lo, hi filter.Value) (*bitmap.Bitmap, error) {
	if lo.Number == nil || hi.Number == nil {
		return nil, errs.WithField(errs.KindUserInput, errs.CodeInvalidFilter, field,
			fmt.Errorf("filter: TO requires numeric bounds"))
	}
	fid, ok := r.fieldId(field)
	if !ok {
		return bitmap.New(), nil
	}
	acc := bitmap.New()
	r.scanF64(fid, func(val float64, docids *bitmap.Bitmap) {
		if val >= *lo.Number && val <= *hi.Number {
			acc.Or(docids)
		}
	})
	return acc, nil
}

func (r *resolver) Exists(field string, negate bool) (*bitmap.Bitmap, error) {
	fid, ok := r.fieldId(field)
	if !ok {
		if negate {
			return r.Universe(), nil
		}
		return bitmap.New(), nil
	}
	acc := bitmap.New()
	r.scanF64(fid, func(_ float64, docids *bitmap.Bitmap) { acc.Or(docids) })
	r.scanString(fid, func(_ string, docids *bitmap.Bitmap) { acc.Or(docids) })
	if negate {
		universe := r.Universe()
		universe.AndNot(acc)
		return universe, nil
	}
	return acc, nil
}

func (r *resolver) GeoWithinRadius(center geo.Point, radiusMeters float64) (*bitmap.Bitmap, error) {
	acc := bitmap.New()
	candidates, err := r.geoCandidates()
	if err != nil {
		return nil, err
	}
	it := candidates.Iterator()
	for it.HasNext() {
		docid := codec.DocumentId(it.Next())
		p, ok := r.idx.docGeoPoint(r.tx, docid)
		if !ok {
			continue
		}
		if geo.InRadius(p, center, radiusMeters) {
			acc.Add(uint32(docid))
		}
	}
	return acc, nil
}

func (r *resolver) GeoWithinBox(box geo.BoundingBox) (*bitmap.Bitmap, error) {
	acc := bitmap.New()
	candidates, err := r.geoCandidates()
	if err != nil {
		return nil, err
	}
	it := candidates.Iterator()
	for it.HasNext() {
		docid := codec.DocumentId(it.Next())
		p, ok := r.idx.docGeoPoint(r.tx, docid)
		if !ok {
			continue
		}
		if box.Contains(p) {
			acc.Add(uint32(docid))
		}
	}
	return acc, nil
}

// geoCandidates narrows the scan in GeoWithinRadius/GeoWithinBox to docids
// known to carry a "_geo" field (main bucket key
// codec.MainKeyGeoFacetedDocids, maintained by commit/retract), instead of
// loading and JSON-decoding every live document.
func (r *resolver) geoCandidates() (*bitmap.Bitmap, error) {
	geoSet, err := loadGeoFacetedDocids(r.tx.Bucket(codec.BucketMain))
	if err != nil {
		return nil, err
	}
	geoSet.And(r.Universe())
	return geoSet, nil
}

// loadGeoFacetedDocids reads the persisted set of docids carrying a valid
// "_geo" field.
func loadGeoFacetedDocids(main kv.Bucket) (*bitmap.Bitmap, error) {
	raw := main.Get([]byte(codec.MainKeyGeoFacetedDocids))
	if raw == nil {
		return bitmap.New(), nil
	}
	return bitmap.Decode(raw)
}

// putGeoFacetedDocids persists the updated geo-faceted docid set.
func putGeoFacetedDocids(main kv.Bucket, bm *bitmap.Bitmap) error {
	enc, err := bitmap.Encode(bm)
	if err != nil {
		return err
	}
	return main.Put([]byte(codec.MainKeyGeoFacetedDocids), enc)
}

func (r *resolver) Universe() *bitmap.Bitmap {
	acc := bitmap.New()
	c := r.tx.Bucket(codec.BucketExternalDocumentsIds).Cursor()
	for _, v := c.First(); v != nil; _, v = c.Next() {
		acc.Add(uint32(codec.DecodeDocumentId(v)))
	}
	return acc
}

// docGeoPoint reads the reserved "_geo" field of docid's stored document
// (spec §6 "_geoRadius/_geoBoundingBox predicates operate on a _geo field
// holding {lat, lng}").
func (idx *Index) docGeoPoint(tx kv.Tx, docid codec.DocumentId) (geo.Point, bool) {
	doc, err := idx.loadDocument(tx, docid)
	if err != nil || doc == nil {
		return geo.Point{}, false
	}
	return geoPointFromDoc(doc)
}

// geoPointFromDoc extracts {lat, lng} from a document's "_geo" field, if
// present and well-formed.
func geoPointFromDoc(doc map[string]interface{}) (geo.Point, bool) {
	raw, ok := doc["_geo"]
	if !ok {
		return geo.Point{}, false
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return geo.Point{}, false
	}
	lat, okLat := m["lat"].(float64)
	lng, okLng := m["lng"].(float64)
	if !okLat || !okLng {
		return geo.Point{}, false
	}
	return geo.Point{Lat: lat, Lng: lng}, true
}

func (r *resolver) f64GroupAt(fid codec.FieldId, value float64) *bitmap.Bitmap {
	acc := bitmap.New()
	r.scanF64(fid, func(val float64, docids *bitmap.Bitmap) {
		if val == value {
			acc.Or(docids)
		}
	})
	return acc
}

func (r *resolver) stringGroupAt(fid codec.FieldId, value string) *bitmap.Bitmap {
	acc := bitmap.New()
	r.scanString(fid, func(val string, docids *bitmap.Bitmap) {
		if val == value {
			acc.Or(docids)
		}
	})
	return acc
}

// scanF64 walks level 0 of fid's facet tree (spec §4.1's facet-id-f64-docids
// level-0 rows are single-value groups), calling fn once per distinct
// value.
func (r *resolver) scanF64(fid codec.FieldId, fn func(value float64, docids *bitmap.Bitmap)) {
	bucket := r.tx.Bucket(codec.BucketFacetIdF64Docids)
	prefix := codec.FacetF64Prefix(fid, 0)
	c := bucket.Cursor()
	for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
		var left [8]byte
		copy(left[:], k[3:11])
		value := codec.DecodeF64Ordered(left)
		bm, _, err := facet.DecodeGroup(v)
		if err != nil {
			continue
		}
		fn(value, bm)
	}
}

func (r *resolver) scanString(fid codec.FieldId, fn func(value string, docids *bitmap.Bitmap)) {
	bucket := r.tx.Bucket(codec.BucketFacetIdStringDocids)
	prefix := codec.FacetStringKey(fid, 0, "")
	c := bucket.Cursor()
	for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
		value := string(k[3:])
		bm, _, err := facet.DecodeGroup(v)
		if err != nil {
			continue
		}
		fn(value, bm)
	}
}

func valueString(v filter.Value) string {
	switch {
	case v.Str != nil:
		return *v.Str
	case v.Word != nil:
		return *v.Word
	default:
		return ""
	}
}
