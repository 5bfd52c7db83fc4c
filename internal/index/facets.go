package index

import (
	"strconv"

	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/kv"
)

// FacetDistribution counts, for each requested filterable field, how many
// of the docids in within hold each distinct facet value (spec §6 "facets"
// param: "per-field value -> count map restricted to the query's matched
// set"). Only fields present in Settings.FilterableFields are honored;
// others are silently skipped, mirroring add_documents' tolerance of
// unknown settings keys elsewhere in this package.
func (idx *Index) FacetDistribution(within *bitmap.Bitmap, fields []string) (map[string]map[string]int, error) {
	var out map[string]map[string]int
	err := idx.env.View(func(tx kv.Tx) error {
		out = facetDistributionTx(idx, tx, within, fields)
		return nil
	})
	return out, err
}

func facetDistributionTx(idx *Index, tx kv.Tx, within *bitmap.Bitmap, fields []string) map[string]map[string]int {
	res := newResolver(idx, tx)
	out := map[string]map[string]int{}
	for _, name := range fields {
		if !contains(idx.settings.FilterableFields, name) {
			continue
		}
		fid, ok := idx.fieldsGlobal.Snapshot().ID(name)
		if !ok {
			continue
		}
		counts := map[string]int{}
		res.scanF64(fid, func(value float64, docids *bitmap.Bitmap) {
			if n := intersectCount(docids, within); n > 0 {
				counts[strconv.FormatFloat(value, 'g', -1, 64)] = n
			}
		})
		res.scanString(fid, func(value string, docids *bitmap.Bitmap) {
			if n := intersectCount(docids, within); n > 0 {
				counts[value] = n
			}
		})
		if len(counts) > 0 {
			out[name] = counts
		}
	}
	return out
}

func intersectCount(a, b *bitmap.Bitmap) int {
	if a == nil || b == nil {
		return 0
	}
	inter := bitmap.Intersect(a, b)
	if inter == nil {
		return 0
	}
	return int(inter.Cardinality())
}
