// Package ftcore is the top-level entry point: Open/Close an index
// directory, add/delete/search documents, and read/update settings (spec
// §6's public operation list).
package ftcore

import (
	"github.com/turbosearch/ftcore/internal/index"
	"github.com/turbosearch/ftcore/internal/kv"
)

// Options mirrors internal/kv.Options: the caller never needs to import
// the storage package directly to open an index (spec §6 "open(path,
// options) -> Index where options fix the maximum map size and number of
// named sub-databases").
type Options = kv.Options

// DefaultOptions returns the defaults a freshly opened index uses if the
// caller doesn't override them.
func DefaultOptions() Options { return kv.DefaultOptions() }

// Settings is the atomically-updated per-index configuration (spec §6
// "Settings update").
type Settings = index.Settings

// DefaultSettings returns the configuration a freshly created index
// starts with.
func DefaultSettings() Settings { return index.DefaultSettings() }

// TypoTolerance configures per-length typo thresholds.
type TypoTolerance = index.TypoTolerance

// EmbedderSettings names one configured embedder and its fixed dimension.
type EmbedderSettings = index.EmbedderSettings

// Method selects how AddDocuments reconciles a document against one
// already stored under the same external id.
type Method = index.Method

const (
	ReplaceDocuments = index.ReplaceDocuments
	UpdateDocuments  = index.UpdateDocuments
)

// DocStat and Stats report the per-document and per-batch outcome of a
// write operation (spec §4.3 "Failure semantics").
type DocStat = index.DocStat
type Stats = index.Stats

// Query and Result are re-exported so callers of Index.Search don't need
// to import internal/index directly; see internal/index/search.go for
// the full field-by-field mapping to spec §6's query shape.
type Query = index.Query
type Result = index.Result
type Hit = index.Hit
type SortCriterion = index.SortCriterion
type GeoSortCriterion = index.GeoSortCriterion
type VectorCriterion = index.VectorCriterion

// Index is one open, on-disk full-text search index.
type Index struct {
	core *index.Index
}

// Open creates (if absent) or opens the index directory at path (spec §6
// "Open/create index: open(path, options) -> Index. Creating on an empty
// directory initializes an empty index."). name identifies the index for
// structured logging when multiple indexes share one process.
func Open(path string, opts Options, name string) (*Index, error) {
	core, err := index.Open(path, opts, name)
	if err != nil {
		return nil, err
	}
	return &Index{core: core}, nil
}

// Close releases the index's file lock and backing mmap.
func (ix *Index) Close() error { return ix.core.Close() }

// Compact rewrites the on-disk store to reclaim free pages left by prior
// writes (spec §6 lifecycle "compact").
func (ix *Index) Compact() error { return ix.core.Compact() }

// Settings returns a copy of the index's current configuration.
func (ix *Index) Settings() Settings { return ix.core.Settings() }

// UpdateSettings atomically replaces the index's configuration.
func (ix *Index) UpdateSettings(s Settings) error { return ix.core.UpdateSettings(s) }

// AddDocuments indexes docs using method, inferring or validating the
// primary key against primaryKeyHint (spec §4.3 "Insertion/Update").
func (ix *Index) AddDocuments(docs []map[string]interface{}, method Method, primaryKeyHint string) (Stats, error) {
	return ix.core.AddDocuments(docs, method, primaryKeyHint)
}

// DeleteByExternalIds removes the named documents (spec §4.3 "Deletion").
func (ix *Index) DeleteByExternalIds(externalIds []string) (Stats, error) {
	return ix.core.DeleteByExternalIds(externalIds)
}

// DeleteByFilter removes every document matching filterExpr (spec §6's
// filter grammar, shared with Search).
func (ix *Index) DeleteByFilter(filterExpr string) (Stats, error) {
	return ix.core.DeleteByFilter(filterExpr)
}

// Search runs one query end to end: tokenize, build the query graph,
// resolve the ranking-rule bucket sort, apply distinct, and format hits
// (spec §4.4-§4.7, §6).
func (ix *Index) Search(q Query) (Result, error) { return ix.core.Search(q) }
