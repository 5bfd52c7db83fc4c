package index

import (
	json "github.com/goccy/go-json"

	"github.com/turbosearch/ftcore/internal/errs"
)

// Method selects how add_documents reconciles an incoming document against
// one already stored under the same external id (spec §6 "add_documents(
// stream_of_json_objects, method ∈ {ReplaceDocuments, UpdateDocuments},
// primary_key?)").
type Method int

const (
	// ReplaceDocuments discards the previous document entirely.
	ReplaceDocuments Method = iota
	// UpdateDocuments shallow-merges incoming top-level fields onto the
	// previous document, leaving untouched fields as they were.
	UpdateDocuments
)

// DocStat reports the per-document outcome of one add_documents call
// (spec §4.3 "Failure semantics: ... per-document in a stats vector
// without aborting the whole batch").
type DocStat struct {
	External string
	Err      *errs.Error
}

// Stats summarizes one add_documents/delete call.
type Stats struct {
	Indexed int
	Errors  []DocStat
}

// AddDocuments runs one insertion/update batch as a single write
// transaction (spec §4.3 step 1-7). Per-document errors are collected in
// Stats.Errors; the transaction still commits whatever documents were
// valid, unless a fatal (non-per-document) error occurs, in which case the
// whole transaction is rolled back and no partial writes are observable.
func (idx *Index) AddDocuments(docs []map[string]interface{}, method Method, primaryKeyHint string) (Stats, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	pkName, err := idx.resolvePrimaryKeyName(docs, primaryKeyHint)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	var prepared []preparedDoc
	for _, doc := range docs {
		p, err := idx.prepareDocument(doc, pkName)
		if err != nil {
			if ferr, ok := err.(*errs.Error); ok {
				ext, _ := primaryKeyValueAsString(doc[pkName])
				stats.Errors = append(stats.Errors, DocStat{External: ext, Err: ferr})
				continue
			}
			return stats, err
		}
		prepared = append(prepared, p)
	}

	if len(prepared) == 0 {
		return stats, nil
	}

	result, err := idx.commit(prepared, method)
	if err != nil {
		return stats, err
	}
	stats.Indexed = result.indexed
	stats.Errors = append(stats.Errors, result.errors...)

	idx.primaryKey = pkName
	return stats, nil
}

// preparedDoc is one validated, not-yet-committed document.
type preparedDoc struct {
	external string
	fields   map[string]interface{}
	leaves   []leaf
}

func (idx *Index) resolvePrimaryKeyName(docs []map[string]interface{}, hint string) (string, error) {
	if idx.primaryKey != "" {
		if hint != "" {
			if err := idx.checkPrimaryKeyUnchanged(hint); err != nil {
				return "", err
			}
		}
		return idx.primaryKey, nil
	}
	if hint != "" {
		return hint, nil
	}
	if len(docs) == 0 {
		return "", errs.UserInput(errs.CodeNoPrimaryKeyCandidate, errPrimaryKeyNoDocuments)
	}
	return inferPrimaryKey(docs[0])
}

func (idx *Index) prepareDocument(doc map[string]interface{}, pkName string) (preparedDoc, error) {
	rawPk, ok := doc[pkName]
	if !ok {
		return preparedDoc{}, errs.WithField(errs.KindUserInput, errs.CodeMissingPrimaryKey, pkName, errPrimaryKeyMissing)
	}
	external, ok := primaryKeyValueAsString(rawPk)
	if !ok {
		return preparedDoc{}, errs.WithField(errs.KindUserInput, errs.CodeMalformedDocument, pkName, errPrimaryKeyType)
	}

	leaves, err := flattenDocument(doc)
	if err != nil {
		return preparedDoc{}, errs.UserInput(errs.CodeMalformedDocument, err)
	}

	return preparedDoc{external: external, fields: doc, leaves: leaves}, nil
}

func marshalField(v interface{}) ([]byte, error) { return json.Marshal(v) }
