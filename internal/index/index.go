// Package index is the central orchestrator: it wires codec, kv, bitmap,
// fields, dict, tokenize, etl, extract, facet, and filter into the
// write path (spec §4.3) and read path (spec §4.4/§4.5) of one index
// directory, and implements the Resolver/Index seams internal/filter
// and internal/rank expose so neither of those packages needs to import
// this one.
package index

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/dict"
	"github.com/turbosearch/ftcore/internal/errs"
	"github.com/turbosearch/ftcore/internal/fields"
	"github.com/turbosearch/ftcore/internal/kv"
	"github.com/turbosearch/ftcore/internal/logging"
	"github.com/turbosearch/ftcore/internal/tokenize"
	"github.com/turbosearch/ftcore/internal/version"
)

// Index owns one on-disk store: the kv.Env, the in-memory mirrors
// rebuilt on Open and refreshed after every commit (FieldIds map, word
// dictionary, settings), and the free-docid pool.
type Index struct {
	mu       sync.RWMutex // guards the in-memory mirrors below, not env (kv.Env serializes writers itself)
	env      *kv.Env
	name     string
	log      zerolog.Logger
	settings Settings

	fieldsGlobal *fields.Global
	wordDict     *dict.Dict
	prefixDict   *dict.Dict
	primaryKey   string
}

// Open creates or opens the index directory at path (spec §6 "open(path,
// options) -> Index. Creating on an empty directory initializes an
// empty index.").
func Open(path string, opts kv.Options, name string) (*Index, error) {
	env, err := kv.Open(path, opts)
	if err != nil {
		return nil, err
	}
	if err := version.Upgrade(env, path); err != nil {
		env.Close()
		return nil, err
	}

	idx := &Index{env: env, name: name, log: logging.WithIndex(logging.For("index"), name)}
	if err := idx.loadMirrors(); err != nil {
		env.Close()
		return nil, err
	}
	return idx, nil
}

// Close releases the env's file lock and mmap.
func (idx *Index) Close() error { return idx.env.Close() }

// Compact rewrites the on-disk store to reclaim free pages (spec §6
// lifecycle "compact"; spec S5 "Compaction is a no-op on query
// semantics"). Must not run concurrently with a write batch.
func (idx *Index) Compact() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.env.Compact()
}

// Settings returns a copy of the current settings.
func (idx *Index) Settings() Settings {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.settings
}

func (idx *Index) loadMirrors() error {
	return idx.env.View(func(tx kv.Tx) error {
		main := tx.Bucket(codec.BucketMain)

		if raw := main.Get([]byte(codec.MainKeySettings)); raw != nil {
			s, err := decodeSettings(raw)
			if err != nil {
				return errs.IndexState(errs.CodeVersionMismatch, fmt.Errorf("index: decode settings: %w", err))
			}
			idx.settings = s
		} else {
			idx.settings = DefaultSettings()
		}

		if raw := main.Get([]byte(codec.MainKeyPrimaryKey)); raw != nil {
			idx.primaryKey = string(raw)
		}

		fm := fields.NewMap()
		if raw := main.Get([]byte(codec.MainKeyFieldsIdsMap)); raw != nil {
			decoded, err := fields.Decode(raw)
			if err != nil {
				return errs.IndexState(errs.CodeCorruptFST, fmt.Errorf("index: decode fields map: %w", err))
			}
			fm = decoded
		}
		idx.fieldsGlobal = fields.NewGlobal(fm)

		words, err := collectWords(tx, codec.BucketWordDocids)
		if err != nil {
			return err
		}
		idx.wordDict = dict.Build(words)

		prefixes, err := collectWords(tx, codec.BucketWordPrefixDocids)
		if err != nil {
			return err
		}
		idx.prefixDict = dict.Build(prefixes)
		return nil
	})
}

func collectWords(tx kv.Tx, bucket string) ([]string, error) {
	var words []string
	c := tx.Bucket(bucket).Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		words = append(words, string(k))
	}
	return words, nil
}

func (idx *Index) tokenizer() *tokenize.Tokenizer {
	return tokenize.New(idx.settings.StopWords)
}
