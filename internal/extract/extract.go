// Package extract implements spec §4.3 step 3: turning one changed
// document into the sorted tuple streams the indexer merges into the
// persistent databases. Each Extract call handles one document;
// internal/index calls it sequentially for every document of a batch, with
// no worker pool. Generalized from the teacher's per-block
// extraction loop in eth/stagedsync/stage_log_index.go (promoteLogIndex),
// which builds exactly this shape of (term -> bitmap) map for topics and
// addresses, one block at a time.
package extract

import (
	"sort"

	"github.com/turbosearch/ftcore/internal/bitmap"
	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/fields"
	"github.com/turbosearch/ftcore/internal/tokenize"
)

// MaxProximity caps word-pair proximity at 8 (the original implementation's
// cap; see SPEC_FULL.md "Supplemented features") — pairs further apart in
// the same attribute are not linked at all.
const MaxProximity = 8

// Document is one document's extraction input: its assigned internal id
// and its searchable leaf field values, already resolved to FieldIds.
type Document struct {
	Docid  codec.DocumentId
	Fields map[codec.FieldId]string // leaf field path -> raw text value
}

// Streams accumulates every tuple stream produced for one batch of
// documents, keyed exactly as spec §4.1 describes. Bitmaps here are kept
// per-key in memory; internal/index merges inserted streams into the
// databases through internal/etl Collectors and subtracts retracted
// streams from them directly.
type Streams struct {
	WordDocids              map[string]*bitmap.Bitmap
	ExactWordDocids         map[string]*bitmap.Bitmap
	WordFidDocids           map[string]*bitmap.Bitmap // codec.WordFidDocidsKey, stringified
	WordPositionDocids      map[string]*bitmap.Bitmap // codec.WordPositionDocidsKey, stringified
	WordPairProximityDocids map[string]*bitmap.Bitmap // codec.WordPairProximityDocidsKey, stringified
	FieldIdWordCountDocids  map[string]*bitmap.Bitmap // codec.FieldIdWordCountDocidsKey, stringified
}

// NewStreams returns an empty Streams ready for repeated Extract calls
// across a batch of documents.
func NewStreams() *Streams { return newStreams() }

func newStreams() *Streams {
	return &Streams{
		WordDocids:              map[string]*bitmap.Bitmap{},
		ExactWordDocids:         map[string]*bitmap.Bitmap{},
		WordFidDocids:           map[string]*bitmap.Bitmap{},
		WordPositionDocids:      map[string]*bitmap.Bitmap{},
		WordPairProximityDocids: map[string]*bitmap.Bitmap{},
		FieldIdWordCountDocids:  map[string]*bitmap.Bitmap{},
	}
}

func (s *Streams) add(m map[string]*bitmap.Bitmap, key []byte, docid codec.DocumentId) {
	k := string(key)
	bm, ok := m[k]
	if !ok {
		bm = bitmap.New()
		m[k] = bm
	}
	bm.Add(uint32(docid))
}

// Extract tokenizes every searchable field of doc and appends to s.
// doc.Fields is already keyed by resolved FieldIds; global and local are
// not used.
func Extract(doc Document, tok *tokenize.Tokenizer, global *fields.Global, local *fields.Map, s *Streams) error {
	// sort field ids for determinism of field-word-count clamping and
	// proximity pairing order; map iteration order is not stable in Go.
	fids := make([]codec.FieldId, 0, len(doc.Fields))
	for fid := range doc.Fields {
		fids = append(fids, fid)
	}
	sort.Slice(fids, func(i, j int) bool { return fids[i] < fids[j] })

	for _, fid := range fids {
		text := doc.Fields[fid]
		tokens := tok.Tokenize(text)
		if len(tokens) == 0 {
			continue
		}
		count := clampCount(len(tokens))

		seen := map[string]bool{}
		for _, t := range tokens {
			pos := codec.ClampPosition(t.Position)
			s.add(s.WordDocids, codec.WordDocidsKey(t.Word), doc.Docid)
			s.add(s.ExactWordDocids, codec.WordDocidsKey(t.Word), doc.Docid)
			s.add(s.WordFidDocids, codec.WordFidDocidsKey(t.Word, fid), doc.Docid)
			s.add(s.WordPositionDocids, codec.WordPositionDocidsKey(t.Word, pos), doc.Docid)
			if !seen[t.Word] {
				s.add(s.FieldIdWordCountDocids, codec.FieldIdWordCountDocidsKey(fid, count, t.Word), doc.Docid)
				seen[t.Word] = true
			}
		}

		for i := 0; i < len(tokens); i++ {
			for j := i + 1; j < len(tokens); j++ {
				dist := int(tokens[j].Position) - int(tokens[i].Position)
				if dist > MaxProximity {
					break
				}
				if dist <= 0 {
					continue
				}
				if tokens[i].Word == tokens[j].Word {
					continue
				}
				key := codec.WordPairProximityDocidsKey(uint8(dist), tokens[i].Word, tokens[j].Word)
				s.add(s.WordPairProximityDocids, key, doc.Docid)
			}
		}
	}
	return nil
}

func clampCount(n int) uint8 {
	if n > 255 {
		return 255
	}
	return uint8(n)
}
