package index

import (
	json "github.com/goccy/go-json"

	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/kv"
	"github.com/turbosearch/ftcore/internal/querygraph"
)

// TypoTolerance configures spec §4.4's per-length typo thresholds (spec
// §6 "typo_tolerance params").
type TypoTolerance struct {
	Disabled            bool `json:"disabled"`
	MinWordLenOneTypo   int  `json:"min_word_len_one_typo"`
	MinWordLenTwoTypos  int  `json:"min_word_len_two_typos"`
}

// EmbedderSettings names one configured embedder and its fixed dimension
// (spec §3 "Embedding").
type EmbedderSettings struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
}

// Settings is the atomically-updated configuration spec §6 describes:
// "Settings update: atomically configures searchable_fields,
// displayed_fields, filterable_fields, sortable_fields, distinct_field,
// stop_words, synonyms, ranking_rules, typo_tolerance params, embedders,
// and prefix_search threshold."
type Settings struct {
	SearchableFields []string            `json:"searchable_fields"`
	DisplayedFields  []string            `json:"displayed_fields"`
	FilterableFields []string            `json:"filterable_fields"`
	SortableFields   []string            `json:"sortable_fields"`
	DistinctField    string              `json:"distinct_field"`
	StopWords        []string            `json:"stop_words"`
	Synonyms         map[string][]string `json:"synonyms"`
	RankingRules     []string            `json:"ranking_rules"`
	TypoTolerance    TypoTolerance        `json:"typo_tolerance"`
	Embedders        []EmbedderSettings  `json:"embedders"`
	PrefixSearchThreshold int            `json:"prefix_search_threshold"`
	FieldWeights     map[string]int      `json:"field_weights"`
}

// DefaultRankingRules is the default rule activation order (spec §4.5
// "Rule catalogue ... activation order is a persisted list; default
// shown").
var DefaultRankingRules = []string{
	"words", "typo", "proximity", "attribute", "exactness", "sort",
}

// DefaultSettings returns the configuration a freshly created index
// starts with.
func DefaultSettings() Settings {
	return Settings{
		RankingRules:          append([]string(nil), DefaultRankingRules...),
		TypoTolerance:         TypoTolerance{MinWordLenOneTypo: 5, MinWordLenTwoTypos: 9},
		PrefixSearchThreshold: 100,
	}
}

// matchingStrategy parses a query's matching strategy name into
// querygraph's enum; unrecognized values fall back to All.
func (s Settings) matchingStrategy(name string) querygraph.MatchingStrategy {
	switch name {
	case "last":
		return querygraph.Last
	case "frequency":
		return querygraph.Frequency
	default:
		return querygraph.All
	}
}

func encodeSettings(s Settings) ([]byte, error) { return json.Marshal(s) }

func decodeSettings(b []byte) (Settings, error) {
	var s Settings
	if len(b) == 0 {
		return DefaultSettings(), nil
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// UpdateSettings persists new settings and refreshes the in-memory mirror
// (spec §6 "Settings update: atomically configures ..."). Word/prefix
// dictionaries and FieldIds are untouched; they are rebuilt lazily as new
// documents are indexed, not retroactively against existing ones.
func (idx *Index) UpdateSettings(s Settings) error {
	encoded, err := encodeSettings(s)
	if err != nil {
		return err
	}
	if err := idx.env.Update(func(tx kv.Tx) error {
		return tx.Bucket(codec.BucketMain).Put([]byte(codec.MainKeySettings), encoded)
	}); err != nil {
		return err
	}
	idx.mu.Lock()
	idx.settings = s
	idx.mu.Unlock()
	return nil
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
