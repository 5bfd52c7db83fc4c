package index

import (
	"fmt"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"
)

// leaf is one flattened (dotted-path) scalar or array-of-scalars value
// pulled out of a document's nested JSON object (spec §3 "documents are
// flattened to dotted field paths for indexing").
type leaf struct {
	path   string
	text   string    // concatenated textual form, fed to the tokenizer
	isNum  bool
	num    float64
	strVal string // single string value, for string-facet storage
	isStr  bool
}

// flattenDocument walks doc (already json.Unmarshal'd into a generic
// map[string]interface{}) and returns every leaf path in sorted order.
func flattenDocument(doc map[string]interface{}) ([]leaf, error) {
	var out []leaf
	if err := flattenValue("", doc, &out); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out, nil
}

func flattenValue(prefix string, v interface{}, out *[]leaf) error {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, child := range val {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			if err := flattenValue(path, child, out); err != nil {
				return err
			}
		}
	case []interface{}:
		var texts []string
		for _, elem := range val {
			switch e := elem.(type) {
			case string:
				texts = append(texts, e)
			case float64:
				texts = append(texts, strconv.FormatFloat(e, 'g', -1, 64))
			case bool:
				texts = append(texts, strconv.FormatBool(e))
			default:
				b, _ := json.Marshal(e)
				texts = append(texts, string(b))
			}
		}
		joined := ""
		for i, t := range texts {
			if i > 0 {
				joined += " "
			}
			joined += t
		}
		*out = append(*out, leaf{path: prefix, text: joined})
	case string:
		*out = append(*out, leaf{path: prefix, text: val, isStr: true, strVal: val})
	case float64:
		*out = append(*out, leaf{path: prefix, text: strconv.FormatFloat(val, 'g', -1, 64), isNum: true, num: val})
	case bool:
		*out = append(*out, leaf{path: prefix, text: strconv.FormatBool(val)})
	case nil:
		// null leaves carry no text and no facet value, but still occupy
		// the path so displayed_fields projection can return null back.
		*out = append(*out, leaf{path: prefix})
	default:
		return fmt.Errorf("index: unsupported json value at %q: %T", prefix, v)
	}
	return nil
}

// primaryKeyValueAsString coerces a document's raw primary key value
// (string or number, per spec §4.3 step 2) into its external-id string
// form.
func primaryKeyValueAsString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}
