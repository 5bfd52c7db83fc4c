package index

import (
	"fmt"
	"strings"

	"github.com/turbosearch/ftcore/internal/errs"
)

// candidatePrimaryKeySuffixes is tried, in order, against every top-level
// field name when no primary key is configured yet (spec §4.3 step 2:
// "infer primary key: a field named id, or ending in _id/Id, uniquely").
var candidatePrimaryKeySuffixes = []string{"id", "_id", "Id", "ID"}

// inferPrimaryKey looks at the first document of a batch and picks the
// single field matching the inference rule. More than one candidate, or
// none, is reported as NoPrimaryKeyCandidateFound (spec §4.3 step 2, §7).
func inferPrimaryKey(doc map[string]interface{}) (string, error) {
	var candidates []string
	for name := range doc {
		if isPrimaryKeyCandidate(name) {
			candidates = append(candidates, name)
		}
	}
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return "", errs.UserInput(errs.CodeNoPrimaryKeyCandidate,
			fmt.Errorf("index: no field named id or ending in _id found in the first document"))
	default:
		return "", errs.UserInput(errs.CodeNoPrimaryKeyCandidate,
			fmt.Errorf("index: more than one primary key candidate found: %v", candidates))
	}
}

func isPrimaryKeyCandidate(name string) bool {
	if name == "id" {
		return true
	}
	for _, suf := range candidatePrimaryKeySuffixes[1:] {
		if strings.HasSuffix(name, suf) && len(name) > len(suf) {
			return true
		}
	}
	return false
}

// checkPrimaryKeyUnchanged enforces spec §4.3 step 2's "primary key is
// fixed at the first successful document insertion and cannot be changed
// afterward".
func (idx *Index) checkPrimaryKeyUnchanged(requested string) error {
	if idx.primaryKey == "" || requested == "" || requested == idx.primaryKey {
		return nil
	}
	return errs.WithField(errs.KindUserInput, errs.CodePrimaryKeyCannotChange, requested,
		fmt.Errorf("index: primary key is already %q, cannot change to %q", idx.primaryKey, requested))
}
