// Package errs defines the semantic error kinds shared by every layer of
// the search core: user input, index state, resource exhaustion, and
// cooperative cancellation. Leaves produce an *Error with a stable code;
// intermediate layers wrap with fmt.Errorf("...: %w", err) as the teacher
// does throughout migrations/ and eth/stagedsync.
package errs

import "fmt"

// Kind classifies an error for the caller, independent of its message.
type Kind int

const (
	// KindUnknown is never constructed directly; it signals a bug in error
	// construction if ever observed by a caller.
	KindUnknown Kind = iota
	KindUserInput
	KindIndexState
	KindResource
	KindAborted
)

func (k Kind) String() string {
	switch k {
	case KindUserInput:
		return "user_input"
	case KindIndexState:
		return "index_state"
	case KindResource:
		return "resource"
	case KindAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Error is the structured error every public entry point returns on
// failure: a human message, a stable code, a category, and an optional
// offending field path (spec §7 "User visibility").
type Error struct {
	Kind  Kind
	Code  string
	Field string // offending field path, if any
	Err   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s [%s] (field %q): %v", e.Kind, e.Code, e.Field, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Kind, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Err: err}
}

func WithField(kind Kind, code, field string, err error) *Error {
	return &Error{Kind: kind, Code: code, Field: field, Err: err}
}

func UserInput(code string, err error) *Error  { return New(KindUserInput, code, err) }
func IndexState(code string, err error) *Error { return New(KindIndexState, code, err) }
func Resource(code string, err error) *Error   { return New(KindResource, code, err) }

// Aborted reports cooperative cancellation (spec §5 "Cancellation").
var Aborted = New(KindAborted, "aborted", fmt.Errorf("operation aborted"))

// Stable error codes referenced by name across packages.
const (
	CodeNoPrimaryKeyCandidate   = "no_primary_key_candidate_found"
	CodePrimaryKeyCannotChange  = "primary_key_cannot_be_changed"
	CodeMalformedDocument       = "malformed_document"
	CodeUnknownField            = "unknown_filterable_or_sortable_field"
	CodeAttributeLimitReached   = "attribute_limit_reached"
	CodeInvalidFilter           = "invalid_filter"
	CodeUnknownRankingRule      = "unknown_ranking_rule"
	CodeNumericOverflow         = "numeric_overflow_in_filter"
	CodeFieldIdsExhausted       = "field_ids_exhausted"
	CodeMissingPrimaryKey       = "missing_primary_key"
	CodeCorruptFST               = "corrupted_words_fst"
	CodeVersionMismatch          = "version_mismatch"
	CodeDeadLetteredUpgrade      = "dead_lettered_upgrade"
	CodeDatabaseMapFull          = "database_map_full"
	CodeDiskFull                 = "disk_full"
	CodeIOFailure                = "io_failure"
	CodeEmbedderNetworkFailure   = "embedder_network_failure"
)
