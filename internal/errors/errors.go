// Package errors defines the coded errors returned by every goatk package.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// UnknownTerm indicates an id that is not present in the term graph
	UnknownTerm ErrorCode = "UNKNOWN_TERM"
	// InvalidRelationType indicates a relation name outside the fixed enum
	InvalidRelationType ErrorCode = "INVALID_RELATION_TYPE"
	// IncompleteGraph indicates relation adjacency was requested but never loaded
	IncompleteGraph ErrorCode = "INCOMPLETE_GRAPH"
	// NoApplicableHeader indicates a member with no header among its ancestors
	NoApplicableHeader ErrorCode = "NO_APPLICABLE_HEADER"
	// RelationCycle indicates a cycle in is_a or in is_a combined with relations
	RelationCycle ErrorCode = "RELATION_CYCLE"
	// InvalidGraph indicates malformed loader output (duplicate ids, alias clashes)
	InvalidGraph ErrorCode = "INVALID_GRAPH"
	// InvalidConfig indicates a configuration value that failed validation
	InvalidConfig ErrorCode = "INVALID_CONFIG"
	// MissingInput indicates a command was given nothing to work on
	MissingInput ErrorCode = "MISSING_INPUT"
	// LoadFailed indicates an input file could not be read or parsed
	LoadFailed ErrorCode = "LOAD_FAILED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditConfig suggests changing a configuration value
	EditConfig FixActionType = "edit-config"
	// FilterInput suggests removing offending ids from the input
	FilterInput FixActionType = "filter-input"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Field       string        `json:"field,omitempty"`
	Description string        `json:"description,omitempty"`
}

// Error is a goatk error with a stable code, a message naming the offending
// ids or relation names, and optional suggested fixes.
type Error struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// New creates a new Error. Suggested fixes default to the ones registered
// for the code in ErrorActions.
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf creates a new Error with a formatted message and no cause.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same code, so the
// sentinels below work with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnknownTerm         = &Error{Code: UnknownTerm}
	ErrInvalidRelationType = &Error{Code: InvalidRelationType}
	ErrIncompleteGraph     = &Error{Code: IncompleteGraph}
	ErrNoApplicableHeader  = &Error{Code: NoApplicableHeader}
	ErrRelationCycle       = &Error{Code: RelationCycle}
	ErrInvalidGraph        = &Error{Code: InvalidGraph}
	ErrInvalidConfig       = &Error{Code: InvalidConfig}
	ErrMissingInput        = &Error{Code: MissingInput}
	ErrLoadFailed          = &Error{Code: LoadFailed}
)

// CodeOf returns the code of the first *Error in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return InternalError
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := stderrors.As(err, &e)
	return e, ok
}

// NewUnknownTerm reports a term id absent from the graph.
func NewUnknownTerm(id string) *Error {
	return Newf(UnknownTerm, "term %q not found in ontology", id).
		WithDetails(map[string]string{"id": id})
}

// NewUnknownTerms reports several missing ids at once.
func NewUnknownTerms(ids []string) *Error {
	if len(ids) == 1 {
		return NewUnknownTerm(ids[0])
	}
	return Newf(UnknownTerm, "%d terms not found in ontology: %s", len(ids), strings.Join(ids, ", ")).
		WithDetails(map[string][]string{"ids": ids})
}

// NewInvalidRelation reports a relation name outside the supported set.
func NewInvalidRelation(name string, valid []string) *Error {
	return Newf(InvalidRelationType, "unknown relation type %q (valid: %s)", name, strings.Join(valid, ", ")).
		WithDetails(map[string]string{"relation": name})
}

// NewIncompleteGraph reports a relation-aware request against a graph
// whose loader did not populate relation adjacency.
func NewIncompleteGraph(requested string) *Error {
	return Newf(IncompleteGraph, "relations %s requested but ontology was loaded without relationships", requested).
		WithDetails(map[string]string{"relations": requested})
}

// NewMissingInput reports a command invoked without the ids it needs.
func NewMissingInput(what string) *Error {
	return Newf(MissingInput, "no %s given", what)
}

// NewNoApplicableHeader reports a member with no reachable header.
func NewNoApplicableHeader(member string, numHeaders int) *Error {
	return Newf(NoApplicableHeader, "no header among %d candidates is an ancestor of %q", numHeaders, member).
		WithDetails(map[string]string{"member": member})
}

// NewRelationCycle reports a cycle found while traversing; path lists the
// ids in traversal order, starting and ending with the repeated id.
func NewRelationCycle(path []string, relations string) *Error {
	return Newf(RelationCycle, "cycle under %s: %s", relations, strings.Join(path, " -> ")).
		WithDetails(map[string]interface{}{"path": path, "relations": relations})
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	UnknownTerm: {
		{
			Type:        FilterInput,
			Description: "Remove ids not present in the loaded ontology, or load a newer OBO release",
		},
	},
	InvalidRelationType: {
		{
			Type:        EditConfig,
			Field:       "closure.relations",
			Description: "Use part_of, regulates, positively_regulates, negatively_regulates or all",
		},
	},
	IncompleteGraph: {
		{
			Type:        EditConfig,
			Field:       "ontology.loadRelations",
			Description: "Load the ontology with relationships enabled",
		},
	},
	NoApplicableHeader: {
		{
			Type:        EditConfig,
			Field:       "grouping.omitDefaults",
			Description: "Set omitDefaults to false so the depth-00/depth-01 headers cover every member",
		},
	},
	RelationCycle: {
		{
			Type:        EditConfig,
			Field:       "closure.relations",
			Description: "Drop the relation type that closes the cycle",
		},
	},
	InvalidConfig: {
		{
			Type:        RunCommand,
			Command:     "goatk config show",
			Description: "Inspect the effective configuration",
		},
	},
	MissingInput: {
		{
			Type:        RunCommand,
			Command:     "goatk help",
			Description: "Pass GO ids as arguments; group also reads --members-file and dcnt takes --all",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
