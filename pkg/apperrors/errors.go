// Package apperrors is the shared error vocabulary every orchestrator node,
// validator and compiler call uses (§7 Error Handling Design), grounded on
// the reference project's pkg/services/errors.go split between sentinel
// errors callers branch on and one structured wrapper type.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors callers branch on with errors.Is.
var (
	ErrUnresolvedTarget   = errors.New("unresolved target: UPDATE matched zero candidates")
	ErrDanglingRef        = errors.New("connect op references an unknown node id")
	ErrDuplicateNodeID    = errors.New("duplicate node id in batch")
	ErrWriteGuardMismatch = errors.New("write guard: payload_hash does not match validated_hash")
	ErrSchemaDrift        = errors.New("node schema fingerprint changed since last compile")
	ErrExhausted          = errors.New("iteration or token budget exhausted")
	ErrRateLimited        = errors.New("session creation rate limit exceeded")
	ErrUnknownNodeType    = errors.New("node type not present in schema registry")
	ErrNoCredentialMatch  = errors.New("no credential matches the requested type")
	ErrAmbiguousCredential = errors.New("more than one credential matches the requested type")
)

// Kind is the §7 taxonomy, surfaced via verdict.category or a terminal
// error.kind.
type Kind string

const (
	KindClarificationRequired Kind = "CLARIFICATION_REQUIRED"
	KindCredential            Kind = "CREDENTIAL"
	KindStructure             Kind = "STRUCTURE"
	KindLogic                 Kind = "LOGIC"
	KindIncomplete            Kind = "INCOMPLETE"
	KindUnresolvedTarget      Kind = "UNRESOLVED_TARGET"
	KindSchemaDrift           Kind = "SCHEMA_DRIFT"
	KindWriteGuardMismatch    Kind = "WRITE_GUARD_MISMATCH"
	KindRateLimit             Kind = "RATE_LIMIT"
	KindRetriable             Kind = "RETRIABLE"
	KindExhausted             Kind = "EXHAUSTED"
	KindInternal              Kind = "INTERNAL"
)

// AgentError is the structured error node wrappers convert validator and
// compiler failures into (§7 "structured errors carrying (kind, message,
// details)"), analogous to the reference project's ValidationError but
// carrying the full taxonomy instead of a single field name.
type AgentError struct {
	Kind    Kind
	Message string
	Details map[string]any
	cause   error
}

// New creates an AgentError with no underlying cause.
func New(kind Kind, message string, details map[string]any) *AgentError {
	return &AgentError{Kind: kind, Message: message, Details: details}
}

// Wrap creates an AgentError that unwraps to cause.
func Wrap(kind Kind, cause error, details map[string]any) *AgentError {
	return &AgentError{Kind: kind, Message: cause.Error(), Details: details, cause: cause}
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AgentError) Unwrap() error { return e.cause }

// IsKind reports whether err is an *AgentError of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *AgentError
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}
