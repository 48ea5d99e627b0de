package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for traversal failures.
var (
	// ErrInvalidInput rejects a malformed start account before traversal begins.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLookupFailure marks a failed connector or connection lookup.
	ErrLookupFailure = errors.New("lookup failure")

	// ErrInvariantViolation marks incoherent graph mutation (self edge, dangling endpoint).
	ErrInvariantViolation = errors.New("graph invariant violation")
)

// Lookup operations, used in LookupError.Op.
const (
	OpConnectors  = "connectors"
	OpConnections = "connections"
)

// LookupError wraps a collaborator failure for one connector type.
// It matches both ErrLookupFailure and the underlying cause with errors.Is.
type LookupError struct {
	Type ConnectorType
	Op   string
	Err  error
}

// NewLookupError wraps err as a LookupError unless it already is one.
func NewLookupError(typ ConnectorType, op string, err error) error {
	var le *LookupError
	if errors.As(err, &le) {
		return err
	}

	return &LookupError{Type: typ, Op: op, Err: err}
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s lookup for %s: %v", e.Op, e.Type, e.Err)
}

// Unwrap returns both the lookup sentinel and the cause.
func (e *LookupError) Unwrap() []error {
	return []error{ErrLookupFailure, e.Err}
}
