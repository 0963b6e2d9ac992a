package cfg

import (
	"errors"
	"fmt"
)

// Namespace violations reported by the mutating Method operations. They are
// wrapped with the offending name; match them with errors.Is.
var (
	ErrInvalidLabel   = errors.New("invalid label")
	ErrDuplicateLabel = errors.New("duplicate block label")
	ErrReservedLabel  = errors.New("reserved label")
	ErrNonFreshName   = errors.New("name is not fresh")
)

// ErrIncompleteGraph is returned by Validate for a graph that is not ready
// to be handed to downstream stages.
var ErrIncompleteGraph = errors.New("incomplete graph")

// ErrMalformedSnapshot is returned when a decoded method violates the graph
// invariants.
var ErrMalformedSnapshot = errors.New("malformed method snapshot")

// IdentityError is the panic value raised when a BlockIndex is used with a
// graph that did not mint it. It signals a bookkeeping bug in the caller.
type IdentityError struct {
	Op    string
	Want  Identity
	Got   Identity
	Index int
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("%s: block index cfg:%d belongs to graph %s, not %s", e.Op, e.Index, e.Got, e.Want)
}
