package cfg

import (
	"fmt"

	"github.com/google/uuid"
)

// Identity is the process-unique token of a Method. It is never persisted.
type Identity uuid.UUID

func newIdentity() Identity {
	return Identity(uuid.New())
}

// IsZero reports whether the identity is unset, as on a decoded index that
// has not been bound to a graph yet.
func (id Identity) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id Identity) String() string {
	return uuid.UUID(id).String()
}

// BlockIndex refers to a block of one specific Method. Two indices are equal
// (==) when both the graph identity and the position match.
type BlockIndex struct {
	method Identity
	pos    int
}

// Position is the 0-based position of the block in its graph.
func (i BlockIndex) Position() int {
	return i.pos
}

// Identity returns the identity of the graph that minted the index.
func (i BlockIndex) Identity() Identity {
	return i.method
}

// WeakEqual compares positions only. Use it when comparing indices across a
// graph-identity remap.
func (i BlockIndex) WeakEqual(other BlockIndex) bool {
	return i.pos == other.pos
}

func (i BlockIndex) withIdentity(id Identity) BlockIndex {
	return BlockIndex{method: id, pos: i.pos}
}

func (i BlockIndex) String() string {
	return fmt.Sprintf("cfg:%d", i.pos)
}
