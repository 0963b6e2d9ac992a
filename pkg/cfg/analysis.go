package cfg

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// PredecessorsOf returns, in block order, every block with an edge to
// target.
func (m *Method) PredecessorsOf(target BlockIndex) []BlockIndex {
	m.checkIndex("PredecessorsOf", target)
	var preds []BlockIndex
	for pos, b := range m.blocks {
		for _, succ := range b.successor.Following() {
			if succ == target {
				preds = append(preds, m.blockIndex(pos))
				break
			}
		}
	}
	return preds
}

// AllPredecessors maps the position of every block with at least one
// incoming edge to the positions of its predecessors. A predecessor is
// listed once per edge, in block order.
func (m *Method) AllPredecessors() map[int][]int {
	result := make(map[int][]int)
	for pos, b := range m.blocks {
		for _, succ := range b.successor.Following() {
			result[succ.pos] = append(result[succ.pos], pos)
		}
	}
	return result
}

// HasCycle reports whether the graph contains a cycle, using Kahn's
// topological elimination: the graph is cyclic iff some block can never
// reach in-degree zero.
func (m *Method) HasCycle() bool {
	inDegree := make([]int, len(m.blocks))
	for _, b := range m.blocks {
		for _, succ := range b.successor.Following() {
			inDegree[succ.pos]++
		}
	}

	queue := make([]int, 0, len(m.blocks))
	for pos, d := range inDegree {
		if d == 0 {
			queue = append(queue, pos)
		}
	}

	removed := 0
	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]
		removed++
		for _, succ := range m.blocks[pos].successor.Following() {
			inDegree[succ.pos]--
			if inDegree[succ.pos] == 0 {
				queue = append(queue, succ.pos)
			}
		}
	}

	return removed < len(m.blocks)
}

// Reachable returns, in block order, the blocks reachable from start,
// start included.
func (m *Method) Reachable(start BlockIndex) []BlockIndex {
	m.checkIndex("Reachable", start)
	seen := m.reach(start.pos)
	res := make([]BlockIndex, 0, seen.Count())
	for i, ok := seen.NextSet(0); ok; i, ok = seen.NextSet(i + 1) {
		res = append(res, m.blockIndex(int(i)))
	}
	return res
}

// UnreachableBlocks returns the blocks that cannot be reached from the
// first block, which is the entry by convention.
func (m *Method) UnreachableBlocks() []BlockIndex {
	if len(m.blocks) == 0 {
		return nil
	}
	seen := m.reach(0)
	var res []BlockIndex
	for pos := range m.blocks {
		if !seen.Test(uint(pos)) {
			res = append(res, m.blockIndex(pos))
		}
	}
	return res
}

func (m *Method) reach(start int) *bitset.BitSet {
	seen := bitset.New(uint(len(m.blocks)))
	stack := []int{start}
	seen.Set(uint(start))
	for len(stack) > 0 {
		pos := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, succ := range m.blocks[pos].successor.Following() {
			if !seen.Test(uint(succ.pos)) {
				seen.Set(uint(succ.pos))
				stack = append(stack, succ.pos)
			}
		}
	}
	return seen
}

// Validate checks that the graph is finished: it has at least one block and
// no block still has an Undefined successor.
func (m *Method) Validate() error {
	if len(m.blocks) == 0 {
		return fmt.Errorf("method %s has no blocks: %w", m.name, ErrIncompleteGraph)
	}
	for pos, b := range m.blocks {
		if _, ok := b.successor.(Undefined); ok {
			return fmt.Errorf("method %s: block %s (%s) has an undefined successor: %w", m.name, m.blockLabels[pos], m.blockIndex(pos), ErrIncompleteGraph)
		}
	}
	return nil
}
