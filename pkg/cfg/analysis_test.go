package cfg

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-vir-cfg/pkg/vir"
)

// diamond builds 0 -> {1, 2} -> 3 -> return.
func diamond(t *testing.T) (*Method, []BlockIndex) {
	t.Helper()
	m := newTestMethod(t)
	idx := make([]BlockIndex, 4)
	for i := range idx {
		idx[i] = addBlock(t, m, fmt.Sprintf("bb%d", i))
	}
	m.SetSuccessor(idx[0], GotoSwitch{
		Cases:   []GuardedTarget{{Guard: vir.Local{Var: vir.NewLocalVar("c", vir.TypeBool)}, Target: idx[1]}},
		Default: idx[2],
	})
	m.SetSuccessor(idx[1], Goto{Target: idx[3]})
	m.SetSuccessor(idx[2], Goto{Target: idx[3]})
	m.SetSuccessor(idx[3], Return{})
	return m, idx
}

func chain(t *testing.T, n int) (*Method, []BlockIndex) {
	t.Helper()
	m := newTestMethod(t)
	idx := make([]BlockIndex, n)
	for i := range idx {
		idx[i] = addBlock(t, m, fmt.Sprintf("bb%d", i))
	}
	for i := 0; i < n-1; i++ {
		m.SetSuccessor(idx[i], Goto{Target: idx[i+1]})
	}
	m.SetSuccessor(idx[n-1], Return{})
	return m, idx
}

func TestAllPredecessors_Diamond(t *testing.T) {
	m, idx := diamond(t)

	assert.Equal(t, map[int][]int{1: {0}, 2: {0}, 3: {1, 2}}, m.AllPredecessors())
	assert.Equal(t, []BlockIndex{idx[1], idx[2]}, m.PredecessorsOf(idx[3]))
	assert.Empty(t, m.PredecessorsOf(idx[0]))
}

func TestPredecessors_SwitchWithRepeatedTarget(t *testing.T) {
	m, idx := chain(t, 2)
	m.SetSuccessor(idx[0], GotoSwitch{
		Cases:   []GuardedTarget{{Guard: vir.True, Target: idx[1]}},
		Default: idx[1],
	})

	assert.Equal(t, []BlockIndex{idx[0]}, m.PredecessorsOf(idx[1]))
	assert.Equal(t, map[int][]int{1: {0, 0}}, m.AllPredecessors())
}

func TestPredecessorsOf_MatchesAllPredecessors(t *testing.T) {
	m, _ := diamond(t)
	all := m.AllPredecessors()

	for _, idx := range m.Indices() {
		var want []int
		for _, p := range all[idx.Position()] {
			if len(want) == 0 || want[len(want)-1] != p {
				want = append(want, p)
			}
		}
		var got []int
		for _, p := range m.PredecessorsOf(idx) {
			got = append(got, p.Position())
		}
		assert.Equal(t, want, got, idx.String())
	}
}

func TestHasCycle(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.False(t, newTestMethod(t).HasCycle())
	})

	t.Run("chain", func(t *testing.T) {
		m, _ := chain(t, 5)
		assert.False(t, m.HasCycle())
	})

	t.Run("diamond", func(t *testing.T) {
		m, _ := diamond(t)
		assert.False(t, m.HasCycle())
	})

	t.Run("two-cycle", func(t *testing.T) {
		m, idx := chain(t, 2)
		m.SetSuccessor(idx[1], Goto{Target: idx[0]})
		assert.True(t, m.HasCycle())
	})

	t.Run("self loop", func(t *testing.T) {
		m, idx := chain(t, 3)
		m.SetSuccessor(idx[1], GotoSwitch{
			Cases:   []GuardedTarget{{Guard: vir.True, Target: idx[1]}},
			Default: idx[2],
		})
		assert.True(t, m.HasCycle())
	})

	t.Run("unreachable cycle", func(t *testing.T) {
		m, idx := chain(t, 2)
		x := addBlock(t, m, "x")
		y := addBlock(t, m, "y")
		m.SetSuccessor(x, Goto{Target: y})
		m.SetSuccessor(y, Goto{Target: x})
		assert.True(t, m.HasCycle())
		assert.Equal(t, []BlockIndex{x, y}, m.UnreachableBlocks())
		assert.Equal(t, idx, m.Reachable(idx[0]))
	})
}

func TestReachable(t *testing.T) {
	m, idx := diamond(t)

	assert.Equal(t, idx, m.Reachable(idx[0]))
	assert.Equal(t, []BlockIndex{idx[1], idx[3]}, m.Reachable(idx[1]))
	assert.Equal(t, []BlockIndex{idx[3]}, m.Reachable(idx[3]))
	assert.Empty(t, m.UnreachableBlocks())
	assert.Nil(t, newTestMethod(t).UnreachableBlocks())
}

func TestValidate(t *testing.T) {
	t.Run("no blocks", func(t *testing.T) {
		err := newTestMethod(t).Validate()
		assert.ErrorIs(t, err, ErrIncompleteGraph)
	})

	t.Run("undefined successor", func(t *testing.T) {
		m, idx := chain(t, 3)
		m.SetSuccessor(idx[1], Undefined{})
		err := m.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIncompleteGraph))
		assert.Contains(t, err.Error(), "bb1")
	})

	t.Run("complete", func(t *testing.T) {
		m, _ := diamond(t)
		assert.NoError(t, m.Validate())
	})
}
