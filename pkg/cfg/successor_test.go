package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-vir-cfg/pkg/vir"
)

func threeBlocks(t *testing.T) (*Method, BlockIndex, BlockIndex, BlockIndex) {
	t.Helper()
	m := newTestMethod(t)
	return m, addBlock(t, m, "a"), addBlock(t, m, "b"), addBlock(t, m, "c")
}

func TestFollowing(t *testing.T) {
	_, a, b, c := threeBlocks(t)
	x := vir.Local{Var: vir.NewLocalVar("x", vir.TypeBool)}

	tests := []struct {
		name string
		succ Successor
		want []BlockIndex
	}{
		{"undefined", Undefined{}, nil},
		{"return", Return{}, nil},
		{"goto", Goto{Target: b}, []BlockIndex{b}},
		{"switch", GotoSwitch{
			Cases:   []GuardedTarget{{Guard: x, Target: a}, {Guard: vir.True, Target: b}},
			Default: c,
		}, []BlockIndex{a, b, c}},
		{"switch without cases", GotoSwitch{Default: c}, []BlockIndex{c}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.succ.Following()
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReplaceTarget(t *testing.T) {
	_, a, b, c := threeBlocks(t)

	assert.Equal(t, Undefined{}, Undefined{}.ReplaceTarget(a, b))
	assert.Equal(t, Return{}, Return{}.ReplaceTarget(a, b))
	assert.Equal(t, Goto{Target: c}, Goto{Target: a}.ReplaceTarget(a, c))
	assert.Equal(t, Goto{Target: b}, Goto{Target: b}.ReplaceTarget(a, c))
}

func TestReplaceTarget_SwitchReplacesEveryOccurrence(t *testing.T) {
	_, a, b, c := threeBlocks(t)
	sw := GotoSwitch{
		Cases:   []GuardedTarget{{Guard: vir.True, Target: a}, {Guard: vir.False, Target: b}},
		Default: a,
	}

	got := sw.ReplaceTarget(a, c)

	assert.Equal(t, []BlockIndex{c, b, c}, got.Following())
	assert.Equal(t, []BlockIndex{a, b, a}, sw.Following(), "receiver must not change")
}

func TestReplaceTarget_IdentityMismatchPanics(t *testing.T) {
	_, a, _, _ := threeBlocks(t)
	_, other, _, _ := threeBlocks(t)

	for _, succ := range []Successor{Undefined{}, Return{}, Goto{Target: a}, GotoSwitch{Default: a}} {
		assert.PanicsWithError(t,
			(&IdentityError{Op: "ReplaceTarget", Want: a.Identity(), Got: other.Identity(), Index: 0}).Error(),
			func() { succ.ReplaceTarget(a, other) },
			succ.String())
	}
}

func TestRemapIdentity(t *testing.T) {
	_, a, b, _ := threeBlocks(t)
	target := newTestMethod(t).Identity()

	sw := GotoSwitch{Cases: []GuardedTarget{{Guard: vir.True, Target: a}}, Default: b}
	for _, idx := range sw.RemapIdentity(target).Following() {
		assert.Equal(t, target, idx.Identity())
	}
	assert.Equal(t, a.Identity(), sw.Cases[0].Target.Identity())
}

func TestSuccessorString(t *testing.T) {
	_, a, b, _ := threeBlocks(t)

	assert.Equal(t, "undefined", Undefined{}.String())
	assert.Equal(t, "return", Return{}.String())
	assert.Equal(t, "goto cfg:1", Goto{Target: b}.String())
	assert.Equal(t, "switch { true => cfg:0; default => cfg:1 }",
		GotoSwitch{Cases: []GuardedTarget{{Guard: vir.True, Target: a}}, Default: b}.String())
}

func TestSetSuccessor_Nil(t *testing.T) {
	m, a, _, _ := threeBlocks(t)
	m.SetSuccessor(a, Return{})
	m.SetSuccessor(a, nil)

	require.Equal(t, Undefined{}, m.Successor(a))
}
