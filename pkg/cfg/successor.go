package cfg

import (
	"fmt"
	"strings"

	"github.com/l3aro/go-vir-cfg/pkg/vir"
)

// Successor describes the outgoing control flow of a block. It is one of
// Undefined, Return, Goto or GotoSwitch.
type Successor interface {
	// Following returns the out-edges in order: none for Undefined and
	// Return, the target for Goto, the guarded targets then the default for
	// GotoSwitch.
	Following() []BlockIndex

	// ReplaceTarget returns a copy where every edge to src points to dst.
	// It panics if src and dst belong to different graphs.
	ReplaceTarget(src, dst BlockIndex) Successor

	// RemapIdentity returns a copy whose targets belong to the graph id.
	RemapIdentity(id Identity) Successor

	IsReturn() bool
	String() string

	isSuccessor()
}

// Undefined is the placeholder successor of a block under construction.
type Undefined struct{}

// Return leaves the method.
type Return struct{}

// Goto jumps unconditionally.
type Goto struct {
	Target BlockIndex
}

// GuardedTarget is one arm of a GotoSwitch.
type GuardedTarget struct {
	Guard  vir.Expr
	Target BlockIndex
}

// GotoSwitch jumps to the first target whose guard holds, or to Default.
type GotoSwitch struct {
	Cases   []GuardedTarget
	Default BlockIndex
}

func (Undefined) isSuccessor()  {}
func (Return) isSuccessor()     {}
func (Goto) isSuccessor()       {}
func (GotoSwitch) isSuccessor() {}

func (Undefined) Following() []BlockIndex { return nil }
func (Return) Following() []BlockIndex    { return nil }
func (s Goto) Following() []BlockIndex    { return []BlockIndex{s.Target} }

func (s GotoSwitch) Following() []BlockIndex {
	res := make([]BlockIndex, 0, len(s.Cases)+1)
	for _, c := range s.Cases {
		res = append(res, c.Target)
	}
	return append(res, s.Default)
}

func (s Undefined) ReplaceTarget(src, dst BlockIndex) Successor {
	checkCompatible(src, dst)
	return s
}

func (s Return) ReplaceTarget(src, dst BlockIndex) Successor {
	checkCompatible(src, dst)
	return s
}

func (s Goto) ReplaceTarget(src, dst BlockIndex) Successor {
	checkCompatible(src, dst)
	return Goto{Target: replaceIndex(s.Target, src, dst)}
}

func (s GotoSwitch) ReplaceTarget(src, dst BlockIndex) Successor {
	checkCompatible(src, dst)
	cases := make([]GuardedTarget, len(s.Cases))
	for i, c := range s.Cases {
		cases[i] = GuardedTarget{Guard: c.Guard, Target: replaceIndex(c.Target, src, dst)}
	}
	return GotoSwitch{Cases: cases, Default: replaceIndex(s.Default, src, dst)}
}

func (s Undefined) RemapIdentity(Identity) Successor { return s }
func (s Return) RemapIdentity(Identity) Successor    { return s }

func (s Goto) RemapIdentity(id Identity) Successor {
	return Goto{Target: s.Target.withIdentity(id)}
}

func (s GotoSwitch) RemapIdentity(id Identity) Successor {
	cases := make([]GuardedTarget, len(s.Cases))
	for i, c := range s.Cases {
		cases[i] = GuardedTarget{Guard: c.Guard, Target: c.Target.withIdentity(id)}
	}
	return GotoSwitch{Cases: cases, Default: s.Default.withIdentity(id)}
}

func (Undefined) IsReturn() bool  { return false }
func (Return) IsReturn() bool     { return true }
func (Goto) IsReturn() bool       { return false }
func (GotoSwitch) IsReturn() bool { return false }

func (Undefined) String() string { return "undefined" }
func (Return) String() string    { return "return" }
func (s Goto) String() string    { return "goto " + s.Target.String() }

func (s GotoSwitch) String() string {
	var sb strings.Builder
	sb.WriteString("switch {")
	for _, c := range s.Cases {
		fmt.Fprintf(&sb, " %s => %s;", c.Guard, c.Target)
	}
	fmt.Fprintf(&sb, " default => %s }", s.Default)
	return sb.String()
}

func checkCompatible(src, dst BlockIndex) {
	if src.method != dst.method {
		panic(&IdentityError{Op: "ReplaceTarget", Want: src.method, Got: dst.method, Index: dst.pos})
	}
}

func replaceIndex(target, src, dst BlockIndex) BlockIndex {
	if target == src {
		return dst
	}
	return target
}
