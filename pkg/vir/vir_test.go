package vir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestGatherLabels_Nested(t *testing.T) {
	stmt := If{
		Guard: True,
		Then:  []Stmt{Label{Name: "a"}, Comment{Text: "x"}},
		Else: []Stmt{
			If{Guard: False, Then: []Stmt{Label{Name: "b"}}},
			Label{Name: "c"},
		},
	}

	assert.Equal(t, []string{"a", "b", "c"}, GatherLabels(stmt))
	assert.Empty(t, GatherLabels(Comment{Text: "nothing"}))
	assert.Equal(t, []string{"l0"}, GatherLabels(Label{Name: "l0"}))
}

func TestStmtBox_MsgpackPreservesShape(t *testing.T) {
	x := NewLocalVar("x", TypeInt)
	stmts := []Stmt{
		Comment{Text: "entry"},
		Label{Name: "l0"},
		Assign{Target: x, Value: BinOp{Op: "+", Left: Local{Var: x}, Right: IntConst(1)}},
		Assert{Expr: UnaryOp{Op: "!", Arg: False}},
		Assume{Expr: BinOp{Op: ">", Left: Local{Var: x}, Right: IntConst(0)}},
		Havoc{Var: x},
		If{Guard: True, Then: []Stmt{Label{Name: "inner"}}},
	}

	data, err := msgpack.Marshal(BoxStmts(stmts))
	require.NoError(t, err)

	var boxes []StmtBox
	require.NoError(t, msgpack.Unmarshal(data, &boxes))
	got := UnboxStmts(boxes)

	require.Len(t, got, len(stmts))
	for i := range stmts {
		assert.Equal(t, stmts[i].String(), got[i].String(), "statement %d", i)
	}
	assert.Equal(t, []string{"inner"}, GatherLabels(got[6]))
}

func TestDecodeStmt_UnknownTag(t *testing.T) {
	data, err := msgpack.Marshal([]interface{}{"goto", "x"})
	require.NoError(t, err)

	var box StmtBox
	err = msgpack.Unmarshal(data, &box)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestStringers(t *testing.T) {
	x := NewLocalVar("x", TypeBool)
	assert.Equal(t, "x: Bool", x.String())
	assert.Equal(t, "x := true", Assign{Target: x, Value: True}.String())
	assert.Equal(t, "if x { label l1; }", If{Guard: Local{Var: x}, Then: []Stmt{Label{Name: "l1"}}}.String())
}
