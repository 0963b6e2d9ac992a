// Package vir defines the statement and expression payload stored inside
// control flow graph blocks. The graph treats these nodes as opaque except
// for the label definitions a statement introduces.
package vir

import (
	"fmt"
	"strings"
)

// Type is the type of a local variable.
type Type string

const (
	TypeInt  Type = "Int"
	TypeBool Type = "Bool"
	TypeRef  Type = "Ref"
)

// LocalVar is a typed variable of a routine: formal return or local.
type LocalVar struct {
	Name string `msgpack:"name" json:"name"`
	Type Type   `msgpack:"type" json:"type"`
}

// NewLocalVar creates a variable descriptor.
func NewLocalVar(name string, typ Type) LocalVar {
	return LocalVar{Name: name, Type: typ}
}

func (v LocalVar) String() string {
	return fmt.Sprintf("%s: %s", v.Name, v.Type)
}

// Expr is a side-effect free expression. The set of implementations is
// closed to this package.
type Expr interface {
	String() string
	isExpr()
}

// Const is a literal of a primitive type.
type Const struct {
	Type  Type
	Value string
}

// Local reads a variable.
type Local struct {
	Var LocalVar
}

// UnaryOp applies a prefix operator.
type UnaryOp struct {
	Op  string
	Arg Expr
}

// BinOp applies an infix operator.
type BinOp struct {
	Op    string
	Left  Expr
	Right Expr
}

func (Const) isExpr()   {}
func (Local) isExpr()   {}
func (UnaryOp) isExpr() {}
func (BinOp) isExpr()   {}

func (e Const) String() string   { return e.Value }
func (e Local) String() string   { return e.Var.Name }
func (e UnaryOp) String() string { return e.Op + "(" + e.Arg.String() + ")" }
func (e BinOp) String() string {
	return "(" + e.Left.String() + " " + e.Op + " " + e.Right.String() + ")"
}

// True and False are the boolean literals.
var (
	True  Expr = Const{Type: TypeBool, Value: "true"}
	False Expr = Const{Type: TypeBool, Value: "false"}
)

// IntConst returns an integer literal.
func IntConst(v int64) Expr {
	return Const{Type: TypeInt, Value: fmt.Sprintf("%d", v)}
}

// Stmt is a statement placed in a basic block. The set of implementations
// is closed to this package.
type Stmt interface {
	String() string
	isStmt()
}

// Comment carries no semantics; it documents the lowered code.
type Comment struct {
	Text string
}

// Label defines a program point that other stages may refer to, e.g. in
// old-state expressions.
type Label struct {
	Name string
}

// Assign stores the value of an expression into a variable.
type Assign struct {
	Target LocalVar
	Value  Expr
}

// Assert is a proof obligation.
type Assert struct {
	Expr Expr
}

// Assume adds a fact without proof.
type Assume struct {
	Expr Expr
}

// Havoc forgets the value of a variable.
type Havoc struct {
	Var LocalVar
}

// If is a structured conditional whose branches are themselves statements.
type If struct {
	Guard Expr
	Then  []Stmt
	Else  []Stmt
}

func (Comment) isStmt() {}
func (Label) isStmt()   {}
func (Assign) isStmt()  {}
func (Assert) isStmt()  {}
func (Assume) isStmt()  {}
func (Havoc) isStmt()   {}
func (If) isStmt()      {}

func (s Comment) String() string { return "// " + s.Text }
func (s Label) String() string   { return "label " + s.Name }
func (s Assign) String() string  { return s.Target.Name + " := " + s.Value.String() }
func (s Assert) String() string  { return "assert " + s.Expr.String() }
func (s Assume) String() string  { return "assume " + s.Expr.String() }
func (s Havoc) String() string   { return "havoc " + s.Var.Name }

func (s If) String() string {
	var sb strings.Builder
	sb.WriteString("if " + s.Guard.String() + " {")
	for _, st := range s.Then {
		sb.WriteString(" " + st.String() + ";")
	}
	sb.WriteString(" }")
	if len(s.Else) > 0 {
		sb.WriteString(" else {")
		for _, st := range s.Else {
			sb.WriteString(" " + st.String() + ";")
		}
		sb.WriteString(" }")
	}
	return sb.String()
}

// GatherLabels returns the names of all labels defined by stmt, including
// those nested in structured statements, in definition order.
func GatherLabels(stmt Stmt) []string {
	var labels []string
	var walk func(s Stmt)
	walk = func(s Stmt) {
		switch s := s.(type) {
		case Label:
			labels = append(labels, s.Name)
		case If:
			for _, inner := range s.Then {
				walk(inner)
			}
			for _, inner := range s.Else {
				walk(inner)
			}
		}
	}
	walk(stmt)
	return labels
}
