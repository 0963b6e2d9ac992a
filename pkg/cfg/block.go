package cfg

import "github.com/l3aro/go-vir-cfg/pkg/vir"

// Block is a basic block: straight-line statements and one successor.
type Block struct {
	stmts     []vir.Stmt
	successor Successor
}

// NewBlock builds a detached block, e.g. for conversion code. Blocks inside
// a Method are created with Method.AddBlock.
func NewBlock(stmts []vir.Stmt, successor Successor) Block {
	if successor == nil {
		successor = Undefined{}
	}
	return Block{stmts: append([]vir.Stmt(nil), stmts...), successor: successor}
}

// Statements returns a copy of the block's statements.
func (b Block) Statements() []vir.Stmt {
	return append([]vir.Stmt(nil), b.stmts...)
}

// Successor returns the block's outgoing control flow.
func (b Block) Successor() Successor {
	return b.successor
}
