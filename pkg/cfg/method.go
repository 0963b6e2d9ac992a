// Package cfg implements the control flow graph of a single method as it is
// built by the translation pipeline ahead of verification condition
// generation.
//
// Blocks live in an append-only arena and are referenced by BlockIndex,
// which carries the identity of the owning Method. Passing an index to a
// Method that did not mint it is a programming error and panics with an
// *IdentityError. Namespace violations (labels and variable names) are
// returned as errors wrapping ErrInvalidLabel, ErrDuplicateLabel,
// ErrReservedLabel or ErrNonFreshName.
package cfg

import (
	"fmt"
	"sort"

	"github.com/l3aro/go-vir-cfg/internal/log"
	"github.com/l3aro/go-vir-cfg/pkg/vir"
)

// ReturnLabel is the label of the implicit exit point of every method. No
// block may use it.
const ReturnLabel = "end_of_method"

// Method is the graph of one method under construction. It is not safe for
// concurrent use.
type Method struct {
	id             Identity
	name           string
	formalArgCount int
	formalReturns  []vir.LocalVar
	localVars      []vir.LocalVar

	// labels defined by statements, in registration order
	labels   []string
	labelSet map[string]struct{}

	reservedLabels map[string]struct{}
	pendingLabels  map[string]struct{}

	blocks      []Block
	blockLabels []string
	blockByName map[string]int

	freshVarIndex   int
	freshLabelIndex int

	logger log.Logger
}

// Option configures a Method.
type Option func(*Method)

// WithLogger sets the logger used for debug tracing of graph construction.
func WithLogger(l log.Logger) Option {
	return func(m *Method) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMethod creates an empty graph with a fresh identity.
func NewMethod(name string, formalArgCount int, formalReturns, localVars []vir.LocalVar, reservedLabels []string, opts ...Option) *Method {
	m := &Method{
		id:             newIdentity(),
		name:           name,
		formalArgCount: formalArgCount,
		formalReturns:  append([]vir.LocalVar(nil), formalReturns...),
		localVars:      append([]vir.LocalVar(nil), localVars...),
		labelSet:       make(map[string]struct{}),
		reservedLabels: make(map[string]struct{}, len(reservedLabels)),
		pendingLabels:  make(map[string]struct{}),
		blockByName:    make(map[string]int),
		logger:         log.Nop(),
	}
	for _, l := range reservedLabels {
		m.reservedLabels[l] = struct{}{}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Identity returns the graph's identity token.
func (m *Method) Identity() Identity {
	return m.id
}

func (m *Method) Name() string {
	return m.name
}

func (m *Method) FormalArgCount() int {
	return m.formalArgCount
}

// Len returns the number of blocks.
func (m *Method) Len() int {
	return len(m.blocks)
}

func (m *Method) blockIndex(pos int) BlockIndex {
	return BlockIndex{method: m.id, pos: pos}
}

// checkIndex panics if idx was not minted by m.
func (m *Method) checkIndex(op string, idx BlockIndex) {
	if idx.method != m.id || idx.pos < 0 || idx.pos >= len(m.blocks) {
		panic(&IdentityError{Op: op, Want: m.id, Got: idx.method, Index: idx.pos})
	}
}

// AddBlock appends a block with an Undefined successor. The returned index
// has position equal to the number of blocks before the call.
func (m *Method) AddBlock(label string, stmts []vir.Stmt) (BlockIndex, error) {
	if err := m.checkBlockLabel(label); err != nil {
		return BlockIndex{}, err
	}
	if err := m.checkStatementLabels(stmts, label); err != nil {
		return BlockIndex{}, err
	}

	pos := len(m.blocks)
	delete(m.pendingLabels, label)
	m.blockLabels = append(m.blockLabels, label)
	m.blockByName[label] = pos
	m.blocks = append(m.blocks, Block{successor: Undefined{}})
	m.appendStatements(pos, stmts)

	m.logger.Debug("added block", "method", m.name, "label", label, "index", pos)
	return m.blockIndex(pos), nil
}

// checkBlockLabel reports why label cannot name a new block, if it cannot.
func (m *Method) checkBlockLabel(label string) error {
	if !isValidLabel(label) {
		return fmt.Errorf("block %q: %w", label, ErrInvalidLabel)
	}
	if label == ReturnLabel || m.isReserved(label) {
		return fmt.Errorf("block %q: %w", label, ErrReservedLabel)
	}
	if _, ok := m.blockByName[label]; ok {
		return fmt.Errorf("block %q: %w", label, ErrDuplicateLabel)
	}
	if !m.isFreshName(label) {
		m.logger.Debug("block label collides with a name", "method", m.name, "label", label)
		return fmt.Errorf("block %q: %w", label, ErrNonFreshName)
	}
	return nil
}

// AddStatement appends stmt to the block at idx and registers every label
// the statement defines. On error the graph is left unchanged.
func (m *Method) AddStatement(idx BlockIndex, stmt vir.Stmt) error {
	return m.AddStatements(idx, []vir.Stmt{stmt})
}

// AddStatements appends stmts to the block at idx. Either all statements
// are added or, on error, none.
func (m *Method) AddStatements(idx BlockIndex, stmts []vir.Stmt) error {
	m.checkIndex("AddStatements", idx)
	if err := m.checkStatementLabels(stmts); err != nil {
		return err
	}
	m.appendStatements(idx.pos, stmts)
	return nil
}

// checkStatementLabels fails if a label defined by stmts is not fresh or
// is defined twice. taken lists names claimed by the same operation.
func (m *Method) checkStatementLabels(stmts []vir.Stmt, taken ...string) error {
	seen := make(map[string]struct{}, len(taken))
	for _, name := range taken {
		seen[name] = struct{}{}
	}
	for _, stmt := range stmts {
		for _, label := range vir.GatherLabels(stmt) {
			if _, dup := seen[label]; dup || !m.isFreshName(label) {
				m.logger.Debug("statement label is not fresh", "method", m.name, "label", label)
				return fmt.Errorf("label %q: %w", label, ErrNonFreshName)
			}
			seen[label] = struct{}{}
		}
	}
	return nil
}

func (m *Method) appendStatements(pos int, stmts []vir.Stmt) {
	for _, stmt := range stmts {
		for _, label := range vir.GatherLabels(stmt) {
			delete(m.pendingLabels, label)
			m.labelSet[label] = struct{}{}
			m.labels = append(m.labels, label)
		}
		m.blocks[pos].stmts = append(m.blocks[pos].stmts, stmt)
	}
}

// AddLocalVariable declares a local variable with an explicit name.
func (m *Method) AddLocalVariable(name string, typ vir.Type) error {
	if !m.isAvailable(name) {
		return fmt.Errorf("local variable %q: %w", name, ErrNonFreshName)
	}
	m.localVars = append(m.localVars, vir.NewLocalVar(name, typ))
	return nil
}

// AddFreshLocalVariable declares a local variable with a generated name.
func (m *Method) AddFreshLocalVariable(typ vir.Type) vir.LocalVar {
	v := vir.NewLocalVar(m.generateFreshVarName(), typ)
	m.localVars = append(m.localVars, v)
	return v
}

// AddFormalReturn appends a formal return variable.
func (m *Method) AddFormalReturn(name string, typ vir.Type) error {
	if !m.isAvailable(name) {
		return fmt.Errorf("formal return %q: %w", name, ErrNonFreshName)
	}
	m.formalReturns = append(m.formalReturns, vir.NewLocalVar(name, typ))
	return nil
}

// FormalReturns returns a copy of the formal return variables.
func (m *Method) FormalReturns() []vir.LocalVar {
	return append([]vir.LocalVar(nil), m.formalReturns...)
}

// LocalVariables returns a copy of the local variables.
func (m *Method) LocalVariables() []vir.LocalVar {
	return append([]vir.LocalVar(nil), m.localVars...)
}

// AllVariables returns the formal returns followed by the locals.
func (m *Method) AllVariables() []vir.LocalVar {
	vars := make([]vir.LocalVar, 0, len(m.formalReturns)+len(m.localVars))
	vars = append(vars, m.formalReturns...)
	return append(vars, m.localVars...)
}

// Labels returns the labels defined by statements.
func (m *Method) Labels() []string {
	return append([]string(nil), m.labels...)
}

// BlockLabels returns the block labels in block order.
func (m *Method) BlockLabels() []string {
	return append([]string(nil), m.blockLabels...)
}

// AllLabels returns the statement labels followed by the block labels.
func (m *Method) AllLabels() []string {
	labels := make([]string, 0, len(m.labels)+len(m.blockLabels))
	labels = append(labels, m.labels...)
	return append(labels, m.blockLabels...)
}

// ReservedLabels returns the labels reserved at construction, sorted.
func (m *Method) ReservedLabels() []string {
	labels := make([]string, 0, len(m.reservedLabels))
	for l := range m.reservedLabels {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Indices returns the index of every block in order.
func (m *Method) Indices() []BlockIndex {
	indices := make([]BlockIndex, len(m.blocks))
	for i := range m.blocks {
		indices[i] = m.blockIndex(i)
	}
	return indices
}

// Lookup returns the index of the block with the given label.
func (m *Method) Lookup(label string) (BlockIndex, bool) {
	pos, ok := m.blockByName[label]
	if !ok {
		return BlockIndex{}, false
	}
	return m.blockIndex(pos), true
}

// BlockLabel returns the label of the block at idx.
func (m *Method) BlockLabel(idx BlockIndex) string {
	m.checkIndex("BlockLabel", idx)
	return m.blockLabels[idx.pos]
}

// Block returns a read-only view of the block at idx.
func (m *Method) Block(idx BlockIndex) Block {
	m.checkIndex("Block", idx)
	b := m.blocks[idx.pos]
	return Block{stmts: b.Statements(), successor: b.successor}
}

// Successor returns the successor of the block at idx.
func (m *Method) Successor(idx BlockIndex) Successor {
	m.checkIndex("Successor", idx)
	return m.blocks[idx.pos].successor
}

// SetSuccessor overwrites the successor of the block at idx. Every target
// carried by s must belong to m.
func (m *Method) SetSuccessor(idx BlockIndex, s Successor) {
	m.checkIndex("SetSuccessor", idx)
	if s == nil {
		s = Undefined{}
	}
	for _, target := range s.Following() {
		m.checkIndex("SetSuccessor", target)
	}
	m.blocks[idx.pos].successor = s
}

// Clone returns a deep copy of m with a new identity. Indices of the copy
// are WeakEqual to the corresponding indices of m.
func (m *Method) Clone() *Method {
	c := NewMethod(m.name, m.formalArgCount, m.formalReturns, m.localVars, nil, WithLogger(m.logger))
	for l := range m.reservedLabels {
		c.reservedLabels[l] = struct{}{}
	}
	for l := range m.pendingLabels {
		c.pendingLabels[l] = struct{}{}
	}
	c.labels = append([]string(nil), m.labels...)
	for _, l := range c.labels {
		c.labelSet[l] = struct{}{}
	}
	c.blockLabels = append([]string(nil), m.blockLabels...)
	for pos, l := range c.blockLabels {
		c.blockByName[l] = pos
	}
	c.blocks = make([]Block, len(m.blocks))
	for i, b := range m.blocks {
		c.blocks[i] = Block{stmts: b.Statements(), successor: b.successor.RemapIdentity(c.id)}
	}
	c.freshVarIndex = m.freshVarIndex
	c.freshLabelIndex = m.freshLabelIndex
	return c
}
