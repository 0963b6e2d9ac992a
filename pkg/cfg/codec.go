package cfg

import (
	"bytes"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-vir-cfg/pkg/vir"
)

// Successor kinds on the wire.
const (
	kindUndefined = "undefined"
	kindReturn    = "return"
	kindGoto      = "goto"
	kindSwitch    = "switch"
)

// methodSnapshot is the persisted form of a Method. The identity, the
// fresh-name counters and pending label reservations are process-local and
// are not part of it.
type methodSnapshot struct {
	Name           string          `msgpack:"name"`
	FormalArgCount int             `msgpack:"formal_arg_count"`
	FormalReturns  []vir.LocalVar  `msgpack:"formal_returns"`
	LocalVars      []vir.LocalVar  `msgpack:"local_vars"`
	Labels         []string        `msgpack:"labels"`
	ReservedLabels []string        `msgpack:"reserved_labels"`
	BlockLabels    []string        `msgpack:"block_labels"`
	Blocks         []blockSnapshot `msgpack:"blocks"`
}

type blockSnapshot struct {
	Stmts     []vir.StmtBox     `msgpack:"stmts"`
	Successor successorSnapshot `msgpack:"successor"`
}

// successorSnapshot stores targets as positions. For a switch, Targets
// holds the guarded targets followed by the default, and Guards has one
// entry less than Targets.
type successorSnapshot struct {
	Kind    string        `msgpack:"kind"`
	Targets []int         `msgpack:"targets,omitempty"`
	Guards  []vir.ExprBox `msgpack:"guards,omitempty"`
}

// Encode writes m to w in msgpack format.
func Encode(w io.Writer, m *Method) error {
	snap := methodSnapshot{
		Name:           m.name,
		FormalArgCount: m.formalArgCount,
		FormalReturns:  m.formalReturns,
		LocalVars:      m.localVars,
		Labels:         m.labels,
		ReservedLabels: m.ReservedLabels(),
		BlockLabels:    m.blockLabels,
		Blocks:         make([]blockSnapshot, len(m.blocks)),
	}
	for i, b := range m.blocks {
		snap.Blocks[i] = blockSnapshot{
			Stmts:     vir.BoxStmts(b.stmts),
			Successor: snapshotSuccessor(b.successor),
		}
	}
	if err := msgpack.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("encoding method %s: %w", m.name, err)
	}
	return nil
}

func snapshotSuccessor(s Successor) successorSnapshot {
	switch s := s.(type) {
	case Return:
		return successorSnapshot{Kind: kindReturn}
	case Goto:
		return successorSnapshot{Kind: kindGoto, Targets: []int{s.Target.pos}}
	case GotoSwitch:
		snap := successorSnapshot{Kind: kindSwitch}
		for _, c := range s.Cases {
			snap.Targets = append(snap.Targets, c.Target.pos)
			snap.Guards = append(snap.Guards, vir.ExprBox{Expr: c.Guard})
		}
		snap.Targets = append(snap.Targets, s.Default.pos)
		return snap
	default:
		return successorSnapshot{Kind: kindUndefined}
	}
}

// Decode reads a Method written by Encode. The result has a fresh identity
// and every block index it holds is bound to it. Block and statement labels
// are held to the rules AddBlock and AddStatements enforce; a snapshot that
// breaks them yields ErrMalformedSnapshot.
func Decode(r io.Reader, opts ...Option) (*Method, error) {
	var snap methodSnapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding method: %w", err)
	}
	if len(snap.Blocks) != len(snap.BlockLabels) {
		return nil, fmt.Errorf("method %s has %d blocks and %d block labels: %w",
			snap.Name, len(snap.Blocks), len(snap.BlockLabels), ErrMalformedSnapshot)
	}

	m := NewMethod(snap.Name, snap.FormalArgCount, snap.FormalReturns, snap.LocalVars, snap.ReservedLabels, opts...)
	for pos, l := range snap.BlockLabels {
		if err := m.checkBlockLabel(l); err != nil {
			return nil, fmt.Errorf("method %s: %w: %w", snap.Name, err, ErrMalformedSnapshot)
		}
		m.blockByName[l] = pos
		m.blockLabels = append(m.blockLabels, l)
	}

	m.blocks = make([]Block, len(snap.Blocks))
	for pos, b := range snap.Blocks {
		stmts := vir.UnboxStmts(b.Stmts)
		if err := m.checkStatementLabels(stmts); err != nil {
			return nil, fmt.Errorf("method %s: block %s: %w: %w", snap.Name, snap.BlockLabels[pos], err, ErrMalformedSnapshot)
		}
		m.appendStatements(pos, stmts)
	}
	if err := m.restoreLabelOrder(snap.Labels); err != nil {
		return nil, fmt.Errorf("method %s: %w", snap.Name, err)
	}

	for pos, b := range snap.Blocks {
		succ, err := m.restoreSuccessor(b.Successor)
		if err != nil {
			return nil, fmt.Errorf("method %s: block %s: %w", snap.Name, snap.BlockLabels[pos], err)
		}
		m.blocks[pos].successor = succ
	}
	return m, nil
}

// restoreLabelOrder replaces the labels gathered from the decoded statements
// with recorded, which must hold the same labels in definition order.
func (m *Method) restoreLabelOrder(recorded []string) error {
	if len(recorded) != len(m.labels) {
		return fmt.Errorf("%d labels recorded, %d defined by statements: %w",
			len(recorded), len(m.labels), ErrMalformedSnapshot)
	}
	seen := make(map[string]struct{}, len(recorded))
	for _, l := range recorded {
		if _, dup := seen[l]; dup {
			return fmt.Errorf("label %q recorded twice: %w", l, ErrMalformedSnapshot)
		}
		if _, ok := m.labelSet[l]; !ok {
			return fmt.Errorf("label %q is not defined by any statement: %w", l, ErrMalformedSnapshot)
		}
		seen[l] = struct{}{}
	}
	m.labels = append(m.labels[:0], recorded...)
	return nil
}

func (m *Method) restoreSuccessor(s successorSnapshot) (Successor, error) {
	targets := make([]BlockIndex, len(s.Targets))
	for i, pos := range s.Targets {
		if pos < 0 || pos >= len(m.blockLabels) {
			return nil, fmt.Errorf("target %d out of range: %w", pos, ErrMalformedSnapshot)
		}
		targets[i] = BlockIndex{pos: pos}
	}

	var succ Successor
	switch {
	case s.Kind == kindUndefined && len(targets) == 0:
		succ = Undefined{}
	case s.Kind == kindReturn && len(targets) == 0:
		succ = Return{}
	case s.Kind == kindGoto && len(targets) == 1:
		succ = Goto{Target: targets[0]}
	case s.Kind == kindSwitch && len(targets) == len(s.Guards)+1:
		sw := GotoSwitch{Default: targets[len(targets)-1]}
		for i, g := range s.Guards {
			sw.Cases = append(sw.Cases, GuardedTarget{Guard: g.Expr, Target: targets[i]})
		}
		succ = sw
	default:
		return nil, fmt.Errorf("successor %q with %d targets: %w", s.Kind, len(targets), ErrMalformedSnapshot)
	}
	// Decoded indices carry no identity; bind them to this graph.
	return succ.RemapIdentity(m.id), nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *Method) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a Method from data produced by MarshalBinary.
func Unmarshal(data []byte, opts ...Option) (*Method, error) {
	return Decode(bytes.NewReader(data), opts...)
}
