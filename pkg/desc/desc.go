// Package desc reads and writes YAML descriptions of method graphs.
//
// A description lists the variables of a method and its blocks, each with a
// label, statements and a successor:
//
//	name: abs
//	args:
//	  - {name: x, type: Int}
//	returns:
//	  - {name: r, type: Int}
//	blocks:
//	  - label: entry
//	    successor:
//	      switch:
//	        cases:
//	          - {guard: {op: "<", left: x, right: 0}, target: negate}
//	        default: keep
//	  - label: negate
//	    stmts:
//	      - assign: {target: r, value: {neg: x}}
//	    successor: return
//	  - label: keep
//	    stmts:
//	      - assign: {target: r, value: x}
//	    successor: return
//
// Build feeds a description through the cfg builder API, so every
// namespace rule of cfg.Method applies to it.
package desc

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-vir-cfg/pkg/cfg"
	"github.com/l3aro/go-vir-cfg/pkg/vir"
)

var (
	// ErrSyntax is returned for YAML that does not have the expected shape.
	ErrSyntax = errors.New("invalid method description")

	// ErrUnknownVariable is returned when an expression names an undeclared
	// variable.
	ErrUnknownVariable = errors.New("unknown variable")

	// ErrUnknownBlock is returned when a successor names a missing block.
	ErrUnknownBlock = errors.New("unknown block")
)

// Var declares a typed variable.
type Var struct {
	Name string   `yaml:"name"`
	Type vir.Type `yaml:"type"`
}

// Block describes one basic block. Statements and successor are kept as raw
// nodes and interpreted by Build.
type Block struct {
	Label     string      `yaml:"label"`
	Stmts     []yaml.Node `yaml:"stmts,omitempty"`
	Successor yaml.Node   `yaml:"successor,omitempty"`
}

// Document is a method description. Args are the leading local variables
// and set the formal argument count.
type Document struct {
	Name           string   `yaml:"name"`
	Args           []Var    `yaml:"args,omitempty"`
	Returns        []Var    `yaml:"returns,omitempty"`
	Locals         []Var    `yaml:"locals,omitempty"`
	ReservedLabels []string `yaml:"reserved_labels,omitempty"`
	Blocks         []Block  `yaml:"blocks"`
}

// Parse decodes a description.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("%w: missing method name", ErrSyntax)
	}
	return &doc, nil
}

// ParseFile reads and decodes the description at path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read method description %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Marshal encodes the description as YAML.
func (d *Document) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal method description: %w", err)
	}
	return data, nil
}

// Build constructs the graph. Blocks are created first so that successors
// may refer to any block; statements are added afterwards in block order.
func (d *Document) Build(opts ...cfg.Option) (*cfg.Method, error) {
	m := cfg.NewMethod(d.Name, len(d.Args), nil, nil, d.ReservedLabels, opts...)

	for _, v := range d.Returns {
		if err := m.AddFormalReturn(v.Name, v.Type); err != nil {
			return nil, err
		}
	}
	for _, group := range [][]Var{d.Args, d.Locals} {
		for _, v := range group {
			if err := m.AddLocalVariable(v.Name, v.Type); err != nil {
				return nil, err
			}
		}
	}
	sc := scopeOf(m)

	indices := make([]cfg.BlockIndex, len(d.Blocks))
	for i, b := range d.Blocks {
		idx, err := m.AddBlock(b.Label, nil)
		if err != nil {
			return nil, err
		}
		indices[i] = idx
	}

	for i, b := range d.Blocks {
		nodes := make([]*yaml.Node, len(b.Stmts))
		for j := range b.Stmts {
			nodes[j] = &b.Stmts[j]
		}
		stmts, err := sc.stmts(nodes)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", b.Label, err)
		}
		if err := m.AddStatements(indices[i], stmts); err != nil {
			return nil, fmt.Errorf("block %s: %w", b.Label, err)
		}
	}

	for i, b := range d.Blocks {
		succ, err := parseSuccessor(m, &d.Blocks[i].Successor)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", b.Label, err)
		}
		m.SetSuccessor(indices[i], succ)
	}
	return m, nil
}

// Load parses and builds the description at path.
func Load(path string, opts ...cfg.Option) (*cfg.Method, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	m, err := doc.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func parseSuccessor(m *cfg.Method, n *yaml.Node) (cfg.Successor, error) {
	switch n.Kind {
	case 0:
		return cfg.Undefined{}, nil
	case yaml.ScalarNode:
		switch n.Value {
		case "return":
			return cfg.Return{}, nil
		case "undefined", "":
			return cfg.Undefined{}, nil
		}
		return nil, syntaxError(n, "unknown successor %q", n.Value)
	case yaml.MappingNode:
		key, val, err := single(n)
		if err != nil {
			return nil, err
		}
		switch key {
		case "goto":
			target, err := lookupBlock(m, val)
			if err != nil {
				return nil, err
			}
			return cfg.Goto{Target: target}, nil
		case "switch":
			return parseSwitch(m, val)
		}
		return nil, syntaxError(n, "unknown successor %q", key)
	}
	return nil, syntaxError(n, "successor must be a scalar or a mapping")
}

func parseSwitch(m *cfg.Method, n *yaml.Node) (cfg.Successor, error) {
	fields, err := mapping(n, "cases", "default")
	if err != nil {
		return nil, err
	}
	if fields["default"] == nil {
		return nil, syntaxError(n, "switch without default")
	}
	var sw cfg.GotoSwitch
	if sw.Default, err = lookupBlock(m, fields["default"]); err != nil {
		return nil, err
	}
	cases := fields["cases"]
	if cases == nil {
		return sw, nil
	}
	if cases.Kind != yaml.SequenceNode {
		return nil, syntaxError(cases, "switch cases must be a sequence")
	}
	sc := scopeOf(m)
	for _, c := range cases.Content {
		arm, err := mapping(c, "guard", "target")
		if err != nil {
			return nil, err
		}
		if arm["guard"] == nil || arm["target"] == nil {
			return nil, syntaxError(c, "switch case needs guard and target")
		}
		guard, err := sc.expr(arm["guard"])
		if err != nil {
			return nil, err
		}
		target, err := lookupBlock(m, arm["target"])
		if err != nil {
			return nil, err
		}
		sw.Cases = append(sw.Cases, cfg.GuardedTarget{Guard: guard, Target: target})
	}
	return sw, nil
}

func lookupBlock(m *cfg.Method, n *yaml.Node) (cfg.BlockIndex, error) {
	if n.Kind != yaml.ScalarNode {
		return cfg.BlockIndex{}, syntaxError(n, "block label must be a scalar")
	}
	idx, ok := m.Lookup(n.Value)
	if !ok {
		return cfg.BlockIndex{}, fmt.Errorf("line %d: %q: %w", n.Line, n.Value, ErrUnknownBlock)
	}
	return idx, nil
}

// single returns the only key and value of a one-entry mapping.
func single(n *yaml.Node) (string, *yaml.Node, error) {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return "", nil, syntaxError(n, "expected a mapping with exactly one key")
	}
	return n.Content[0].Value, n.Content[1], nil
}

// mapping returns the entries of n, rejecting keys outside allowed and
// duplicates.
func mapping(n *yaml.Node, allowed ...string) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, syntaxError(n, "expected a mapping")
	}
	fields := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		if !contains(allowed, key) {
			return nil, syntaxError(n.Content[i], "unexpected key %q", key)
		}
		if _, dup := fields[key]; dup {
			return nil, syntaxError(n.Content[i], "duplicate key %q", key)
		}
		fields[key] = n.Content[i+1]
	}
	return fields, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func syntaxError(n *yaml.Node, format string, args ...interface{}) error {
	return fmt.Errorf("line %d: %s: %w", n.Line, fmt.Sprintf(format, args...), ErrSyntax)
}
