package desc

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-vir-cfg/pkg/cfg"
	"github.com/l3aro/go-vir-cfg/pkg/vir"
)

// FromMethod describes m. Building the result yields a graph with the same
// blocks, statements and edges.
func FromMethod(m *cfg.Method) (*Document, error) {
	locals := m.LocalVariables()
	if m.FormalArgCount() > len(locals) {
		return nil, fmt.Errorf("method %s declares %d formal arguments but only %d locals: %w",
			m.Name(), m.FormalArgCount(), len(locals), ErrSyntax)
	}

	doc := &Document{
		Name:           m.Name(),
		Args:           vars(locals[:m.FormalArgCount()]),
		Returns:        vars(m.FormalReturns()),
		Locals:         vars(locals[m.FormalArgCount():]),
		ReservedLabels: m.ReservedLabels(),
	}
	for _, idx := range m.Indices() {
		b := Block{Label: m.BlockLabel(idx)}
		for _, s := range m.Block(idx).Statements() {
			b.Stmts = append(b.Stmts, *stmtNode(s))
		}
		if n := successorNode(m, m.Successor(idx)); n != nil {
			b.Successor = *n
		}
		doc.Blocks = append(doc.Blocks, b)
	}
	return doc, nil
}

func vars(vs []vir.LocalVar) []Var {
	if len(vs) == 0 {
		return nil
	}
	res := make([]Var, len(vs))
	for i, v := range vs {
		res[i] = Var{Name: v.Name, Type: v.Type}
	}
	return res
}

func successorNode(m *cfg.Method, s cfg.Successor) *yaml.Node {
	switch s := s.(type) {
	case cfg.Return:
		return str("return")
	case cfg.Goto:
		return mappingNode(str("goto"), str(m.BlockLabel(s.Target)))
	case cfg.GotoSwitch:
		cases := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, c := range s.Cases {
			cases.Content = append(cases.Content, mappingNode(
				str("guard"), exprNode(c.Guard),
				str("target"), str(m.BlockLabel(c.Target)),
			))
		}
		body := mappingNode(str("default"), str(m.BlockLabel(s.Default)))
		if len(cases.Content) > 0 {
			body.Content = append([]*yaml.Node{str("cases"), cases}, body.Content...)
		}
		return mappingNode(str("switch"), body)
	}
	return nil
}
