package desc

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-vir-cfg/pkg/cfg"
	"github.com/l3aro/go-vir-cfg/pkg/vir"
)

// Binary operators accepted in {op, left, right} expressions.
var binaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
	"&&": true, "||": true, "==>": true,
}

// scope resolves variable names to their declarations.
type scope map[string]vir.LocalVar

func scopeOf(m *cfg.Method) scope {
	sc := make(scope)
	for _, v := range m.AllVariables() {
		sc[v.Name] = v
	}
	return sc
}

func (sc scope) variable(n *yaml.Node) (vir.LocalVar, error) {
	if n.Kind != yaml.ScalarNode {
		return vir.LocalVar{}, syntaxError(n, "variable name must be a scalar")
	}
	v, ok := sc[n.Value]
	if !ok {
		return vir.LocalVar{}, fmt.Errorf("line %d: %q: %w", n.Line, n.Value, ErrUnknownVariable)
	}
	return v, nil
}

// expr interprets a node as an expression. Scalars are literals or variable
// names; mappings are operators.
func (sc scope) expr(n *yaml.Node) (vir.Expr, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!bool":
			b, err := strconv.ParseBool(n.Value)
			if err != nil {
				return nil, syntaxError(n, "bad boolean %q", n.Value)
			}
			if b {
				return vir.True, nil
			}
			return vir.False, nil
		case "!!int":
			v, err := strconv.ParseInt(n.Value, 0, 64)
			if err != nil {
				return nil, syntaxError(n, "bad integer %q", n.Value)
			}
			return vir.IntConst(v), nil
		case "!!str":
			v, err := sc.variable(n)
			if err != nil {
				return nil, err
			}
			return vir.Local{Var: v}, nil
		}
		return nil, syntaxError(n, "unsupported literal %q", n.Value)

	case yaml.MappingNode:
		fields, err := mapping(n, "not", "neg", "op", "arg", "left", "right", "const", "type")
		if err != nil {
			return nil, err
		}
		switch {
		case len(fields) == 1 && fields["not"] != nil:
			return sc.unary(n, "!", fields["not"])
		case len(fields) == 1 && fields["neg"] != nil:
			return sc.unary(n, "-", fields["neg"])
		case len(fields) == 2 && fields["op"] != nil && fields["arg"] != nil:
			return sc.unary(n, fields["op"].Value, fields["arg"])
		case len(fields) == 3 && fields["op"] != nil && fields["left"] != nil && fields["right"] != nil:
			op := fields["op"].Value
			if !binaryOps[op] {
				return nil, syntaxError(fields["op"], "unknown operator %q", op)
			}
			left, err := sc.expr(fields["left"])
			if err != nil {
				return nil, err
			}
			right, err := sc.expr(fields["right"])
			if err != nil {
				return nil, err
			}
			return vir.BinOp{Op: op, Left: left, Right: right}, nil
		case len(fields) == 2 && fields["const"] != nil && fields["type"] != nil:
			return vir.Const{Type: vir.Type(fields["type"].Value), Value: fields["const"].Value}, nil
		}
		return nil, syntaxError(n, "unrecognised expression")
	}
	return nil, syntaxError(n, "expression must be a scalar or a mapping")
}

func (sc scope) unary(n *yaml.Node, op string, arg *yaml.Node) (vir.Expr, error) {
	if op != "!" && op != "-" {
		return nil, syntaxError(n, "unknown unary operator %q", op)
	}
	e, err := sc.expr(arg)
	if err != nil {
		return nil, err
	}
	return vir.UnaryOp{Op: op, Arg: e}, nil
}

func (sc scope) stmts(nodes []*yaml.Node) ([]vir.Stmt, error) {
	stmts := make([]vir.Stmt, 0, len(nodes))
	for _, n := range nodes {
		s, err := sc.stmt(n)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}

func (sc scope) stmt(n *yaml.Node) (vir.Stmt, error) {
	key, val, err := single(n)
	if err != nil {
		return nil, err
	}
	switch key {
	case "comment":
		return vir.Comment{Text: val.Value}, nil
	case "label":
		if val.Kind != yaml.ScalarNode {
			return nil, syntaxError(val, "label must be a scalar")
		}
		return vir.Label{Name: val.Value}, nil
	case "havoc":
		v, err := sc.variable(val)
		if err != nil {
			return nil, err
		}
		return vir.Havoc{Var: v}, nil
	case "assert", "assume":
		e, err := sc.expr(val)
		if err != nil {
			return nil, err
		}
		if key == "assert" {
			return vir.Assert{Expr: e}, nil
		}
		return vir.Assume{Expr: e}, nil
	case "assign":
		fields, err := mapping(val, "target", "value")
		if err != nil {
			return nil, err
		}
		if fields["target"] == nil || fields["value"] == nil {
			return nil, syntaxError(val, "assign needs target and value")
		}
		target, err := sc.variable(fields["target"])
		if err != nil {
			return nil, err
		}
		value, err := sc.expr(fields["value"])
		if err != nil {
			return nil, err
		}
		return vir.Assign{Target: target, Value: value}, nil
	case "if":
		fields, err := mapping(val, "guard", "then", "else")
		if err != nil {
			return nil, err
		}
		if fields["guard"] == nil {
			return nil, syntaxError(val, "if without guard")
		}
		guard, err := sc.expr(fields["guard"])
		if err != nil {
			return nil, err
		}
		then, err := sc.branch(fields["then"])
		if err != nil {
			return nil, err
		}
		els, err := sc.branch(fields["else"])
		if err != nil {
			return nil, err
		}
		return vir.If{Guard: guard, Then: then, Else: els}, nil
	}
	return nil, syntaxError(n, "unknown statement %q", key)
}

func (sc scope) branch(n *yaml.Node) ([]vir.Stmt, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, syntaxError(n, "branch must be a sequence of statements")
	}
	if len(n.Content) == 0 {
		return nil, nil
	}
	return sc.stmts(n.Content)
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func str(value string) *yaml.Node {
	return scalar("!!str", value)
}

func mappingNode(kv ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: kv}
}

func exprNode(e vir.Expr) *yaml.Node {
	switch e := e.(type) {
	case vir.Const:
		switch e.Type {
		case vir.TypeBool:
			return scalar("!!bool", e.Value)
		case vir.TypeInt:
			return scalar("!!int", e.Value)
		}
		return mappingNode(str("const"), str(e.Value), str("type"), str(string(e.Type)))
	case vir.Local:
		return str(e.Var.Name)
	case vir.UnaryOp:
		switch e.Op {
		case "!":
			return mappingNode(str("not"), exprNode(e.Arg))
		case "-":
			return mappingNode(str("neg"), exprNode(e.Arg))
		}
		return mappingNode(str("op"), str(e.Op), str("arg"), exprNode(e.Arg))
	case vir.BinOp:
		return mappingNode(str("op"), str(e.Op), str("left"), exprNode(e.Left), str("right"), exprNode(e.Right))
	}
	panic(fmt.Sprintf("desc: unexpected expression %T", e))
}

func stmtNode(s vir.Stmt) *yaml.Node {
	switch s := s.(type) {
	case vir.Comment:
		return mappingNode(str("comment"), str(s.Text))
	case vir.Label:
		return mappingNode(str("label"), str(s.Name))
	case vir.Havoc:
		return mappingNode(str("havoc"), str(s.Var.Name))
	case vir.Assert:
		return mappingNode(str("assert"), exprNode(s.Expr))
	case vir.Assume:
		return mappingNode(str("assume"), exprNode(s.Expr))
	case vir.Assign:
		return mappingNode(str("assign"),
			mappingNode(str("target"), str(s.Target.Name), str("value"), exprNode(s.Value)))
	case vir.If:
		body := []*yaml.Node{str("guard"), exprNode(s.Guard)}
		if len(s.Then) > 0 {
			body = append(body, str("then"), seqNode(s.Then))
		}
		if len(s.Else) > 0 {
			body = append(body, str("else"), seqNode(s.Else))
		}
		return mappingNode(str("if"), mappingNode(body...))
	}
	panic(fmt.Sprintf("desc: unexpected statement %T", s))
}

func seqNode(stmts []vir.Stmt) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, s := range stmts {
		n.Content = append(n.Content, stmtNode(s))
	}
	return n
}
