package cfg

import (
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/iterator"
)

// BlockNode is a block seen as a gonum graph node. Its ID is the block
// position.
type BlockNode struct {
	Index BlockIndex
	Label string
	Final bool
	Stmts int
}

func (n BlockNode) ID() int64 { return int64(n.Index.pos) }

// DOTID implements dot.Node.
func (n BlockNode) DOTID() string { return n.Label }

// Attributes implements encoding.Attributer.
func (n BlockNode) Attributes() []encoding.Attribute {
	attrs := []encoding.Attribute{
		{Key: "shape", Value: "box"},
		{Key: "xlabel", Value: fmt.Sprintf("%d stmts", n.Stmts)},
	}
	if n.Final {
		attrs = append(attrs, encoding.Attribute{Key: "peripheries", Value: "2"})
	}
	return attrs
}

// FlowEdge is a control flow edge. Guard is empty for unconditional edges
// and for the default edge of a switch.
type FlowEdge struct {
	F, T  BlockNode
	Guard string
}

func (e FlowEdge) From() graph.Node { return e.F }
func (e FlowEdge) To() graph.Node   { return e.T }

func (e FlowEdge) ReversedEdge() graph.Edge {
	return FlowEdge{F: e.T, T: e.F, Guard: e.Guard}
}

// Attributes implements encoding.Attributer.
func (e FlowEdge) Attributes() []encoding.Attribute {
	if e.Guard == "" {
		return nil
	}
	return []encoding.Attribute{{Key: "label", Value: e.Guard}}
}

// graphView is a read-only graph.Directed snapshot of a Method. Parallel
// edges of a switch collapse into the first one.
type graphView struct {
	nodes []BlockNode
	out   []map[int64]FlowEdge
	order [][]int64
	inOrd [][]int64
}

// Graph returns a gonum view of the current state of m.
func (m *Method) Graph() graph.Directed {
	n := len(m.blocks)
	g := &graphView{
		nodes: make([]BlockNode, n),
		out:   make([]map[int64]FlowEdge, n),
		order: make([][]int64, n),
		inOrd: make([][]int64, n),
	}
	for pos, b := range m.blocks {
		g.nodes[pos] = BlockNode{
			Index: m.blockIndex(pos),
			Label: m.blockLabels[pos],
			Final: b.successor.IsReturn(),
			Stmts: len(b.stmts),
		}
		g.out[pos] = make(map[int64]FlowEdge)
	}
	for pos, b := range m.blocks {
		guards := make(map[int]string)
		if sw, ok := b.successor.(GotoSwitch); ok {
			for i, c := range sw.Cases {
				if c.Guard != nil {
					guards[i] = c.Guard.String()
				}
			}
		}
		for i, succ := range b.successor.Following() {
			to := int64(succ.pos)
			if _, dup := g.out[pos][to]; dup {
				continue
			}
			g.out[pos][to] = FlowEdge{F: g.nodes[pos], T: g.nodes[succ.pos], Guard: guards[i]}
			g.order[pos] = append(g.order[pos], to)
			g.inOrd[succ.pos] = append(g.inOrd[succ.pos], int64(pos))
		}
	}
	return g
}

func (g *graphView) has(id int64) bool {
	return id >= 0 && id < int64(len(g.nodes))
}

func (g *graphView) Node(id int64) graph.Node {
	if !g.has(id) {
		return nil
	}
	return g.nodes[id]
}

func (g *graphView) Nodes() graph.Nodes {
	nodes := make([]graph.Node, len(g.nodes))
	for i, n := range g.nodes {
		nodes[i] = n
	}
	return iterator.NewOrderedNodes(nodes)
}

func (g *graphView) collect(ids []int64) graph.Nodes {
	nodes := make([]graph.Node, len(ids))
	for i, id := range ids {
		nodes[i] = g.nodes[id]
	}
	return iterator.NewOrderedNodes(nodes)
}

func (g *graphView) From(id int64) graph.Nodes {
	if !g.has(id) {
		return iterator.NewOrderedNodes(nil)
	}
	return g.collect(g.order[id])
}

func (g *graphView) To(id int64) graph.Nodes {
	if !g.has(id) {
		return iterator.NewOrderedNodes(nil)
	}
	return g.collect(g.inOrd[id])
}

func (g *graphView) HasEdgeFromTo(uid, vid int64) bool {
	if !g.has(uid) {
		return false
	}
	_, ok := g.out[uid][vid]
	return ok
}

func (g *graphView) HasEdgeBetween(xid, yid int64) bool {
	return g.HasEdgeFromTo(xid, yid) || g.HasEdgeFromTo(yid, xid)
}

func (g *graphView) Edge(uid, vid int64) graph.Edge {
	if !g.has(uid) {
		return nil
	}
	e, ok := g.out[uid][vid]
	if !ok {
		return nil
	}
	return e
}

// MarshalDOT renders the graph in Graphviz DOT format.
func (m *Method) MarshalDOT() ([]byte, error) {
	data, err := dot.Marshal(m.Graph(), m.name, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("rendering %s as dot: %w", m.name, err)
	}
	return data, nil
}
