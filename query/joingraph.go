package query

import (
	"github.com/tardisdb/tardis/expr"
	"github.com/tardisdb/tardis/plan"
)

// JoinGraph holds one vertex per aliased relation and one edge per pair of
// relations related by equi-join predicates. A DFS from the first relation
// realises a spanning tree as a left-deep chain of join operators.

type joinVertex struct {
	name       string
	production plan.Operator
	visited    bool
}

type joinEdge struct {
	v, u string

	// expressions' left operands refer to the v side.
	expressions []*expr.Comparison
}

type joinGraph struct {
	order    []string
	vertices map[string]*joinVertex
	edges    []*joinEdge
}

func newJoinGraph() *joinGraph {
	return &joinGraph{vertices: map[string]*joinVertex{}}
}

func (g *joinGraph) addVertex(name string, production plan.Operator) {
	g.order = append(g.order, name)
	g.vertices[name] = &joinVertex{name: name, production: production}
}

func (g *joinGraph) getEdge(v, u string) *joinEdge {
	for _, e := range g.edges {
		if (e.v == v && e.u == u) || (e.v == u && e.u == v) {
			return e
		}
	}
	return nil
}

func (g *joinGraph) addCondition(v, u string, cond *expr.Comparison) {
	edge := g.getEdge(v, u)
	if edge == nil {
		edge = &joinEdge{v: v, u: u}
		g.edges = append(g.edges, edge)
	}
	if edge.v != v {
		// orient the comparison to the stored edge direction
		cond = &expr.Comparison{Mode: cond.Mode, Left: cond.Right, Right: cond.Left}
	}
	edge.expressions = append(edge.expressions, cond)
}

func (g *joinGraph) connectedEdges(name string) []*joinEdge {
	var edges []*joinEdge
	for _, e := range g.edges {
		if e.v == name || e.u == name {
			edges = append(edges, e)
		}
	}
	return edges
}

// construct realises the spanning tree rooted at the first vertex; relations
// unreachable through join predicates are appended as cross products.
func (g *joinGraph) construct(f *expr.Factory) plan.Operator {
	if len(g.order) == 0 {
		return nil
	}
	var tree plan.Operator
	tree = g.join(f, g.order[0], tree)
	for _, name := range g.order {
		if !g.vertices[name].visited {
			tree = plan.NewJoin(f, tree, g.vertices[name].production, plan.HashJoinMethod, nil)
			tree = g.join(f, name, tree)
		}
	}
	return tree
}

// join visits a vertex, splicing every unvisited neighbour onto the chain.
func (g *joinGraph) join(f *expr.Factory, name string, tree plan.Operator) plan.Operator {
	vertex := g.vertices[name]
	vertex.visited = true
	if tree == nil {
		tree = vertex.production
	}

	for _, edge := range g.connectedEdges(name) {
		neighbour := edge.u
		if name != edge.v {
			neighbour = edge.v
		}
		nv := g.vertices[neighbour]
		if nv.visited {
			continue
		}

		conds := edge.expressions
		if name != edge.v {
			// the joined tree is on the u side; swap the operands
			swapped := make([]*expr.Comparison, len(conds))
			for i, c := range conds {
				swapped[i] = &expr.Comparison{Mode: c.Mode, Left: c.Right, Right: c.Left}
			}
			conds = swapped
		}
		tree = plan.NewJoin(f, tree, nv.production, plan.HashJoinMethod, conds)
		tree = g.join(f, neighbour, tree)
	}
	return tree
}
