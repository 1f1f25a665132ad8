package execute

import (
	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/expr"
)

// Select evaluates its predicate and forwards matching tuples.
type Select struct {
	parent Operator
	child  Operator
	cond   expr.Expr
}

func (sel *Select) children() []Operator      { return []Operator{sel.child} }
func (sel *Select) setParent(parent Operator) { sel.parent = parent }

func (sel *Select) Produce(ec *engine.ExecutionContext) error {
	return sel.child.Produce(ec)
}

func (sel *Select) Consume(ec *engine.ExecutionContext, vals expr.Values, _ Operator) error {
	ok, err := expr.EvalPredicate(sel.cond, vals)
	if err != nil {
		return opError("select", err)
	}
	if !ok {
		return nil
	}
	return sel.parent.Consume(ec, vals, sel)
}

// Map extends each tuple with its mapping outputs.
type Map struct {
	parent   Operator
	child    Operator
	mappings []mapping
}

type mapping struct {
	out *expr.IU
	exp expr.Expr
}

func (m *Map) children() []Operator      { return []Operator{m.child} }
func (m *Map) setParent(parent Operator) { m.parent = parent }

func (m *Map) Produce(ec *engine.ExecutionContext) error {
	return m.child.Produce(ec)
}

func (m *Map) Consume(ec *engine.ExecutionContext, vals expr.Values, _ Operator) error {
	for _, mp := range m.mappings {
		v, err := expr.Eval(mp.exp, vals)
		if err != nil {
			return opError("map", err)
		}
		vals[mp.out] = v
	}
	return m.parent.Consume(ec, vals, m)
}
