package execute

import (
	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/expr"
)

// The physical algebra is a producer/consumer pipeline: Produce drives an
// operator's children, and for every tuple that materialises at its output
// the operator calls parent.Consume with an iu -> value mapping that is live
// for the duration of the call. Execution is depth-first and strictly
// synchronous; the only buffering happens at the hash join build and in the
// group by table.

type Operator interface {
	Produce(ec *engine.ExecutionContext) error
	Consume(ec *engine.ExecutionContext, vals expr.Values, child Operator) error

	children() []Operator
	setParent(parent Operator)
}

// wire connects every operator to its parent, top down.
func wire(root Operator) {
	for _, child := range root.children() {
		child.setParent(root)
		wire(child)
	}
}

type leafOperator struct{}

func (_ *leafOperator) children() []Operator { return nil }

func (_ *leafOperator) Consume(_ *engine.ExecutionContext, _ expr.Values, _ Operator) error {
	panic("execute: leaf operator cannot consume")
}
