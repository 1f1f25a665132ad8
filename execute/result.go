package execute

import (
	"fmt"
	"io"
	"strings"

	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/expr"
	"github.com/tardisdb/tardis/sql"
)

// Print serialises each tuple's selected ius as |-separated fields.
type Print struct {
	parent    Operator
	child     Operator
	selection []*expr.IU
	w         io.Writer
}

func (pr *Print) children() []Operator      { return []Operator{pr.child} }
func (pr *Print) setParent(parent Operator) { pr.parent = parent }

func (pr *Print) Produce(ec *engine.ExecutionContext) error {
	return pr.child.Produce(ec)
}

func (pr *Print) Consume(_ *engine.ExecutionContext, vals expr.Values, _ Operator) error {
	fields := make([]string, len(pr.selection))
	for i, iu := range pr.selection {
		fields[i] = sql.FormatRaw(vals[iu])
	}
	_, err := fmt.Fprintln(pr.w, strings.Join(fields, "|"))
	return err
}

// TupleStream hands each tuple's selected ius to a caller-provided callback.
type TupleStream struct {
	parent    Operator
	child     Operator
	selection []*expr.IU
	fn        func([]sql.Value) error
}

func (ts *TupleStream) children() []Operator      { return []Operator{ts.child} }
func (ts *TupleStream) setParent(parent Operator) { ts.parent = parent }

func (ts *TupleStream) Produce(ec *engine.ExecutionContext) error {
	return ts.child.Produce(ec)
}

func (ts *TupleStream) Consume(_ *engine.ExecutionContext, vals expr.Values, _ Operator) error {
	tuple := make([]sql.Value, len(ts.selection))
	for i, iu := range ts.selection {
		tuple[i] = vals[iu]
	}
	return ts.fn(tuple)
}
