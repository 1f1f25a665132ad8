package execute

import (
	"fmt"

	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/expr"
	"github.com/tardisdb/tardis/plan"
	"github.com/tardisdb/tardis/sql"
)

func opError(op string, err error) error {
	if re, ok := err.(*sql.RuntimeError); ok && re.Op == "" {
		return &sql.RuntimeError{Kind: re.Kind, Op: op, Detail: re.Detail}
	}
	return err
}

// Insert appends the analysed tuple through the version manager.
type Insert struct {
	leafOperator
	parent Operator

	table  *engine.Table
	branch engine.BranchID
	tuple  []sql.Value
}

func (ins *Insert) setParent(parent Operator) { ins.parent = parent }

func (ins *Insert) Produce(ec *engine.ExecutionContext) error {
	_, err := engine.InsertTuple(ins.tuple, ins.table, ins.branch, ec)
	if err != nil {
		return opError("insert", err)
	}
	return nil
}

// Update rebuilds each consumed tuple's image, applies the column sets, and
// writes it back through the version manager.
type Update struct {
	parent Operator
	child  Operator

	table  *engine.Table
	branch engine.BranchID

	columnIUs []*expr.IU
	tidIU     *expr.IU
	sets      []plan.ColumnSet
}

func (upd *Update) children() []Operator      { return []Operator{upd.child} }
func (upd *Update) setParent(parent Operator) { upd.parent = parent }

func (upd *Update) Produce(ec *engine.ExecutionContext) error {
	return upd.child.Produce(ec)
}

func (upd *Update) Consume(ec *engine.ExecutionContext, vals expr.Values, _ Operator) error {
	tuple := make([]sql.Value, len(upd.columnIUs))
	for i, iu := range upd.columnIUs {
		tuple[i] = vals[iu]
	}
	for _, set := range upd.sets {
		tuple[set.Column.Index] = set.Value
	}

	tid, err := tidValue(vals, upd.tidIU)
	if err != nil {
		return opError("update", err)
	}
	return opError("update", engine.UpdateTuple(tid, tuple, upd.table, upd.branch, ec))
}

// Delete tombstones each consumed tuple in the statement's branch.
type Delete struct {
	parent Operator
	child  Operator

	table *engine.Table
	tidIU *expr.IU
}

func (del *Delete) children() []Operator      { return []Operator{del.child} }
func (del *Delete) setParent(parent Operator) { del.parent = parent }

func (del *Delete) Produce(ec *engine.ExecutionContext) error {
	return del.child.Produce(ec)
}

func (del *Delete) Consume(ec *engine.ExecutionContext, vals expr.Values, _ Operator) error {
	tid, err := tidValue(vals, del.tidIU)
	if err != nil {
		return opError("delete", err)
	}
	return opError("delete", engine.DeleteTuple(tid, del.table, ec.BranchID, ec))
}

func tidValue(vals expr.Values, iu *expr.IU) (engine.TID, error) {
	v, ok := vals[iu].(sql.Int64Value)
	if !ok {
		return engine.InvalidTID, fmt.Errorf("no tid for tuple")
	}
	return engine.TID(uint64(int64(v))), nil
}
