package execute

import (
	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/expr"
	"github.com/tardisdb/tardis/sql"
)

// TableScan iterates tids in ascending order, checks branch visibility, and
// materialises the required columns: straight from the columnar store when
// scanning master, through the version manager otherwise. Scans outside
// master also walk the dangling array.
type TableScan struct {
	leafOperator
	parent Operator

	table  *engine.Table
	branch engine.BranchID

	// columns are the required column ius; tidIU is non-nil when a parent
	// consumes the row id.
	columns []*expr.IU
	tidIU   *expr.IU
}

func (scan *TableScan) setParent(parent Operator) { scan.parent = parent }

func (scan *TableScan) emit(ec *engine.ExecutionContext, tid engine.TID,
	node *engine.VersionNode) error {

	vals := make(expr.Values, len(scan.columns)+1)
	for _, iu := range scan.columns {
		if node == nil || node.IsMaster() {
			vals[iu] = scan.table.ReadColumn(tid, iu.Column)
		} else {
			vals[iu] = scan.table.UnpackColumn(node, iu.Column)
		}
	}
	if scan.tidIU != nil {
		vals[scan.tidIU] = sql.Int64Value(int64(tid))
	}
	return scan.parent.Consume(ec, vals, scan)
}

func (scan *TableScan) Produce(ec *engine.ExecutionContext) error {
	if scan.branch == engine.MasterBranchID {
		for tid := engine.TID(0); tid < engine.TID(scan.table.Size()); tid++ {
			if err := ec.Cancelled(); err != nil {
				return err
			}
			if !scan.table.IsVisibleInBranch(tid, engine.MasterBranchID) {
				continue
			}
			if err := scan.emit(ec, tid, nil); err != nil {
				return err
			}
		}
		return nil
	}

	for tid := engine.TID(0); tid < engine.TID(scan.table.Size()); tid++ {
		if err := scan.produceLatest(ec, tid); err != nil {
			return err
		}
	}
	for i := 0; i < scan.table.DanglingSize(); i++ {
		if err := scan.produceLatest(ec, engine.MarkDangling(engine.TID(i))); err != nil {
			return err
		}
	}
	return nil
}

func (scan *TableScan) produceLatest(ec *engine.ExecutionContext, tid engine.TID) error {
	if err := ec.Cancelled(); err != nil {
		return err
	}
	if !scan.table.IsVisibleInBranch(tid, scan.branch) {
		return nil
	}
	node, ok, err := engine.LatestNode(tid, scan.table, scan.branch, ec)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return scan.emit(ec, tid, node)
}
