package execute

import (
	"fmt"
	"io"

	"github.com/tardisdb/tardis/expr"
	"github.com/tardisdb/tardis/plan"
	"github.com/tardisdb/tardis/sql"
)

// Sink selects the result mode at runtime: a writer for Print, a callback
// for TupleStream.
type Sink struct {
	W  io.Writer
	Fn func([]sql.Value) error
}

// Translate lowers a logical tree into the physical pipeline and wires the
// parent links.
func Translate(root plan.Operator, sink Sink) (Operator, error) {
	op, err := translate(root, sink)
	if err != nil {
		return nil, err
	}
	wire(op)
	return op, nil
}

func translate(lop plan.Operator, sink Sink) (Operator, error) {
	switch lop := lop.(type) {
	case *plan.TableScan:
		required := lop.Required()
		scan := &TableScan{table: lop.Table, branch: lop.Branch}
		for _, iu := range lop.ColumnIUs {
			if required.Contains(iu) {
				scan.columns = append(scan.columns, iu)
			}
		}
		if required.Contains(lop.TidIU) {
			scan.tidIU = lop.TidIU
		}
		return scan, nil

	case *plan.Select:
		child, err := translate(lop.Child(), sink)
		if err != nil {
			return nil, err
		}
		return &Select{child: child, cond: lop.Cond}, nil

	case *plan.Map:
		child, err := translate(lop.Child(), sink)
		if err != nil {
			return nil, err
		}
		m := &Map{child: child}
		for _, mp := range lop.Mappings {
			m.mappings = append(m.mappings, mapping{out: mp.Out, exp: mp.Exp})
		}
		return m, nil

	case *plan.Join:
		if lop.Method != plan.HashJoinMethod {
			return nil, fmt.Errorf("execute: unexpected join method")
		}
		left, err := translate(lop.Left(), sink)
		if err != nil {
			return nil, err
		}
		right, err := translate(lop.Right(), sink)
		if err != nil {
			return nil, err
		}

		join := &HashJoin{left: left, right: right,
			buildIUs: lop.LeftRequired().Sorted()}
		leftProduced := lop.Left().Produced()
		for _, cond := range lop.Conds {
			le, re := cond.Left, cond.Right
			set := expr.IUSet{}
			expr.CollectIUs(le, set)
			if !set.SubsetOf(leftProduced) {
				le, re = re, le
			}
			join.leftExprs = append(join.leftExprs, le)
			join.rightExprs = append(join.rightExprs, re)
		}
		return join, nil

	case *plan.GroupBy:
		child, err := translate(lop.Child(), sink)
		if err != nil {
			return nil, err
		}
		gb := &GroupBy{child: child}
		for _, agg := range lop.Aggregations {
			spec := aggSpec{out: agg.Out, in: agg.Input}
			switch agg.Kind {
			case plan.KeepAggregation:
				spec.make = expr.MakeKeepAggregator
				spec.key = true
			case plan.SumAggregation:
				spec.make = expr.MakeSumAggregator
			case plan.AvgAggregation:
				spec.make = expr.MakeAvgAggregator(agg.Out.Type.Scale)
			case plan.CountAllAggregation:
				spec.make = expr.MakeCountAllAggregator
			case plan.MinAggregation:
				spec.make = expr.MakeMinAggregator
			}
			gb.specs = append(gb.specs, spec)
		}
		return gb, nil

	case *plan.Insert:
		return &Insert{table: lop.Table, branch: lop.Branch, tuple: lop.Tuple}, nil

	case *plan.Update:
		child, err := translate(lop.Child(), sink)
		if err != nil {
			return nil, err
		}
		return &Update{child: child, table: lop.Table, branch: lop.Branch,
			columnIUs: lop.ColumnIUs, tidIU: lop.TidIU, sets: lop.Sets}, nil

	case *plan.Delete:
		child, err := translate(lop.Child(), sink)
		if err != nil {
			return nil, err
		}
		return &Delete{child: child, table: lop.Table, tidIU: lop.TidIU}, nil

	case *plan.Result:
		child, err := translate(lop.Child(), sink)
		if err != nil {
			return nil, err
		}
		switch lop.Mode {
		case plan.PrintResult:
			return &Print{child: child, selection: lop.Selection, w: sink.W}, nil
		case plan.TupleStreamResult:
			return &TupleStream{child: child, selection: lop.Selection, fn: sink.Fn}, nil
		}
		return nil, fmt.Errorf("execute: unexpected result mode")
	}
	return nil, fmt.Errorf("execute: unexpected logical operator %T", lop)
}
