package plan

import (
	"fmt"

	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/expr"
	"github.com/tardisdb/tardis/sql"
)

// The logical algebra: a purely descriptive operator tree annotated with the
// attribute flow analysis. Produced is the set of IUs an operator emits;
// Required the set it consumes, fed downward from its parent. Both are
// cached per node behind a dirty flag; Invalidate walks to the root.

type Operator interface {
	Produced() expr.IUSet
	Required() expr.IUSet
	Parent() Operator
	Children() []Operator

	base() *opBase
}

type opBase struct {
	self   Operator
	parent Operator
	uid    uint32

	produced   expr.IUSet
	required   expr.IUSet
	producedOK bool
	requiredOK bool
}

func (b *opBase) init(self Operator, f *expr.Factory) {
	b.self = self
	b.uid = f.OperatorUID()
}

func (b *opBase) base() *opBase { return b }

func (b *opBase) Parent() Operator { return b.parent }

func (b *opBase) adopt(children ...Operator) {
	for _, child := range children {
		child.base().parent = b.self
	}
}

// Invalidate marks the analysis stale: produced flows upward, so the walk
// clears every ancestor up to the root; required flows downward, so the
// root's subtree drops its required caches as well.
func Invalidate(op Operator) {
	root := op
	for {
		b := root.base()
		b.producedOK = false
		b.requiredOK = false
		if b.parent == nil {
			break
		}
		root = b.parent
	}
	invalidateRequired(root)
}

func invalidateRequired(op Operator) {
	op.base().requiredOK = false
	for _, child := range op.Children() {
		invalidateRequired(child)
	}
}

func (b *opBase) Produced() expr.IUSet {
	if !b.producedOK {
		b.produced = computeProduced(b.self)
		b.producedOK = true
	}
	return b.produced
}

func (b *opBase) Required() expr.IUSet {
	if !b.requiredOK {
		b.required = computeRequired(b.self)
		b.requiredOK = true
	}
	return b.required
}

func computeProduced(op Operator) expr.IUSet {
	switch op := op.(type) {
	case *TableScan:
		set := expr.NewIUSet(op.ColumnIUs...)
		set.Add(op.TidIU)
		return set
	case *Select:
		return op.child.Produced().Clone()
	case *Map:
		set := op.child.Produced().Clone()
		for _, m := range op.Mappings {
			set.Add(m.Out)
		}
		return set
	case *Join:
		set := op.left.Produced().Clone()
		set.AddAll(op.right.Produced())
		return set
	case *GroupBy:
		set := expr.IUSet{}
		for _, agg := range op.Aggregations {
			set.Add(agg.Out)
		}
		return set
	case *Insert, *Update, *Delete, *Result:
		return expr.IUSet{}
	}
	panic("missing case for logical operator")
}

// requiredFromParent is the set the parent expects this operator to emit.
func requiredFromParent(op Operator) expr.IUSet {
	parent := op.Parent()
	if parent == nil {
		return expr.IUSet{}
	}
	switch parent := parent.(type) {
	case *Join:
		return parent.Required().Intersect(op.Produced())
	default:
		return parent.Required()
	}
}

func computeRequired(op Operator) expr.IUSet {
	switch op := op.(type) {
	case *TableScan:
		return requiredFromParent(op).Intersect(op.Produced())
	case *Select:
		set := requiredFromParent(op).Clone()
		expr.CollectIUs(op.Cond, set)
		return set
	case *Map:
		set := requiredFromParent(op).Clone()
		for _, m := range op.Mappings {
			delete(set, m.Out)
			expr.CollectIUs(m.Exp, set)
		}
		return set
	case *Join:
		set := requiredFromParent(op).Clone()
		for _, cond := range op.Conds {
			expr.CollectIUs(cond, set)
		}
		return set
	case *GroupBy:
		set := expr.IUSet{}
		for _, agg := range op.Aggregations {
			if agg.Input != nil {
				expr.CollectIUs(agg.Input, set)
			}
		}
		return set
	case *Insert:
		return expr.IUSet{}
	case *Update:
		set := expr.NewIUSet(op.ColumnIUs...)
		set.Add(op.TidIU)
		return set
	case *Delete:
		return expr.NewIUSet(op.TidIU)
	case *Result:
		return expr.NewIUSet(op.Selection...)
	}
	panic("missing case for logical operator")
}

//-----------------------------------------------------------------------------
// TableScan

type TableScan struct {
	opBase
	Table  *engine.Table
	Branch engine.BranchID

	// ColumnIUs has one iu per table column; TidIU is the implicit row id.
	ColumnIUs []*expr.IU
	TidIU     *expr.IU
}

func NewTableScan(f *expr.Factory, tbl *engine.Table, branch engine.BranchID) *TableScan {
	scan := &TableScan{Table: tbl, Branch: branch}
	scan.init(scan, f)
	for _, ci := range tbl.Columns() {
		scan.ColumnIUs = append(scan.ColumnIUs, f.ColumnIU(scan.uid, ci))
	}
	scan.TidIU = f.TempIU(scan.uid, sql.LongIntColType, "tid")
	return scan
}

func (_ *TableScan) Children() []Operator { return nil }

//-----------------------------------------------------------------------------
// Select

type Select struct {
	opBase
	child Operator
	Cond  expr.Expr
}

func NewSelect(f *expr.Factory, child Operator, cond expr.Expr) *Select {
	sel := &Select{child: child, Cond: cond}
	sel.init(sel, f)
	sel.adopt(child)
	return sel
}

func (sel *Select) Children() []Operator { return []Operator{sel.child} }

func (sel *Select) Child() Operator { return sel.child }

//-----------------------------------------------------------------------------
// Map

type Mapping struct {
	Out *expr.IU
	Exp expr.Expr
}

type Map struct {
	opBase
	child    Operator
	Mappings []Mapping
}

func NewMap(f *expr.Factory, child Operator, mappings []Mapping) *Map {
	m := &Map{child: child, Mappings: mappings}
	m.init(m, f)
	m.adopt(child)
	return m
}

func (m *Map) Children() []Operator { return []Operator{m.child} }

func (m *Map) Child() Operator { return m.child }

//-----------------------------------------------------------------------------
// Join

type JoinMethod int

const (
	HashJoinMethod JoinMethod = iota
)

type Join struct {
	opBase
	left, right Operator
	Method      JoinMethod

	// Conds is the conjunction of equi-join comparisons; the left operand of
	// each refers to the left subtree.
	Conds []*expr.Comparison
}

func NewJoin(f *expr.Factory, left, right Operator, method JoinMethod,
	conds []*expr.Comparison) *Join {

	join := &Join{left: left, right: right, Method: method, Conds: conds}
	join.init(join, f)
	join.adopt(left, right)
	return join
}

func (join *Join) Children() []Operator { return []Operator{join.left, join.right} }

func (join *Join) Left() Operator { return join.left }

func (join *Join) Right() Operator { return join.right }

// LeftRequired splits the join's requirement onto the build side.
func (join *Join) LeftRequired() expr.IUSet {
	return join.Required().Intersect(join.left.Produced())
}

// RightRequired splits the join's requirement onto the probe side.
func (join *Join) RightRequired() expr.IUSet {
	return join.Required().Intersect(join.right.Produced())
}

//-----------------------------------------------------------------------------
// GroupBy

type AggregationKind int

const (
	KeepAggregation AggregationKind = iota
	SumAggregation
	AvgAggregation
	CountAllAggregation
	MinAggregation
)

type Aggregation struct {
	Kind AggregationKind

	// Input is nil for CountAll.
	Input expr.Expr
	Out   *expr.IU
}

type GroupBy struct {
	opBase
	child        Operator
	Aggregations []Aggregation
}

// NewGroupBy aggregates the child; the grouping keys are the Keep
// aggregations. The child's IUs do not pass up through the group by.
func NewGroupBy(f *expr.Factory, child Operator, aggs []Aggregation) *GroupBy {
	gb := &GroupBy{child: child, Aggregations: aggs}
	gb.init(gb, f)
	gb.adopt(child)
	return gb
}

func (gb *GroupBy) Children() []Operator { return []Operator{gb.child} }

func (gb *GroupBy) Child() Operator { return gb.child }

// NewAggregation builds an aggregation, allocating its produced iu.
func NewAggregation(f *expr.Factory, op uint32, kind AggregationKind, input expr.Expr) Aggregation {
	agg := Aggregation{Kind: kind, Input: input}
	switch kind {
	case KeepAggregation:
		id := input.(*expr.Identifier)
		agg.Out = f.TempIU(op, id.IU.Type, id.IU.Name)
	case CountAllAggregation:
		agg.Input = nil
		agg.Out = f.TempIU(op, sql.LongIntColType, "count")
	case SumAggregation, MinAggregation:
		agg.Out = f.TempIU(op, input.Type(), fmt.Sprintf("%s", input))
	case AvgAggregation:
		t := input.Type()
		if t.Type != sql.NumericType {
			t = sql.NumericColType(4, 0, t.NotNull)
		}
		agg.Out = f.TempIU(op, t, fmt.Sprintf("%s", input))
	}
	return agg
}

//-----------------------------------------------------------------------------
// Insert

type Insert struct {
	opBase
	Table  *engine.Table
	Branch engine.BranchID
	Tuple  []sql.Value
}

func NewInsert(f *expr.Factory, tbl *engine.Table, branch engine.BranchID,
	tuple []sql.Value) *Insert {

	ins := &Insert{Table: tbl, Branch: branch, Tuple: tuple}
	ins.init(ins, f)
	return ins
}

func (_ *Insert) Children() []Operator { return nil }

//-----------------------------------------------------------------------------
// Update

type ColumnSet struct {
	Column *engine.ColumnInformation
	IU     *expr.IU
	Value  sql.Value
}

type Update struct {
	opBase
	child  Operator
	Table  *engine.Table
	Branch engine.BranchID

	// ColumnIUs mirrors the scanned columns; the tid iu addresses the row to
	// rewrite.
	ColumnIUs []*expr.IU
	TidIU     *expr.IU
	Sets      []ColumnSet
}

func NewUpdate(f *expr.Factory, child Operator, tbl *engine.Table, branch engine.BranchID,
	columnIUs []*expr.IU, tidIU *expr.IU, sets []ColumnSet) *Update {

	upd := &Update{child: child, Table: tbl, Branch: branch, ColumnIUs: columnIUs,
		TidIU: tidIU, Sets: sets}
	upd.init(upd, f)
	upd.adopt(child)
	return upd
}

func (upd *Update) Children() []Operator { return []Operator{upd.child} }

func (upd *Update) Child() Operator { return upd.child }

//-----------------------------------------------------------------------------
// Delete

type Delete struct {
	opBase
	child Operator
	Table *engine.Table
	TidIU *expr.IU
}

func NewDelete(f *expr.Factory, child Operator, tbl *engine.Table, tidIU *expr.IU) *Delete {
	del := &Delete{child: child, Table: tbl, TidIU: tidIU}
	del.init(del, f)
	del.adopt(child)
	return del
}

func (del *Delete) Children() []Operator { return []Operator{del.child} }

func (del *Delete) Child() Operator { return del.child }

//-----------------------------------------------------------------------------
// Result

type ResultMode int

const (
	PrintResult ResultMode = iota
	TupleStreamResult
)

type Result struct {
	opBase
	child     Operator
	Selection []*expr.IU
	Mode      ResultMode
}

func NewResult(f *expr.Factory, child Operator, selection []*expr.IU, mode ResultMode) *Result {
	res := &Result{child: child, Selection: selection, Mode: mode}
	res.init(res, f)
	res.adopt(child)
	return res
}

func (res *Result) Children() []Operator { return []Operator{res.child} }

func (res *Result) Child() Operator { return res.child }

//-----------------------------------------------------------------------------
// Validation

// Validate checks that for every parent/child edge the parent's requirement
// is covered by what the child produces.
func Validate(root Operator) error {
	switch op := root.(type) {
	case *Join:
		// every required iu must come from one of the two sides
		rest := op.Required().Subtract(op.left.Produced())
		if !rest.SubsetOf(op.right.Produced()) {
			return malformed(op.right)
		}
	default:
		for _, child := range root.Children() {
			if !root.Required().SubsetOf(child.Produced()) {
				return malformed(child)
			}
		}
	}
	for _, child := range root.Children() {
		if err := Validate(child); err != nil {
			return err
		}
	}
	return nil
}

func malformed(child Operator) error {
	return fmt.Errorf("plan: malformed plan: required not covered by %T", child)
}
