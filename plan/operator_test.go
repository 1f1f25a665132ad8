package plan

import (
	"testing"

	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/expr"
	"github.com/tardisdb/tardis/sql"
)

func planTable(t *testing.T, db *engine.Database, name string, cols ...string) *engine.Table {
	t.Helper()

	tbl, err := db.CreateTable(name)
	if err != nil {
		t.Fatal(err)
	}
	for _, col := range cols {
		if err := tbl.AddColumn(col, sql.IntColType); err != nil {
			t.Fatal(err)
		}
	}
	return tbl
}

func iuByName(scan *TableScan, name string) *expr.IU {
	for _, iu := range scan.ColumnIUs {
		if iu.Name == name {
			return iu
		}
	}
	return nil
}

func TestScanProduced(t *testing.T) {
	db := engine.NewDatabase()
	tbl := planTable(t, db, "t", "a", "b")

	var f expr.Factory
	scan := NewTableScan(&f, tbl, engine.MasterBranchID)

	produced := scan.Produced()
	if len(produced) != 3 {
		t.Fatalf("Produced() got %d ius want 3 (a, b, tid)", len(produced))
	}
	if !produced.Contains(scan.TidIU) {
		t.Errorf("Produced() misses the tid iu")
	}
}

// required(parent) must flow down and be trimmed at the scans.
func TestRequiredFlow(t *testing.T) {
	db := engine.NewDatabase()
	tbl := planTable(t, db, "t", "a", "b", "c")

	var f expr.Factory
	scan := NewTableScan(&f, tbl, engine.MasterBranchID)
	a := iuByName(scan, "a")
	b := iuByName(scan, "b")

	cond := &expr.Comparison{Mode: expr.Equal,
		Left:  &expr.Identifier{IU: a},
		Right: &expr.Constant{Value: sql.Int64Value(1), Typ: sql.IntColType}}
	sel := NewSelect(&f, scan, cond)
	res := NewResult(&f, sel, []*expr.IU{b}, PrintResult)

	if req := res.Required(); len(req) != 1 || !req.Contains(b) {
		t.Errorf("Required(result) got %d ius want {b}", len(req))
	}
	// the select adds its predicate ius to the parent requirement
	req := sel.Required()
	if len(req) != 2 || !req.Contains(a) || !req.Contains(b) {
		t.Errorf("Required(select) got %d ius want {a b}", len(req))
	}
	// the scan drops everything it does not produce
	req = scan.Required()
	if len(req) != 2 || !req.Contains(a) || !req.Contains(b) {
		t.Errorf("Required(scan) got %d ius want {a b}", len(req))
	}

	if err := Validate(res); err != nil {
		t.Errorf("Validate failed with %s", err)
	}
}

func TestJoinSplit(t *testing.T) {
	db := engine.NewDatabase()
	left := planTable(t, db, "l", "a", "b")
	right := planTable(t, db, "r", "c", "d")

	var f expr.Factory
	lscan := NewTableScan(&f, left, engine.MasterBranchID)
	rscan := NewTableScan(&f, right, engine.MasterBranchID)
	la, lb := iuByName(lscan, "a"), iuByName(lscan, "b")
	rc, rd := iuByName(rscan, "c"), iuByName(rscan, "d")

	cond := &expr.Comparison{Mode: expr.Equal,
		Left:  &expr.Identifier{IU: la},
		Right: &expr.Identifier{IU: rc}}
	join := NewJoin(&f, lscan, rscan, HashJoinMethod, []*expr.Comparison{cond})
	res := NewResult(&f, join, []*expr.IU{lb, rd}, PrintResult)

	produced := join.Produced()
	if len(produced) != 6 {
		t.Errorf("Produced(join) got %d ius want 6", len(produced))
	}

	lreq := join.LeftRequired()
	if len(lreq) != 2 || !lreq.Contains(la) || !lreq.Contains(lb) {
		t.Errorf("LeftRequired got %d ius want {a b}", len(lreq))
	}
	rreq := join.RightRequired()
	if len(rreq) != 2 || !rreq.Contains(rc) || !rreq.Contains(rd) {
		t.Errorf("RightRequired got %d ius want {c d}", len(rreq))
	}

	if err := Validate(res); err != nil {
		t.Errorf("Validate failed with %s", err)
	}
}

// A group by hides the child's ius; only the aggregation outputs pass up.
func TestGroupByProduced(t *testing.T) {
	db := engine.NewDatabase()
	tbl := planTable(t, db, "t", "a", "b")

	var f expr.Factory
	scan := NewTableScan(&f, tbl, engine.MasterBranchID)
	a := iuByName(scan, "a")
	b := iuByName(scan, "b")

	op := f.OperatorUID()
	keep := NewAggregation(&f, op, KeepAggregation, &expr.Identifier{IU: a})
	sum := NewAggregation(&f, op, SumAggregation, &expr.Identifier{IU: b})
	count := NewAggregation(&f, op, CountAllAggregation, nil)
	gb := NewGroupBy(&f, scan, []Aggregation{keep, sum, count})
	res := NewResult(&f, gb, []*expr.IU{keep.Out, sum.Out, count.Out}, PrintResult)

	produced := gb.Produced()
	if len(produced) != 3 {
		t.Fatalf("Produced(group by) got %d ius want 3", len(produced))
	}
	if produced.Contains(a) || produced.Contains(b) {
		t.Errorf("child ius pass up through the group by")
	}

	req := gb.Required()
	if len(req) != 2 || !req.Contains(a) || !req.Contains(b) {
		t.Errorf("Required(group by) got %d ius want {a b}", len(req))
	}

	if err := Validate(res); err != nil {
		t.Errorf("Validate failed with %s", err)
	}
}

// A selection the child cannot provide must fail validation.
func TestValidateMalformed(t *testing.T) {
	db := engine.NewDatabase()
	t1 := planTable(t, db, "t1", "a")
	t2 := planTable(t, db, "t2", "b")

	var f expr.Factory
	scan1 := NewTableScan(&f, t1, engine.MasterBranchID)
	scan2 := NewTableScan(&f, t2, engine.MasterBranchID)

	// result over scan1 selecting an iu produced by scan2
	res := NewResult(&f, scan1, []*expr.IU{iuByName(scan2, "b")}, PrintResult)
	if err := Validate(res); err == nil {
		t.Errorf("Validate did not reject a foreign iu")
	}
}

func TestInvalidate(t *testing.T) {
	db := engine.NewDatabase()
	tbl := planTable(t, db, "t", "a", "b")

	var f expr.Factory
	scan := NewTableScan(&f, tbl, engine.MasterBranchID)
	a := iuByName(scan, "a")
	b := iuByName(scan, "b")
	res := NewResult(&f, scan, []*expr.IU{a}, PrintResult)

	if req := scan.Required(); len(req) != 1 || !req.Contains(a) {
		t.Fatalf("Required(scan) got %d ius want {a}", len(req))
	}

	res.Selection = append(res.Selection, b)
	Invalidate(res)
	if req := scan.Required(); len(req) != 2 {
		t.Errorf("Required(scan) got %d ius want {a b} after invalidation", len(req))
	}
}
