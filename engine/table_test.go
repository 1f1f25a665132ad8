package engine

import (
	"context"
	"testing"

	"github.com/tardisdb/tardis/sql"
)

func testTable(t *testing.T, db *Database, name string, types []sql.ColumnType) *Table {
	t.Helper()

	tbl, err := db.CreateTable(name)
	if err != nil {
		t.Fatal(err)
	}
	names := []string{"a", "b", "c", "d", "e"}
	for i, ct := range types {
		if err := tbl.AddColumn(names[i], ct); err != nil {
			t.Fatal(err)
		}
	}
	return tbl
}

func testContext(t *testing.T, db *Database, branch BranchID) *ExecutionContext {
	t.Helper()

	ec, err := NewExecutionContext(context.Background(), db, branch)
	if err != nil {
		t.Fatal(err)
	}
	return ec
}

func TestAddColumn(t *testing.T) {
	db := NewDatabase()
	tbl := testTable(t, db, "t", []sql.ColumnType{sql.IntColType, sql.NullTextColType})

	if err := tbl.AddColumn("a", sql.IntColType); err == nil {
		t.Errorf("AddColumn(a) twice did not fail")
	}

	ci, err := tbl.GetCI("a")
	if err != nil {
		t.Fatal(err)
	}
	if ci.Index != 0 || !ci.Type.Equal(sql.IntColType) {
		t.Errorf("GetCI(a) got index %d type %s", ci.Index, ci.Type.DataType())
	}

	ci, err = tbl.GetCI("b")
	if err != nil {
		t.Fatal(err)
	}
	if ci.NullIndicatorType != ColumnIndicator {
		t.Errorf("nullable column must use a column indicator")
	}

	if _, err := tbl.GetCI("z"); err == nil {
		t.Errorf("GetCI(z) did not fail")
	}
}

func TestNullIndicators(t *testing.T) {
	db := NewDatabase()
	tbl := testTable(t, db, "t", []sql.ColumnType{sql.IntColType, sql.NullTextColType})
	ec := testContext(t, db, MasterBranchID)

	tid, err := InsertTuple([]sql.Value{sql.Int64Value(1), nil}, tbl, MasterBranchID, ec)
	if err != nil {
		t.Fatal(err)
	}

	tuple, err := GetLatestTuple(tid, tbl, MasterBranchID, ec)
	if err != nil {
		t.Fatal(err)
	}
	if tuple[0] != sql.Int64Value(1) || tuple[1] != nil {
		t.Errorf("got %v want [1 NULL]", tuple)
	}

	err = UpdateTuple(tid, []sql.Value{sql.Int64Value(1), sql.StringValue("x")}, tbl,
		MasterBranchID, ec)
	if err != nil {
		t.Fatal(err)
	}
	tuple, _ = GetLatestTuple(tid, tbl, MasterBranchID, ec)
	if tuple[1] != sql.StringValue("x") {
		t.Errorf("got %v want x", tuple[1])
	}

	if _, err := InsertTuple([]sql.Value{nil, nil}, tbl, MasterBranchID, ec); err == nil {
		t.Errorf("NULL into NOT NULL column did not fail")
	}
}

func TestDanglingTID(t *testing.T) {
	tid := TID(7)
	marked := MarkDangling(tid)
	if !IsDangling(marked) || IsDangling(tid) {
		t.Errorf("dangling bit not round-tripping")
	}
	if UnmarkDangling(marked) != tid {
		t.Errorf("UnmarkDangling got %d want %d", UnmarkDangling(marked), tid)
	}
}

func TestBranchLineage(t *testing.T) {
	db := NewDatabase()
	b1, err := db.CreateBranch("b1", MasterBranchID)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := db.CreateBranch("b2", b1)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		branch  BranchID
		lineage []BranchID
	}{
		{MasterBranchID, []BranchID{MasterBranchID}},
		{b1, []BranchID{b1, MasterBranchID}},
		{b2, []BranchID{b2, b1, MasterBranchID}},
	}
	for _, c := range cases {
		lineage, err := db.ConstructBranchLineage(c.branch)
		if err != nil {
			t.Fatal(err)
		}
		if len(lineage) != len(c.lineage) {
			t.Fatalf("lineage(%d) got %v want %v", c.branch, lineage, c.lineage)
		}
		for i := range lineage {
			if lineage[i] != c.lineage[i] {
				t.Errorf("lineage(%d) got %v want %v", c.branch, lineage, c.lineage)
			}
		}
	}

	_, err = db.CreateBranch("b1", MasterBranchID)
	se, ok := err.(*sql.SemanticError)
	if !ok || se.Kind != sql.DuplicateBranch {
		t.Errorf("duplicate branch name got %v want duplicate branch", err)
	}
}

func TestLookupBranch(t *testing.T) {
	db := NewDatabase()
	b1, _ := db.CreateBranch("b1", MasterBranchID)

	if id, err := db.LookupBranch(""); err != nil || id != MasterBranchID {
		t.Errorf("LookupBranch(\"\") got %d, %v", id, err)
	}
	if id, err := db.LookupBranch("master"); err != nil || id != MasterBranchID {
		t.Errorf("LookupBranch(master) got %d, %v", id, err)
	}
	if id, err := db.LookupBranch("b1"); err != nil || id != b1 {
		t.Errorf("LookupBranch(b1) got %d, %v", id, err)
	}
	if _, err := db.LookupBranch("nope"); err == nil {
		t.Errorf("LookupBranch(nope) did not fail")
	}
}
