package engine

import (
	"testing"

	"github.com/tardisdb/tardis/sql"
)

func row(vals ...int64) []sql.Value {
	tuple := make([]sql.Value, len(vals))
	for i, v := range vals {
		tuple[i] = sql.Int64Value(v)
	}
	return tuple
}

func checkLatest(t *testing.T, tbl *Table, tid TID, branch BranchID, ec *ExecutionContext,
	want []sql.Value) {

	t.Helper()

	tuple, err := GetLatestTuple(tid, tbl, branch, ec)
	if err != nil {
		t.Fatalf("GetLatestTuple(%d, branch %d) failed with %s", tid, branch, err)
	}
	if want == nil {
		if tuple != nil {
			t.Fatalf("GetLatestTuple(%d, branch %d) got %v want no row", tid, branch, tuple)
		}
		return
	}
	if tuple == nil {
		t.Fatalf("GetLatestTuple(%d, branch %d) got no row want %v", tid, branch, want)
	}
	for i := range want {
		if tuple[i] != want[i] {
			t.Fatalf("GetLatestTuple(%d, branch %d) got %v want %v", tid, branch, tuple, want)
		}
	}
}

func intTable(t *testing.T, db *Database, name string) *Table {
	return testTable(t, db, name, []sql.ColumnType{sql.IntColType, sql.IntColType})
}

// The current master image is exactly what get latest returns for master.
func TestMasterRoundTrip(t *testing.T) {
	db := NewDatabase()
	tbl := intTable(t, db, "t")
	ec := testContext(t, db, MasterBranchID)

	tid, err := InsertTuple(row(1, 2), tbl, MasterBranchID, ec)
	if err != nil {
		t.Fatal(err)
	}
	if IsDangling(tid) {
		t.Fatalf("master insert returned a dangling tid")
	}
	checkLatest(t, tbl, tid, MasterBranchID, ec, row(1, 2))

	// master versioning is destructive
	if err := UpdateTuple(tid, row(1, 5), tbl, MasterBranchID, ec); err != nil {
		t.Fatal(err)
	}
	checkLatest(t, tbl, tid, MasterBranchID, ec, row(1, 5))
	if tbl.Size() != 1 {
		t.Errorf("Size() got %d want 1", tbl.Size())
	}
}

// Updating in a branch leaves master untouched.
func TestBranchUpdate(t *testing.T) {
	db := NewDatabase()
	tbl := intTable(t, db, "t")
	master := testContext(t, db, MasterBranchID)

	tid, err := InsertTuple(row(1, 2), tbl, MasterBranchID, master)
	if err != nil {
		t.Fatal(err)
	}

	b1, err := db.CreateBranch("b1", MasterBranchID)
	if err != nil {
		t.Fatal(err)
	}
	ecb1 := testContext(t, db, b1)

	if !tbl.IsVisibleInBranch(tid, b1) {
		t.Fatalf("branch does not inherit the master row")
	}
	checkLatest(t, tbl, tid, b1, ecb1, row(1, 2))

	if err := UpdateTuple(tid, row(1, 3), tbl, b1, ecb1); err != nil {
		t.Fatal(err)
	}
	checkLatest(t, tbl, tid, b1, ecb1, row(1, 3))
	checkLatest(t, tbl, tid, MasterBranchID, master, row(1, 2))

	// the newest branch revision wins in the branch
	if err := UpdateTuple(tid, row(1, 4), tbl, b1, ecb1); err != nil {
		t.Fatal(err)
	}
	checkLatest(t, tbl, tid, b1, ecb1, row(1, 4))
	checkLatest(t, tbl, tid, MasterBranchID, master, row(1, 2))
}

// Rows born in a branch are dangling: invisible to master, visible to the
// branch and to branches forked from it afterwards.
func TestDanglingInsert(t *testing.T) {
	db := NewDatabase()
	tbl := intTable(t, db, "t")
	master := testContext(t, db, MasterBranchID)

	b1, _ := db.CreateBranch("b1", MasterBranchID)
	ecb1 := testContext(t, db, b1)

	tid, err := InsertTuple(row(9, 9), tbl, b1, ecb1)
	if err != nil {
		t.Fatal(err)
	}
	if !IsDangling(tid) {
		t.Fatalf("branch insert returned tid %d without the dangling bit", tid)
	}

	checkLatest(t, tbl, tid, b1, ecb1, row(9, 9))
	checkLatest(t, tbl, tid, MasterBranchID, master, nil)
	if tbl.Size() != 0 || tbl.DanglingSize() != 1 {
		t.Errorf("got %d columnar and %d dangling rows", tbl.Size(), tbl.DanglingSize())
	}

	// a branch forked later inherits the dangling row
	b2, _ := db.CreateBranch("b2", b1)
	ecb2 := testContext(t, db, b2)
	checkLatest(t, tbl, tid, b2, ecb2, row(9, 9))

	// a sibling of b1 does not
	b3, _ := db.CreateBranch("b3", MasterBranchID)
	ecb3 := testContext(t, db, b3)
	checkLatest(t, tbl, tid, b3, ecb3, nil)
}

// Master rows inserted after a fork become visible below the fork as well.
func TestMasterInsertAfterFork(t *testing.T) {
	db := NewDatabase()
	tbl := intTable(t, db, "t")
	master := testContext(t, db, MasterBranchID)

	b1, _ := db.CreateBranch("b1", MasterBranchID)
	ecb1 := testContext(t, db, b1)

	tid, err := InsertTuple(row(5, 6), tbl, MasterBranchID, master)
	if err != nil {
		t.Fatal(err)
	}
	checkLatest(t, tbl, tid, b1, ecb1, row(5, 6))
}

// Deleting in a branch tombstones it there; siblings keep their revision.
func TestDelete(t *testing.T) {
	db := NewDatabase()
	tbl := intTable(t, db, "t")
	master := testContext(t, db, MasterBranchID)

	tid, err := InsertTuple(row(1, 2), tbl, MasterBranchID, master)
	if err != nil {
		t.Fatal(err)
	}

	b1, _ := db.CreateBranch("b1", MasterBranchID)
	b2, _ := db.CreateBranch("b2", MasterBranchID)
	ecb1 := testContext(t, db, b1)
	ecb2 := testContext(t, db, b2)

	if err := DeleteTuple(tid, tbl, b1, ecb1); err != nil {
		t.Fatal(err)
	}
	checkLatest(t, tbl, tid, b1, ecb1, nil)
	checkLatest(t, tbl, tid, b2, ecb2, row(1, 2))
	checkLatest(t, tbl, tid, MasterBranchID, master, row(1, 2))
	if tbl.IsVisibleInBranch(tid, b1) {
		t.Errorf("deleted row still visible in the branch")
	}

	// tombstones are terminal per branch, not per row
	if err := DeleteTuple(tid, tbl, MasterBranchID, master); err != nil {
		t.Fatal(err)
	}
	checkLatest(t, tbl, tid, MasterBranchID, master, nil)
	checkLatest(t, tbl, tid, b2, ecb2, nil)
}

// Updates below a fork hide behind the fork's own revisions.
func TestNestedBranches(t *testing.T) {
	db := NewDatabase()
	tbl := intTable(t, db, "t")
	master := testContext(t, db, MasterBranchID)

	tid, _ := InsertTuple(row(1, 10), tbl, MasterBranchID, master)

	b1, _ := db.CreateBranch("b1", MasterBranchID)
	ecb1 := testContext(t, db, b1)
	if err := UpdateTuple(tid, row(1, 20), tbl, b1, ecb1); err != nil {
		t.Fatal(err)
	}

	b2, _ := db.CreateBranch("b2", b1)
	ecb2 := testContext(t, db, b2)
	checkLatest(t, tbl, tid, b2, ecb2, row(1, 20))

	if err := UpdateTuple(tid, row(1, 30), tbl, b2, ecb2); err != nil {
		t.Fatal(err)
	}
	checkLatest(t, tbl, tid, b2, ecb2, row(1, 30))
	checkLatest(t, tbl, tid, b1, ecb1, row(1, 20))
	checkLatest(t, tbl, tid, MasterBranchID, master, row(1, 10))
}

func TestGetLatestUnknownRow(t *testing.T) {
	db := NewDatabase()
	tbl := intTable(t, db, "t")
	ec := testContext(t, db, MasterBranchID)

	_, err := GetLatestTuple(TID(0), tbl, MasterBranchID, ec)
	re, ok := err.(*sql.RuntimeError)
	if !ok || re.Kind != sql.NotFound {
		t.Errorf("GetLatestTuple on empty table got %v want not found", err)
	}
}

func TestOptLock(t *testing.T) {
	var l optLock
	if err := l.acquire(); err != nil {
		t.Fatal(err)
	}
	l.release()
	if err := l.acquire(); err != nil {
		t.Fatal(err)
	}
	l.release()
}
