package execute_test

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/andreyvit/diff"

	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/execute"
	"github.com/tardisdb/tardis/sql"
	"github.com/tardisdb/tardis/testutil"
)

func init() {
	testutil.SetupLogger()
}

func runAll(t *testing.T, db *engine.Database, stmts []string) {
	t.Helper()

	ctx := context.Background()
	for _, s := range stmts {
		var buf bytes.Buffer
		if err := execute.Run(ctx, db, s, &buf); err != nil {
			t.Fatalf("Run(%q) failed with %s", s, err)
		}
	}
}

func runQuery(t *testing.T, db *engine.Database, s string) string {
	t.Helper()

	var buf bytes.Buffer
	if err := execute.Run(context.Background(), db, s, &buf); err != nil {
		t.Fatalf("Run(%q) failed with %s", s, err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func checkQuery(t *testing.T, db *engine.Database, s, want string) {
	t.Helper()

	if got := runQuery(t, db, s); got != want {
		t.Errorf("Run(%q) rows differ:\n%s", s, diff.LineDiff(want, got))
	}
}

func TestInsertSelect(t *testing.T) {
	db := engine.NewDatabase()
	runAll(t, db, []string{
		"CREATE TABLE t (a INTEGER NOT NULL, b INTEGER NOT NULL);",
		"INSERT INTO t (a, b) VALUES (1, 2);",
	})

	checkQuery(t, db, "SELECT a, b FROM t x;", "1|2")
	checkQuery(t, db, "SELECT * FROM t x;", "1|2")
	checkQuery(t, db, "SELECT b, a FROM t x;", "2|1")
}

func TestBranchUpdateVisibility(t *testing.T) {
	db := engine.NewDatabase()
	runAll(t, db, []string{
		"CREATE TABLE t (a INTEGER NOT NULL, b INTEGER NOT NULL);",
		"INSERT INTO t (a, b) VALUES (1, 2);",
		"CREATE BRANCH b1 FROM master;",
		"UPDATE t VERSION b1 SET b = 3 WHERE a = 1;",
	})

	checkQuery(t, db, "SELECT b FROM t VERSION b1 x;", "3")
	checkQuery(t, db, "SELECT b FROM t x;", "2")
}

func TestBranchInsertVisibility(t *testing.T) {
	db := engine.NewDatabase()
	runAll(t, db, []string{
		"CREATE TABLE t (a INTEGER NOT NULL, b INTEGER NOT NULL);",
		"INSERT INTO t (a, b) VALUES (1, 2);",
		"CREATE BRANCH b1 FROM master;",
		"INSERT INTO t VERSION b1 (a, b) VALUES (9, 9);",
	})

	checkQuery(t, db, "SELECT a FROM t x;", "1")
	// scan order: columnar rows first, dangling rows after, both by tid
	checkQuery(t, db, "SELECT a FROM t VERSION b1 x;", "1\n9")
}

func TestJoin(t *testing.T) {
	db := engine.NewDatabase()
	runAll(t, db, []string{
		"CREATE TABLE t (a INTEGER NOT NULL, b INTEGER NOT NULL);",
		"INSERT INTO t (a, b) VALUES (1, 2);",
		"CREATE TABLE u (a INTEGER NOT NULL, c INTEGER NOT NULL);",
		"INSERT INTO u (a, c) VALUES (1, 7);",
		"INSERT INTO u (a, c) VALUES (2, 8);",
	})

	checkQuery(t, db, "SELECT b, c FROM t x, u y WHERE x.a = y.a;", "2|7")
}

func TestAmbiguousColumn(t *testing.T) {
	db := engine.NewDatabase()
	runAll(t, db, []string{
		"CREATE TABLE t (a INTEGER NOT NULL, b INTEGER NOT NULL);",
		"CREATE TABLE u2 (a INTEGER NOT NULL);",
	})

	err := execute.Run(context.Background(), db, "SELECT a FROM t x, u2 y;", &bytes.Buffer{})
	se, ok := err.(*sql.SemanticError)
	if !ok || se.Kind != sql.AmbiguousColumn || se.Ident != "a" {
		t.Errorf("got %v want ambiguous column a", err)
	}
}

func TestDeleteAcrossBranches(t *testing.T) {
	db := engine.NewDatabase()
	runAll(t, db, []string{
		"CREATE TABLE t (a INTEGER NOT NULL, b INTEGER NOT NULL);",
		"INSERT INTO t (a, b) VALUES (1, 2);",
		"INSERT INTO t (a, b) VALUES (3, 4);",
		"CREATE BRANCH b1 FROM master;",
		"CREATE BRANCH b2 FROM master;",
		"DELETE FROM t VERSION b1 WHERE a = 1;",
	})

	checkQuery(t, db, "SELECT a FROM t VERSION b1 x;", "3")
	checkQuery(t, db, "SELECT a FROM t VERSION b2 x;", "1\n3")
	checkQuery(t, db, "SELECT a FROM t x;", "1\n3")
}

func TestMasterDelete(t *testing.T) {
	db := engine.NewDatabase()
	runAll(t, db, []string{
		"CREATE TABLE t (a INTEGER NOT NULL, b INTEGER NOT NULL);",
		"INSERT INTO t (a, b) VALUES (1, 2);",
		"INSERT INTO t (a, b) VALUES (3, 4);",
		"DELETE FROM t WHERE a = 1;",
	})

	checkQuery(t, db, "SELECT a FROM t x;", "3")
}

// scan(B) must agree with get latest filtered over all tids.
func TestScanMatchesGetLatest(t *testing.T) {
	db := engine.NewDatabase()
	runAll(t, db, []string{
		"CREATE TABLE t (a INTEGER NOT NULL, b INTEGER NOT NULL);",
		"INSERT INTO t (a, b) VALUES (1, 10);",
		"INSERT INTO t (a, b) VALUES (2, 20);",
		"INSERT INTO t (a, b) VALUES (3, 30);",
		"CREATE BRANCH b1 FROM master;",
		"UPDATE t VERSION b1 SET b = 21 WHERE a = 2;",
		"DELETE FROM t VERSION b1 WHERE a = 1;",
		"INSERT INTO t VERSION b1 (a, b) VALUES (4, 40);",
	})

	tbl, err := db.GetTable("t")
	if err != nil {
		t.Fatal(err)
	}
	b1, err := db.LookupBranch("b1")
	if err != nil {
		t.Fatal(err)
	}
	ec, err := engine.NewExecutionContext(context.Background(), db, b1)
	if err != nil {
		t.Fatal(err)
	}

	var want []string
	for tid := engine.TID(0); tid < engine.TID(tbl.Size()); tid++ {
		tuple, err := engine.GetLatestTuple(tid, tbl, b1, ec)
		if err != nil {
			t.Fatal(err)
		}
		if tuple != nil {
			want = append(want, testutil.FormatRow(tuple))
		}
	}
	for i := 0; i < tbl.DanglingSize(); i++ {
		tuple, err := engine.GetLatestTuple(engine.MarkDangling(engine.TID(i)), tbl, b1, ec)
		if err != nil {
			t.Fatal(err)
		}
		if tuple != nil {
			want = append(want, testutil.FormatRow(tuple))
		}
	}

	got := runQuery(t, db, "SELECT a, b FROM t VERSION b1 x;")
	if got != strings.Join(want, "\n") {
		t.Errorf("scan rows differ:\n%s", diff.LineDiff(strings.Join(want, "\n"), got))
	}
}

// hash join output as a multiset equals nested loop semantics.
func TestHashJoinEquivalence(t *testing.T) {
	db := engine.NewDatabase()
	stmts := []string{
		"CREATE TABLE l (k INTEGER NOT NULL, v INTEGER NOT NULL);",
		"CREATE TABLE r (k INTEGER NOT NULL, w INTEGER NOT NULL);",
	}
	runAll(t, db, stmts)

	type pair struct{ k, v int64 }
	left := []pair{{1, 10}, {1, 11}, {2, 20}, {3, 30}, {3, 31}, {4, 40}}
	right := []pair{{1, 100}, {1, 101}, {3, 300}, {5, 500}}

	ctx := context.Background()
	for _, p := range left {
		runAll(t, db, []string{insertPair("l", p.k, p.v)})
	}
	for _, p := range right {
		runAll(t, db, []string{insertPair("r", p.k, p.v)})
	}

	// nested loop reference
	var want []string
	for _, lp := range left {
		for _, rp := range right {
			if lp.k == rp.k {
				want = append(want,
					testutil.FormatRow([]sql.Value{sql.Int64Value(lp.v), sql.Int64Value(rp.v)}))
			}
		}
	}
	sort.Strings(want)

	var rows [][]sql.Value
	err := execute.Stream(ctx, db, "SELECT v, w FROM l x, r y WHERE x.k = y.k;",
		func(tuple []sql.Value) error {
			row := make([]sql.Value, len(tuple))
			copy(row, tuple)
			rows = append(rows, row)
			return nil
		})
	if err != nil {
		t.Fatal(err)
	}

	got := testutil.FormatRows(rows)
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("join multisets differ:\n%s",
			diff.LineDiff(strings.Join(want, "\n"), strings.Join(got, "\n")))
	}
}

func insertPair(tbl string, k, v int64) string {
	return "INSERT INTO " + tbl + " (k, " + map[string]string{"l": "v", "r": "w"}[tbl] +
		") VALUES (" + sql.Int64Value(k).String() + ", " + sql.Int64Value(v).String() + ");"
}

func TestCancellation(t *testing.T) {
	db := engine.NewDatabase()
	runAll(t, db, []string{
		"CREATE TABLE t (a INTEGER NOT NULL, b INTEGER NOT NULL);",
		"INSERT INTO t (a, b) VALUES (1, 2);",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := execute.Run(ctx, db, "SELECT a FROM t x;", &bytes.Buffer{})
	if err != sql.ErrCancelled {
		t.Errorf("got %v want cancelled", err)
	}
}

func TestRunAll(t *testing.T) {
	db := engine.NewDatabase()
	script := "CREATE TABLE t (a INTEGER NOT NULL);" +
		"INSERT INTO t (a) VALUES (5); SELECT a FROM t x;"

	var buf bytes.Buffer
	err := execute.RunAll(context.Background(), db, strings.NewReader(script), "script", &buf)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimRight(buf.String(), "\n"); got != "5" {
		t.Errorf("got %q want 5", got)
	}
}
