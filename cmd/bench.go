package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/execute"
	"github.com/tardisdb/tardis/load"
	"github.com/tardisdb/tardis/sql"
)

var (
	benchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Benchmark the compilation chain on a wiki-derived dataset",
		RunE:  benchRun,
	}

	benchBranches   = false
	benchLoadDir    = ""
	benchDist       = "uniform"
	benchRuns       = 5
	benchLowerBound = int64(0)
	benchUpperBound = int64(100)
	benchBranchCnt  = 2
)

func init() {
	fs := benchCmd.Flags()
	fs.BoolVarP(&benchBranches, "branches", "b", benchBranches,
		"create benchmark branches and spread rows across them")
	fs.StringVarP(&benchLoadDir, "load", "l", benchLoadDir,
		"`directory` with page.tbl, revision.tbl, and content.tbl")
	fs.StringVarP(&benchDist, "distribution", "d", benchDist,
		"row distribution across branches: uniform or master")
	fs.IntVarP(&benchRuns, "runs", "r", benchRuns, "runs per query")
	fs.Int64Var(&benchLowerBound, "lowerBound", benchLowerBound,
		"first page id for point lookups")
	fs.Int64Var(&benchUpperBound, "upperBound", benchUpperBound,
		"last page id for point lookups")

	tardisCmd.AddCommand(benchCmd)
}

var benchQueries = []string{
	"SELECT p_id FROM page p;",
	"SELECT p_id FROM page VERSION branch1 p;",
	"SELECT p_id, p_title FROM page VERSION branch1 p WHERE p_id = '10';",
	"SELECT p_title, c_text FROM page p, revision r, content c" +
		" WHERE p_id = r_page AND r_text = c_id;",
}

func benchRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	db := engine.NewDatabase()

	tables, err := load.CreateWikiTables(db)
	if err != nil {
		return err
	}

	dist := load.Master()
	if benchBranches {
		branches := []engine.BranchID{engine.MasterBranchID}
		parent := engine.MasterBranchID
		for i := 1; i <= benchBranchCnt; i++ {
			id, err := db.CreateBranch(fmt.Sprintf("branch%d", i), parent)
			if err != nil {
				return err
			}
			branches = append(branches, id)
			parent = id
		}
		if benchDist == "uniform" {
			dist = load.Uniform(branches, 42)
		}
	} else if _, err := db.CreateBranch("branch1", engine.MasterBranchID); err != nil {
		return err
	}

	if benchLoadDir != "" {
		for _, t := range []struct {
			tbl  *engine.Table
			file string
		}{
			{tables.Page, "page.tbl"},
			{tables.Revision, "revision.tbl"},
			{tables.Content, "content.tbl"},
		} {
			f, err := os.Open(filepath.Join(benchLoadDir, t.file))
			if err != nil {
				return err
			}
			_, err = load.Table(ctx, db, t.tbl, f, dist)
			f.Close()
			if err != nil {
				return err
			}
		}
	}

	for _, text := range benchQueries {
		if err := benchmarkQuery(ctx, db, text, benchRuns); err != nil {
			return err
		}
	}

	return benchmarkLookups(tables.Page)
}

func benchmarkQuery(ctx context.Context, db *engine.Database, text string, runs int) error {
	var total execute.Timings
	for i := 0; i < runs; i++ {
		t, err := execute.Measure(ctx, db, text)
		if err != nil {
			return err
		}
		total.Parse += t.Parse
		total.Analyse += t.Analyse
		total.Translate += t.Translate
		total.Execute += t.Execute
		total.Rows = t.Rows
	}

	fmt.Println(text)
	fmt.Printf("Parsing time: %v\n", total.Parse/time.Duration(runs))
	fmt.Printf("Analysing time: %v\n", total.Analyse/time.Duration(runs))
	fmt.Printf("Translation time: %v\n", total.Translate/time.Duration(runs))
	fmt.Printf("Execution time: %v\n", total.Execute/time.Duration(runs))
	fmt.Printf("Rows: %d\n\n", total.Rows)
	return nil
}

// benchmarkLookups times point lookups of every p_id in the benchmark bounds
// through a B-tree index on page.p_id; no full scans are timed.
func benchmarkLookups(page *engine.Table) error {
	idx, err := page.CreateIndex("page_p_id", "p_id")
	if err != nil {
		return err
	}

	start := time.Now()
	found := 0
	for id := benchLowerBound; id <= benchUpperBound; id++ {
		found += len(idx.Lookup(sql.Int64Value(id)))
	}
	elapsed := time.Since(start)

	lookups := benchUpperBound - benchLowerBound + 1
	log.WithFields(log.Fields{"lookups": lookups, "found": found}).Info("index probe")
	fmt.Printf("Index lookups: %d in %v (%d hits)\n", lookups, elapsed, found)
	return nil
}
