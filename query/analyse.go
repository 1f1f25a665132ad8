package query

import (
	"fmt"

	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/expr"
	"github.com/tardisdb/tardis/parser"
	"github.com/tardisdb/tardis/plan"
)

// Analysis is the outcome of analysing one statement: a logical plan for
// queries and DML, or just a message for data definition statements, which
// take effect during analysis.
type Analysis struct {
	Plan    plan.Operator
	Branch  engine.BranchID
	Message string
}

// Analyse verifies a parsed statement against the database and assembles its
// logical plan. mode selects the result sink for queries.
func Analyse(db *engine.Database, f *expr.Factory, stmt parser.Stmt,
	mode plan.ResultMode) (*Analysis, error) {

	switch stmt := stmt.(type) {
	case *parser.SelectStmt:
		sa := selectAnalyser{db: db, f: f, stmt: stmt, mode: mode}
		return sa.analyse()
	case *parser.InsertStmt:
		ia := insertAnalyser{db: db, f: f, stmt: stmt}
		return ia.analyse()
	case *parser.UpdateStmt:
		ua := updateAnalyser{db: db, f: f, stmt: stmt}
		return ua.analyse()
	case *parser.DeleteStmt:
		da := deleteAnalyser{db: db, f: f, stmt: stmt}
		return da.analyse()
	case *parser.CreateTableStmt:
		return analyseCreateTable(db, stmt)
	case *parser.CreateBranchStmt:
		return analyseCreateBranch(db, stmt)
	}
	return nil, fmt.Errorf("query: unexpected statement: %s", stmt)
}
