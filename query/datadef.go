package query

import (
	"fmt"

	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/parser"
	"github.com/tardisdb/tardis/sql"
)

var typeNames = map[string]sql.DataType{
	"bool":        sql.BooleanType,
	"integer":     sql.IntegerType,
	"int":         sql.IntegerType,
	"longinteger": sql.LongIntegerType,
	"bigint":      sql.LongIntegerType,
	"numeric":     sql.NumericType,
	"char":        sql.CharType,
	"varchar":     sql.VarcharType,
	"date":        sql.DateType,
	"timestamp":   sql.TimestampType,
	"text":        sql.TextType,
}

// analyseCreateTable rejects duplicate column names, maps the type keywords,
// and creates the table.
func analyseCreateTable(db *engine.Database, stmt *parser.CreateTableStmt) (*Analysis, error) {
	if db.HasTable(stmt.Name) {
		return nil, &sql.SemanticError{Kind: sql.UnsupportedFeature,
			Ident: fmt.Sprintf("table %s already exists", stmt.Name)}
	}

	seen := map[string]bool{}
	specs := make([]sql.ColumnType, len(stmt.Columns))
	for i, cs := range stmt.Columns {
		if seen[cs.Name] {
			return nil, &sql.SemanticError{Kind: sql.DuplicateColumn, Ident: cs.Name}
		}
		seen[cs.Name] = true

		dt, ok := typeNames[cs.TypeName]
		if !ok {
			return nil, &sql.SemanticError{Kind: sql.TypeMismatch, Ident: cs.TypeName}
		}
		specs[i] = sql.ColumnType{Type: dt, Length: cs.Length, Scale: cs.Scale,
			NotNull: cs.NotNull}
	}

	tbl, err := db.CreateTable(stmt.Name)
	if err != nil {
		return nil, err
	}
	for i, cs := range stmt.Columns {
		if err := tbl.AddColumn(cs.Name, specs[i]); err != nil {
			return nil, err
		}
	}
	return &Analysis{Message: fmt.Sprintf("created table %s", stmt.Name)}, nil
}

// analyseCreateBranch looks up the parent and forks it.
func analyseCreateBranch(db *engine.Database, stmt *parser.CreateBranchStmt) (*Analysis, error) {
	parent, err := db.LookupBranch(stmt.Parent)
	if err != nil {
		return nil, err
	}
	id, err := db.CreateBranch(stmt.Name, parent)
	if err != nil {
		return nil, err
	}
	return &Analysis{Branch: id,
		Message: fmt.Sprintf("created branch %s from %s", stmt.Name, stmt.Parent)}, nil
}
