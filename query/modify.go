package query

import (
	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/expr"
	"github.com/tardisdb/tardis/parser"
	"github.com/tardisdb/tardis/plan"
	"github.com/tardisdb/tardis/sql"
)

type insertAnalyser struct {
	db   *engine.Database
	f    *expr.Factory
	stmt *parser.InsertStmt
}

// analyse validates column count and types, casts the literals, and builds
// the full tuple in column order. Unlisted nullable columns insert NULL.
func (ia *insertAnalyser) analyse() (*Analysis, error) {
	tbl, err := ia.db.GetTable(ia.stmt.Relation.Name)
	if err != nil {
		return nil, err
	}
	branch, err := ia.db.LookupBranch(ia.stmt.Relation.Version)
	if err != nil {
		return nil, err
	}

	tuple := make([]sql.Value, tbl.ColumnCount())
	listed := make([]bool, tbl.ColumnCount())
	for i, col := range ia.stmt.Columns {
		ci, err := tbl.GetCI(col)
		if err != nil {
			return nil, err
		}
		if listed[ci.Index] {
			return nil, &sql.SemanticError{Kind: sql.DuplicateColumn, Ident: col}
		}
		listed[ci.Index] = true

		value, err := ci.Type.CastFromString(ia.stmt.Values[i])
		if err != nil {
			return nil, &sql.SemanticError{Kind: sql.TypeMismatch, Ident: col}
		}
		tuple[ci.Index] = value
	}

	for _, ci := range tbl.Columns() {
		if !listed[ci.Index] && ci.Type.NotNull {
			return nil, &sql.SemanticError{Kind: sql.TypeMismatch, Ident: ci.Name}
		}
	}

	root := plan.NewInsert(ia.f, tbl, branch, tuple)
	return &Analysis{Plan: root, Branch: branch}, nil
}

type updateAnalyser struct {
	db   *engine.Database
	f    *expr.Factory
	stmt *parser.UpdateStmt
}

// analyse builds a single-relation scan, applies the restrictions, and puts
// the update verb on top; the tid iu is threaded through from the scan.
func (ua *updateAnalyser) analyse() (*Analysis, error) {
	relations := []parser.TableRef{ua.stmt.Relation}
	s, err := constructScope(ua.db, relations)
	if err != nil {
		return nil, err
	}

	var qp queryPlan
	if err := constructScans(ua.db, ua.f, relations, &qp); err != nil {
		return nil, err
	}
	if err := constructSelects(s, ua.f, ua.stmt.Conditions, &qp); err != nil {
		return nil, err
	}

	binding := ua.stmt.Relation.Binding()
	tbl, _ := ua.db.GetTable(ua.stmt.Relation.Name)
	scan := qp.scans[binding]

	var sets []plan.ColumnSet
	seen := map[string]bool{}
	for _, set := range ua.stmt.Sets {
		ci, err := tbl.GetCI(set.Column)
		if err != nil {
			return nil, err
		}
		if seen[set.Column] {
			return nil, &sql.SemanticError{Kind: sql.DuplicateColumn, Ident: set.Column}
		}
		seen[set.Column] = true

		value, err := ci.Type.CastFromString(set.Value)
		if err != nil {
			return nil, &sql.SemanticError{Kind: sql.TypeMismatch, Ident: set.Column}
		}
		sets = append(sets, plan.ColumnSet{Column: ci, IU: qp.ius[binding][ci.Name],
			Value: value})
	}

	root := plan.NewUpdate(ua.f, qp.productions[binding], tbl, qp.branches[binding],
		scan.ColumnIUs, scan.TidIU, sets)
	if err := plan.Validate(root); err != nil {
		return nil, err
	}
	return &Analysis{Plan: root, Branch: qp.branches[binding]}, nil
}

type deleteAnalyser struct {
	db   *engine.Database
	f    *expr.Factory
	stmt *parser.DeleteStmt
}

// analyse builds a single-relation scan, applies the restrictions, and puts
// the delete verb on top.
func (da *deleteAnalyser) analyse() (*Analysis, error) {
	relations := []parser.TableRef{da.stmt.Relation}
	s, err := constructScope(da.db, relations)
	if err != nil {
		return nil, err
	}

	var qp queryPlan
	if err := constructScans(da.db, da.f, relations, &qp); err != nil {
		return nil, err
	}
	if err := constructSelects(s, da.f, da.stmt.Conditions, &qp); err != nil {
		return nil, err
	}

	binding := da.stmt.Relation.Binding()
	tbl, _ := da.db.GetTable(da.stmt.Relation.Name)

	root := plan.NewDelete(da.f, qp.productions[binding], tbl, qp.scans[binding].TidIU)
	if err := plan.Validate(root); err != nil {
		return nil, err
	}
	return &Analysis{Plan: root, Branch: qp.branches[binding]}, nil
}
