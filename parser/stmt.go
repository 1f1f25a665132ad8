package parser

import (
	"fmt"
	"strings"
)

// The parse result: one tagged variant per statement kind. The String
// methods are the canonical printers; parsing a printed statement yields the
// same parse result.

type Stmt interface {
	fmt.Stringer
}

// TableRef names a relation, the branch to read it from (empty means
// master), and an optional binding.
type TableRef struct {
	Name    string
	Version string
	Alias   string
}

func (tr TableRef) String() string {
	s := tr.Name
	if tr.Version != "" {
		s += fmt.Sprintf(" VERSION %s", tr.Version)
	}
	if tr.Alias != "" {
		s += fmt.Sprintf(" %s", tr.Alias)
	}
	return s
}

// Binding returns the name the relation is addressed by.
func (tr TableRef) Binding() string {
	if tr.Alias != "" {
		return tr.Alias
	}
	return tr.Name
}

// ColumnRef is a possibly qualified attribute name.
type ColumnRef struct {
	Table string
	Name  string
}

func (cr ColumnRef) String() string {
	if cr.Table == "" {
		return cr.Name
	}
	return fmt.Sprintf("%s.%s", cr.Table, cr.Name)
}

// Condition is one WHERE conjunct: attr = attr or attr = literal. Literals
// are carried textually and cast during semantic analysis.
type Condition struct {
	Left      ColumnRef
	RightAttr *ColumnRef
	RightLit  string
}

func (c Condition) String() string {
	if c.RightAttr != nil {
		return fmt.Sprintf("%s = %s", c.Left, *c.RightAttr)
	}
	return fmt.Sprintf("%s = '%s'", c.Left, c.RightLit)
}

func printConditions(conds []Condition) string {
	if len(conds) == 0 {
		return ""
	}
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.String()
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

type SelectStmt struct {
	// Star selects every column of every relation.
	Star        bool
	Projections []ColumnRef
	Relations   []TableRef
	Conditions  []Condition
}

func (stmt *SelectStmt) String() string {
	var s strings.Builder
	s.WriteString("SELECT ")
	if stmt.Star {
		s.WriteString("*")
	} else {
		for i, p := range stmt.Projections {
			if i > 0 {
				s.WriteString(", ")
			}
			s.WriteString(p.String())
		}
	}
	s.WriteString(" FROM ")
	for i, r := range stmt.Relations {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(r.String())
	}
	s.WriteString(printConditions(stmt.Conditions))
	s.WriteString(";")
	return s.String()
}

type InsertStmt struct {
	Relation TableRef
	Columns  []string
	Values   []string
}

func (stmt *InsertStmt) String() string {
	var s strings.Builder
	s.WriteString(fmt.Sprintf("INSERT INTO %s (", stmt.Relation))
	s.WriteString(strings.Join(stmt.Columns, ", "))
	s.WriteString(") VALUES (")
	for i, v := range stmt.Values {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(fmt.Sprintf("'%s'", v))
	}
	s.WriteString(");")
	return s.String()
}

type UpdateSet struct {
	Column string
	Value  string
}

type UpdateStmt struct {
	Relation   TableRef
	Sets       []UpdateSet
	Conditions []Condition
}

func (stmt *UpdateStmt) String() string {
	var s strings.Builder
	s.WriteString(fmt.Sprintf("UPDATE %s SET ", stmt.Relation))
	for i, set := range stmt.Sets {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(fmt.Sprintf("%s = '%s'", set.Column, set.Value))
	}
	s.WriteString(printConditions(stmt.Conditions))
	s.WriteString(";")
	return s.String()
}

type DeleteStmt struct {
	Relation   TableRef
	Conditions []Condition
}

func (stmt *DeleteStmt) String() string {
	return fmt.Sprintf("DELETE FROM %s%s;", stmt.Relation, printConditions(stmt.Conditions))
}

type ColumnSpec struct {
	Name     string
	TypeName string
	Length   uint32
	Scale    uint32
	NotNull  bool
}

func (cs ColumnSpec) String() string {
	s := fmt.Sprintf("%s %s", cs.Name, strings.ToUpper(cs.TypeName))
	switch cs.TypeName {
	case "numeric":
		s += fmt.Sprintf("(%d,%d)", cs.Length, cs.Scale)
	case "char", "varchar":
		s += fmt.Sprintf("(%d)", cs.Length)
	}
	if cs.NotNull {
		s += " NOT NULL"
	}
	return s
}

type CreateTableStmt struct {
	Name    string
	Columns []ColumnSpec
}

func (stmt *CreateTableStmt) String() string {
	parts := make([]string, len(stmt.Columns))
	for i, cs := range stmt.Columns {
		parts[i] = cs.String()
	}
	return fmt.Sprintf("CREATE TABLE %s (%s);", stmt.Name, strings.Join(parts, ", "))
}

type CreateBranchStmt struct {
	Name   string
	Parent string
}

func (stmt *CreateBranchStmt) String() string {
	return fmt.Sprintf("CREATE BRANCH %s FROM %s;", stmt.Name, stmt.Parent)
}
