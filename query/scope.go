package query

import (
	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/parser"
	"github.com/tardisdb/tardis/sql"
)

// A scope maps attribute names to their binding. Bare names that resolve to
// more than one relation stay in the scope with a nil column; using one is an
// ambiguity error.
type scopeEntry struct {
	binding string
	ci      *engine.ColumnInformation
}

type scope map[string]scopeEntry

// constructScope builds the name scope from every relation's columns.
func constructScope(db *engine.Database, relations []parser.TableRef) (scope, error) {
	s := scope{}
	for _, rel := range relations {
		tbl, err := db.GetTable(rel.Name)
		if err != nil {
			return nil, err
		}
		binding := rel.Binding()
		for _, ci := range tbl.Columns() {
			s[binding+"."+ci.Name] = scopeEntry{binding: binding, ci: ci}
			if _, dup := s[ci.Name]; dup {
				s[ci.Name] = scopeEntry{}
			} else {
				s[ci.Name] = scopeEntry{binding: binding, ci: ci}
			}
		}
	}
	return s, nil
}

// fullyQualify resolves a bare attribute to its unique binding.
func (s scope) fullyQualify(cr parser.ColumnRef) (parser.ColumnRef, error) {
	if cr.Table != "" {
		if _, ok := s[cr.String()]; !ok {
			return cr, &sql.SemanticError{Kind: sql.UnknownColumn, Ident: cr.String()}
		}
		return cr, nil
	}
	entry, ok := s[cr.Name]
	if !ok {
		return cr, &sql.SemanticError{Kind: sql.UnknownColumn, Ident: cr.Name}
	}
	if entry.ci == nil {
		return cr, &sql.SemanticError{Kind: sql.AmbiguousColumn, Ident: cr.Name}
	}
	return parser.ColumnRef{Table: entry.binding, Name: cr.Name}, nil
}

func (s scope) lookup(cr parser.ColumnRef) (scopeEntry, error) {
	cr, err := s.fullyQualify(cr)
	if err != nil {
		return scopeEntry{}, err
	}
	return s[cr.String()], nil
}
