package query

import (
	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/expr"
	"github.com/tardisdb/tardis/parser"
	"github.com/tardisdb/tardis/plan"
	"github.com/tardisdb/tardis/sql"
)

// queryPlan carries the partial state of an analysis: the per-binding scan
// productions and the ius they produce.
type queryPlan struct {
	graph *joinGraph

	// ius maps binding -> column name -> iu.
	ius         map[string]map[string]*expr.IU
	tidIUs      map[string]*expr.IU
	productions map[string]plan.Operator
	branches    map[string]engine.BranchID
	scans       map[string]*plan.TableScan

	tree plan.Operator
}

// constructScans builds one table scan per relation and records the produced
// ius under the relation's binding.
func constructScans(db *engine.Database, f *expr.Factory, relations []parser.TableRef,
	qp *queryPlan) error {

	qp.graph = newJoinGraph()
	qp.ius = map[string]map[string]*expr.IU{}
	qp.tidIUs = map[string]*expr.IU{}
	qp.productions = map[string]plan.Operator{}
	qp.branches = map[string]engine.BranchID{}
	qp.scans = map[string]*plan.TableScan{}

	for _, rel := range relations {
		tbl, err := db.GetTable(rel.Name)
		if err != nil {
			return err
		}
		branch, err := db.LookupBranch(rel.Version)
		if err != nil {
			return err
		}

		binding := rel.Binding()
		scan := plan.NewTableScan(f, tbl, branch)

		qp.ius[binding] = map[string]*expr.IU{}
		for _, iu := range scan.ColumnIUs {
			qp.ius[binding][iu.Name] = iu
		}
		qp.tidIUs[binding] = scan.TidIU
		qp.productions[binding] = scan
		qp.branches[binding] = branch
		qp.scans[binding] = scan
	}
	return nil
}

// constructSelects applies every restriction (attr = literal, or attr = attr
// within one binding) as a select over the owning production; predicates
// across bindings become join graph edges.
func constructSelects(s scope, f *expr.Factory, conds []parser.Condition, qp *queryPlan) error {
	for _, cond := range conds {
		left, err := s.lookup(cond.Left)
		if err != nil {
			return err
		}
		leftIU := qp.ius[left.binding][left.ci.Name]

		if cond.RightAttr != nil {
			right, err := s.lookup(*cond.RightAttr)
			if err != nil {
				return err
			}
			rightIU := qp.ius[right.binding][right.ci.Name]

			cmp := &expr.Comparison{Mode: expr.Equal,
				Left:  &expr.Identifier{IU: leftIU},
				Right: &expr.Identifier{IU: rightIU}}

			if left.binding == right.binding {
				qp.productions[left.binding] =
					plan.NewSelect(f, qp.productions[left.binding], cmp)
			} else {
				qp.graph.addCondition(left.binding, right.binding, cmp)
			}
			continue
		}

		value, err := left.ci.Type.CastFromString(cond.RightLit)
		if err != nil {
			return &sql.SemanticError{Kind: sql.TypeMismatch, Ident: cond.Left.String()}
		}
		cmp := &expr.Comparison{Mode: expr.Equal,
			Left:  &expr.Identifier{IU: leftIU},
			Right: &expr.Constant{Value: value, Typ: left.ci.Type}}
		qp.productions[left.binding] = plan.NewSelect(f, qp.productions[left.binding], cmp)
	}
	return nil
}

// constructJoins feeds the productions into the join graph and realises the
// spanning tree.
func constructJoins(f *expr.Factory, relations []parser.TableRef, qp *queryPlan) {
	for _, rel := range relations {
		binding := rel.Binding()
		qp.graph.addVertex(binding, qp.productions[binding])
	}
	qp.tree = qp.graph.construct(f)
}

type selectAnalyser struct {
	db   *engine.Database
	f    *expr.Factory
	stmt *parser.SelectStmt
	mode plan.ResultMode
}

func (sa *selectAnalyser) analyse() (*Analysis, error) {
	s, err := constructScope(sa.db, sa.stmt.Relations)
	if err != nil {
		return nil, err
	}

	// every projection must resolve to exactly one binding
	projections := make([]parser.ColumnRef, len(sa.stmt.Projections))
	for i, proj := range sa.stmt.Projections {
		projections[i], err = s.fullyQualify(proj)
		if err != nil {
			return nil, err
		}
	}

	var qp queryPlan
	if err := constructScans(sa.db, sa.f, sa.stmt.Relations, &qp); err != nil {
		return nil, err
	}
	if err := constructSelects(s, sa.f, sa.stmt.Conditions, &qp); err != nil {
		return nil, err
	}
	constructJoins(sa.f, sa.stmt.Relations, &qp)

	var selection []*expr.IU
	if sa.stmt.Star {
		for _, rel := range sa.stmt.Relations {
			binding := rel.Binding()
			for _, iu := range qp.scans[binding].ColumnIUs {
				selection = append(selection, iu)
			}
		}
	} else {
		for _, proj := range projections {
			entry := s[proj.String()]
			selection = append(selection, qp.ius[entry.binding][entry.ci.Name])
		}
	}

	root := plan.NewResult(sa.f, qp.tree, selection, sa.mode)
	if err := plan.Validate(root); err != nil {
		return nil, err
	}

	branch := engine.MasterBranchID
	if len(sa.stmt.Relations) > 0 {
		branch = qp.branches[sa.stmt.Relations[0].Binding()]
	}
	return &Analysis{Plan: root, Branch: branch}, nil
}
