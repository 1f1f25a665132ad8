package execute

import (
	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/expr"
	"github.com/tardisdb/tardis/sql"
)

// GroupBy hash-groups its input; the grouping keys are the Keep
// aggregations. Group results flow to the parent once the child is drained.
type GroupBy struct {
	parent Operator
	child  Operator
	specs  []aggSpec

	groups map[uint64][]*group
	order  []*group
}

type aggSpec struct {
	out  *expr.IU
	in   expr.Expr // nil for count(*)
	make expr.MakeAggregator
	key  bool
}

type group struct {
	keys []sql.Value
	aggs []expr.Aggregator
}

func (gb *GroupBy) children() []Operator      { return []Operator{gb.child} }
func (gb *GroupBy) setParent(parent Operator) { gb.parent = parent }

func (gb *GroupBy) Produce(ec *engine.ExecutionContext) error {
	gb.groups = map[uint64][]*group{}
	gb.order = nil

	if err := gb.child.Produce(ec); err != nil {
		return err
	}

	for _, g := range gb.order {
		if err := ec.Cancelled(); err != nil {
			return err
		}
		vals := make(expr.Values, len(gb.specs))
		for i, spec := range gb.specs {
			total, err := g.aggs[i].Total()
			if err != nil {
				return opError("group by", err)
			}
			vals[spec.out] = total
		}
		if err := gb.parent.Consume(ec, vals, gb); err != nil {
			return err
		}
	}
	gb.groups = nil
	gb.order = nil
	return nil
}

func (gb *GroupBy) Consume(ec *engine.ExecutionContext, vals expr.Values, _ Operator) error {
	var keys []sql.Value
	var h uint64
	first := true
	for _, spec := range gb.specs {
		if !spec.key {
			continue
		}
		v, err := expr.Eval(spec.in, vals)
		if err != nil {
			return opError("group by", err)
		}
		keys = append(keys, v)
		if first {
			h = sql.HashValue(v)
			first = false
		} else {
			h = sql.HashCombine(h, sql.HashValue(v))
		}
	}

	g := gb.findGroup(h, keys)
	for i, spec := range gb.specs {
		var v sql.Value
		if spec.in != nil {
			var err error
			v, err = expr.Eval(spec.in, vals)
			if err != nil {
				return opError("group by", err)
			}
		}
		if err := g.aggs[i].Accumulate(v); err != nil {
			return opError("group by", err)
		}
	}
	return nil
}

func (gb *GroupBy) findGroup(h uint64, keys []sql.Value) *group {
	for _, g := range gb.groups[h] {
		if groupKeysEqual(g.keys, keys) {
			return g
		}
	}
	g := &group{keys: keys}
	for _, spec := range gb.specs {
		g.aggs = append(g.aggs, spec.make())
	}
	gb.groups[h] = append(gb.groups[h], g)
	gb.order = append(gb.order, g)
	return g
}

func groupKeysEqual(a, b []sql.Value) bool {
	for i := range a {
		if a[i] == nil || b[i] == nil {
			if a[i] != b[i] {
				return false
			}
			continue
		}
		if !sql.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
