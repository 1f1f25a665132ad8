package execute

import (
	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/expr"
	"github.com/tardisdb/tardis/sql"
)

// HashJoin drains its left child into a chained hash table, then probes with
// the right child. Probing recomputes every join equality to guard against
// hash collisions; each match emits the union of both iu mappings.
type HashJoin struct {
	parent Operator
	left   Operator
	right  Operator

	// leftExprs[i] = rightExprs[i] is the i-th join equality.
	leftExprs  []expr.Expr
	rightExprs []expr.Expr

	// buildIUs is the left required set stored per build tuple.
	buildIUs []*expr.IU

	table    map[uint64][]*joinNode
	building bool
}

type joinNode struct {
	hash uint64
	vals expr.Values
}

func (join *HashJoin) children() []Operator      { return []Operator{join.left, join.right} }
func (join *HashJoin) setParent(parent Operator) { join.parent = parent }

func (join *HashJoin) Produce(ec *engine.ExecutionContext) error {
	join.table = map[uint64][]*joinNode{}

	join.building = true
	if err := join.left.Produce(ec); err != nil {
		return err
	}
	join.building = false

	if err := join.right.Produce(ec); err != nil {
		return err
	}
	join.table = nil
	return nil
}

// joinHash combines the key hashes left-to-right.
func joinHash(exprs []expr.Expr, vals expr.Values) (uint64, error) {
	var seed uint64
	for i, e := range exprs {
		v, err := expr.Eval(e, vals)
		if err != nil {
			return 0, err
		}
		h := sql.HashValue(v)
		if i == 0 {
			seed = h
		} else {
			seed = sql.HashCombine(seed, h)
		}
	}
	return seed, nil
}

func (join *HashJoin) Consume(ec *engine.ExecutionContext, vals expr.Values, _ Operator) error {
	if join.building {
		return join.consumeLeft(vals)
	}
	return join.consumeRight(ec, vals)
}

func (join *HashJoin) consumeLeft(vals expr.Values) error {
	h, err := joinHash(join.leftExprs, vals)
	if err != nil {
		return opError("hash join", err)
	}

	stored := make(expr.Values, len(join.buildIUs))
	for _, iu := range join.buildIUs {
		stored[iu] = vals[iu]
	}
	join.table[h] = append(join.table[h], &joinNode{hash: h, vals: stored})
	return nil
}

func (join *HashJoin) consumeRight(ec *engine.ExecutionContext, vals expr.Values) error {
	h, err := joinHash(join.rightExprs, vals)
	if err != nil {
		return opError("hash join", err)
	}

	for _, node := range join.table[h] {
		if err := ec.Cancelled(); err != nil {
			return err
		}

		match := true
		for i := range join.leftExprs {
			lv, err := expr.Eval(join.leftExprs[i], node.vals)
			if err != nil {
				return opError("hash join", err)
			}
			rv, err := expr.Eval(join.rightExprs[i], vals)
			if err != nil {
				return opError("hash join", err)
			}
			if !sql.Equal(lv, rv) {
				match = false
				break
			}
		}
		if !match {
			continue
		}

		merged := make(expr.Values, len(vals)+len(node.vals))
		for iu, v := range node.vals {
			merged[iu] = v
		}
		for iu, v := range vals {
			merged[iu] = v
		}
		if err := join.parent.Consume(ec, merged, join); err != nil {
			return err
		}
	}
	return nil
}
