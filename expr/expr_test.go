package expr

import (
	"testing"

	"github.com/tardisdb/tardis/sql"
)

func intConst(v int64) Expr {
	return &Constant{Value: sql.Int64Value(v), Typ: sql.IntColType}
}

func boolConst(v bool) Expr {
	return &Constant{Value: sql.BoolValue(v), Typ: sql.BoolColType}
}

func TestEval(t *testing.T) {
	var f Factory
	iu := f.TempIU(0, sql.IntColType, "a")
	vals := Values{iu: sql.Int64Value(10)}

	cases := []struct {
		e Expr
		v sql.Value
	}{
		{intConst(5), sql.Int64Value(5)},
		{&NullConstant{}, nil},
		{&Identifier{IU: iu}, sql.Int64Value(10)},
		{&Addition{Left: &Identifier{IU: iu}, Right: intConst(5)}, sql.Int64Value(15)},
		{&Subtraction{Left: intConst(5), Right: intConst(7)}, sql.Int64Value(-2)},
		{&Multiplication{Left: intConst(5), Right: intConst(7)}, sql.Int64Value(35)},
		{&Division{Left: intConst(7), Right: intConst(2)}, sql.Int64Value(3)},
		{&Comparison{Mode: Equal, Left: &Identifier{IU: iu}, Right: intConst(10)},
			sql.BoolValue(true)},
		{&Comparison{Mode: Less, Left: &Identifier{IU: iu}, Right: intConst(10)},
			sql.BoolValue(false)},
		{&Comparison{Mode: GreaterEqual, Left: &Identifier{IU: iu}, Right: intConst(10)},
			sql.BoolValue(true)},
		{&Comparison{Mode: NotEqual, Left: &Identifier{IU: iu}, Right: intConst(3)},
			sql.BoolValue(true)},
		{&Not{Operand: boolConst(true)}, sql.BoolValue(false)},
		{&Cast{Operand: &Identifier{IU: iu}, To: sql.NumericColType(6, 2, true)},
			sql.NumericValue{Digits: 1000, Scale: 2}},
	}

	for _, c := range cases {
		v, err := Eval(c.e, vals)
		if err != nil {
			t.Errorf("Eval(%s) failed with %s", c.e, err)
		} else if v != c.v {
			t.Errorf("Eval(%s) got %v want %v", c.e, v, c.v)
		}
	}
}

// NULL poisons arithmetic and comparisons; the logical connectives follow
// three-valued logic.
func TestEvalNull(t *testing.T) {
	null := &NullConstant{}

	cases := []struct {
		e Expr
		v sql.Value
	}{
		{&Addition{Left: null, Right: intConst(1)}, nil},
		{&Comparison{Mode: Equal, Left: null, Right: intConst(1)}, nil},
		{&Not{Operand: null}, nil},
		{&And{Left: boolConst(false), Right: null}, sql.BoolValue(false)},
		{&And{Left: boolConst(true), Right: null}, nil},
		{&And{Left: boolConst(true), Right: boolConst(true)}, sql.BoolValue(true)},
		{&Or{Left: boolConst(true), Right: null}, sql.BoolValue(true)},
		{&Or{Left: boolConst(false), Right: null}, nil},
		{&Or{Left: boolConst(false), Right: boolConst(false)}, sql.BoolValue(false)},
	}

	for _, c := range cases {
		v, err := Eval(c.e, Values{})
		if err != nil {
			t.Errorf("Eval(%s) failed with %s", c.e, err)
		} else if v != c.v {
			t.Errorf("Eval(%s) got %v want %v", c.e, v, c.v)
		}
	}

	// a NULL predicate is not true
	ok, err := EvalPredicate(&Comparison{Mode: Equal, Left: null, Right: intConst(1)}, Values{})
	if err != nil || ok {
		t.Errorf("EvalPredicate(NULL = 1) got %v, %v", ok, err)
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	_, err := Eval(&Division{Left: intConst(1), Right: intConst(0)}, Values{})
	re, ok := err.(*sql.RuntimeError)
	if !ok || re.Kind != sql.DivisionByZero {
		t.Errorf("Eval(1/0) got %v want division by zero", err)
	}
}

func TestCollectIUs(t *testing.T) {
	var f Factory
	a := f.TempIU(0, sql.IntColType, "a")
	b := f.TempIU(0, sql.IntColType, "b")
	c := f.TempIU(0, sql.IntColType, "c")

	e := &And{
		Left: &Comparison{Mode: Equal, Left: &Identifier{IU: a}, Right: intConst(1)},
		Right: &Comparison{Mode: Less,
			Left:  &Addition{Left: &Identifier{IU: b}, Right: &Identifier{IU: c}},
			Right: intConst(10)},
	}

	set := IUSet{}
	CollectIUs(e, set)
	if len(set) != 3 || !set.Contains(a) || !set.Contains(b) || !set.Contains(c) {
		t.Errorf("CollectIUs got %d ius want {a b c}", len(set))
	}
}

func TestAggregators(t *testing.T) {
	cases := []struct {
		name string
		agg  Aggregator
		in   []sql.Value
		out  sql.Value
	}{
		{"count", MakeCountAllAggregator(),
			[]sql.Value{sql.Int64Value(1), nil, sql.Int64Value(3)}, sql.Int64Value(3)},
		{"sum", MakeSumAggregator(),
			[]sql.Value{sql.Int64Value(1), sql.Int64Value(2), nil}, sql.Int64Value(3)},
		{"sum-empty", MakeSumAggregator(), []sql.Value{nil}, nil},
		{"min", MakeMinAggregator(),
			[]sql.Value{sql.Int64Value(5), sql.Int64Value(2), sql.Int64Value(9)},
			sql.Int64Value(2)},
		{"keep", MakeKeepAggregator(),
			[]sql.Value{sql.Int64Value(7), sql.Int64Value(8)}, sql.Int64Value(7)},
		{"avg", MakeAvgAggregator(0)(),
			[]sql.Value{sql.Int64Value(1), sql.Int64Value(2), sql.Int64Value(6)},
			sql.NumericValue{Digits: 3, Scale: 0}},
		{"avg-scaled", MakeAvgAggregator(2)(),
			[]sql.Value{sql.NumericValue{Digits: 100, Scale: 2},
				sql.NumericValue{Digits: 200, Scale: 2}},
			sql.NumericValue{Digits: 150, Scale: 2}},
	}

	for _, c := range cases {
		for _, v := range c.in {
			if err := c.agg.Accumulate(v); err != nil {
				t.Fatalf("%s: Accumulate failed with %s", c.name, err)
			}
		}
		v, err := c.agg.Total()
		if err != nil {
			t.Errorf("%s: Total failed with %s", c.name, err)
		} else if v != c.out {
			t.Errorf("%s: Total got %v want %v", c.name, v, c.out)
		}
	}
}
