package expr

import (
	"fmt"

	"github.com/tardisdb/tardis/sql"
)

// Scalar expression trees. Evaluation takes an iu -> value mapping; null
// propagation follows SQL ternary logic for the logical connectives and
// poisons arithmetic and comparisons.

type Expr interface {
	fmt.Stringer

	Type() sql.ColumnType
}

type Constant struct {
	Value sql.Value
	Typ   sql.ColumnType
}

func (c *Constant) Type() sql.ColumnType { return c.Typ }

func (c *Constant) String() string { return sql.Format(c.Value) }

type NullConstant struct{}

func (_ *NullConstant) Type() sql.ColumnType { return sql.ColumnType{Type: sql.UnknownType} }

func (_ *NullConstant) String() string { return sql.NullString }

type Identifier struct {
	IU *IU
}

func (id *Identifier) Type() sql.ColumnType { return id.IU.Type }

func (id *Identifier) String() string { return id.IU.Name }

type Cast struct {
	Operand Expr
	To      sql.ColumnType
}

func (c *Cast) Type() sql.ColumnType { return c.To }

func (c *Cast) String() string {
	return fmt.Sprintf("CAST(%s AS %s)", c.Operand, c.To.DataType())
}

type Not struct {
	Operand Expr
}

func (n *Not) Type() sql.ColumnType { return sql.BoolColType }

func (n *Not) String() string { return fmt.Sprintf("(NOT %s)", n.Operand) }

type And struct {
	Left, Right Expr
}

func (a *And) Type() sql.ColumnType { return sql.BoolColType }

func (a *And) String() string { return fmt.Sprintf("(%s AND %s)", a.Left, a.Right) }

type Or struct {
	Left, Right Expr
}

func (o *Or) Type() sql.ColumnType { return sql.BoolColType }

func (o *Or) String() string { return fmt.Sprintf("(%s OR %s)", o.Left, o.Right) }

type Addition struct {
	Left, Right Expr
}

func (a *Addition) Type() sql.ColumnType { return arithType(a.Left, a.Right) }

func (a *Addition) String() string { return fmt.Sprintf("(%s + %s)", a.Left, a.Right) }

type Subtraction struct {
	Left, Right Expr
}

func (s *Subtraction) Type() sql.ColumnType { return arithType(s.Left, s.Right) }

func (s *Subtraction) String() string { return fmt.Sprintf("(%s - %s)", s.Left, s.Right) }

type Multiplication struct {
	Left, Right Expr
}

func (m *Multiplication) Type() sql.ColumnType {
	lt, rt := m.Left.Type(), m.Right.Type()
	if lt.Type == sql.NumericType || rt.Type == sql.NumericType {
		return sql.NumericColType(sql.MaxNumericLength, lt.Scale+rt.Scale, false)
	}
	return arithType(m.Left, m.Right)
}

func (m *Multiplication) String() string { return fmt.Sprintf("(%s * %s)", m.Left, m.Right) }

type Division struct {
	Left, Right Expr
}

func (d *Division) Type() sql.ColumnType { return arithType(d.Left, d.Right) }

func (d *Division) String() string { return fmt.Sprintf("(%s / %s)", d.Left, d.Right) }

func arithType(l, r Expr) sql.ColumnType {
	lt, rt := l.Type(), r.Type()
	if lt.Type == sql.NumericType {
		return sql.ColumnType{Type: sql.NumericType, Length: sql.MaxNumericLength,
			Scale: maxScale(lt.Scale, rt.Scale)}
	}
	if rt.Type == sql.NumericType {
		return sql.ColumnType{Type: sql.NumericType, Length: sql.MaxNumericLength,
			Scale: maxScale(lt.Scale, rt.Scale)}
	}
	return lt
}

func maxScale(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

type ComparisonMode int

const (
	Equal ComparisonMode = iota
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual
)

var comparisonModes = map[ComparisonMode]string{
	Equal:        "=",
	NotEqual:     "<>",
	Less:         "<",
	LessEqual:    "<=",
	Greater:      ">",
	GreaterEqual: ">=",
}

func (cm ComparisonMode) String() string { return comparisonModes[cm] }

type Comparison struct {
	Mode        ComparisonMode
	Left, Right Expr
}

func (c *Comparison) Type() sql.ColumnType { return sql.BoolColType }

func (c *Comparison) String() string {
	return fmt.Sprintf("(%s %s %s)", c.Left, c.Mode, c.Right)
}

// Eval evaluates an expression over the given iu values.
func Eval(e Expr, vals Values) (sql.Value, error) {
	switch e := e.(type) {
	case *Constant:
		return e.Value, nil
	case *NullConstant:
		return nil, nil
	case *Identifier:
		return vals[e.IU], nil
	case *Cast:
		v, err := Eval(e.Operand, vals)
		if err != nil {
			return nil, err
		}
		return e.To.ConvertValue(e.Operand.String(), v)
	case *Not:
		v, err := Eval(e.Operand, vals)
		if err != nil || v == nil {
			return nil, err
		}
		b, ok := v.(sql.BoolValue)
		if !ok {
			return nil, fmt.Errorf("engine: want boolean got %v", v)
		}
		return sql.BoolValue(!b), nil
	case *And:
		return evalAnd(e.Left, e.Right, vals)
	case *Or:
		return evalOr(e.Left, e.Right, vals)
	case *Addition:
		return evalArith(e.Left, e.Right, vals, sql.Add)
	case *Subtraction:
		return evalArith(e.Left, e.Right, vals, sql.Subtract)
	case *Multiplication:
		return evalArith(e.Left, e.Right, vals, sql.Multiply)
	case *Division:
		return evalArith(e.Left, e.Right, vals, sql.Divide)
	case *Comparison:
		l, err := Eval(e.Left, vals)
		if err != nil {
			return nil, err
		}
		r, err := Eval(e.Right, vals)
		if err != nil {
			return nil, err
		}
		if l == nil || r == nil {
			return nil, nil
		}
		cmp, err := l.Compare(r)
		if err != nil {
			return nil, err
		}
		switch e.Mode {
		case Equal:
			return sql.BoolValue(cmp == 0), nil
		case NotEqual:
			return sql.BoolValue(cmp != 0), nil
		case Less:
			return sql.BoolValue(cmp < 0), nil
		case LessEqual:
			return sql.BoolValue(cmp <= 0), nil
		case Greater:
			return sql.BoolValue(cmp > 0), nil
		case GreaterEqual:
			return sql.BoolValue(cmp >= 0), nil
		}
	}
	panic("missing case for expr")
}

func evalArith(le, re Expr, vals Values,
	op func(sql.Value, sql.Value) (sql.Value, error)) (sql.Value, error) {

	l, err := Eval(le, vals)
	if err != nil {
		return nil, err
	}
	r, err := Eval(re, vals)
	if err != nil {
		return nil, err
	}
	if l == nil || r == nil {
		return nil, nil
	}
	return op(l, r)
}

func evalAnd(le, re Expr, vals Values) (sql.Value, error) {
	l, err := evalBool(le, vals)
	if err != nil {
		return nil, err
	}
	r, err := evalBool(re, vals)
	if err != nil {
		return nil, err
	}
	if l != nil && !bool(*l) || r != nil && !bool(*r) {
		return sql.BoolValue(false), nil
	}
	if l == nil || r == nil {
		return nil, nil
	}
	return sql.BoolValue(true), nil
}

func evalOr(le, re Expr, vals Values) (sql.Value, error) {
	l, err := evalBool(le, vals)
	if err != nil {
		return nil, err
	}
	r, err := evalBool(re, vals)
	if err != nil {
		return nil, err
	}
	if l != nil && bool(*l) || r != nil && bool(*r) {
		return sql.BoolValue(true), nil
	}
	if l == nil || r == nil {
		return nil, nil
	}
	return sql.BoolValue(false), nil
}

func evalBool(e Expr, vals Values) (*sql.BoolValue, error) {
	v, err := Eval(e, vals)
	if err != nil || v == nil {
		return nil, err
	}
	b, ok := v.(sql.BoolValue)
	if !ok {
		return nil, fmt.Errorf("engine: want boolean got %v", v)
	}
	return &b, nil
}

// EvalPredicate evaluates a condition; a NULL result is not true.
func EvalPredicate(e Expr, vals Values) (bool, error) {
	v, err := Eval(e, vals)
	if err != nil || v == nil {
		return false, err
	}
	b, ok := v.(sql.BoolValue)
	if !ok {
		return false, fmt.Errorf("engine: want boolean got %v", v)
	}
	return bool(b), nil
}

// CollectIUs adds every iu referenced by the expression to set.
func CollectIUs(e Expr, set IUSet) {
	switch e := e.(type) {
	case *Constant, *NullConstant:
	case *Identifier:
		set.Add(e.IU)
	case *Cast:
		CollectIUs(e.Operand, set)
	case *Not:
		CollectIUs(e.Operand, set)
	case *And:
		CollectIUs(e.Left, set)
		CollectIUs(e.Right, set)
	case *Or:
		CollectIUs(e.Left, set)
		CollectIUs(e.Right, set)
	case *Addition:
		CollectIUs(e.Left, set)
		CollectIUs(e.Right, set)
	case *Subtraction:
		CollectIUs(e.Left, set)
		CollectIUs(e.Right, set)
	case *Multiplication:
		CollectIUs(e.Left, set)
		CollectIUs(e.Right, set)
	case *Division:
		CollectIUs(e.Left, set)
		CollectIUs(e.Right, set)
	case *Comparison:
		CollectIUs(e.Left, set)
		CollectIUs(e.Right, set)
	default:
		panic("missing case for expr")
	}
}
