package sql

import (
	"fmt"
	"math"
)

// Arithmetic on the scalar value model. Operands are non-null; NULL poisoning
// happens in the expression evaluator. NUMERIC keeps the operand scale for
// sums and differences, adds scales on multiplication, and saturates to the
// widest declarable precision.

func alignNumeric(v1, v2 Value) (NumericValue, NumericValue, error) {
	n1, ok1 := asNumeric(v1)
	n2, ok2 := asNumeric(v2)
	if !ok1 || !ok2 {
		return NumericValue{}, NumericValue{}, fmt.Errorf("engine: want number got %v %v", v1, v2)
	}
	scale := n1.Scale
	if n2.Scale > scale {
		scale = n2.Scale
	}
	return n1.Rescale(scale, MaxNumericLength), n2.Rescale(scale, MaxNumericLength), nil
}

func asNumeric(v Value) (NumericValue, bool) {
	switch v := v.(type) {
	case NumericValue:
		return v, true
	case Int64Value:
		return NumericValue{Digits: int64(v)}, true
	}
	return NumericValue{}, false
}

func bothInt64(v1, v2 Value) (int64, int64, bool) {
	i1, ok1 := v1.(Int64Value)
	i2, ok2 := v2.(Int64Value)
	return int64(i1), int64(i2), ok1 && ok2
}

func Add(v1, v2 Value) (Value, error) {
	if i1, i2, ok := bothInt64(v1, v2); ok {
		sum := i1 + i2
		if (sum > i1) != (i2 > 0) {
			return nil, &RuntimeError{Kind: Overflow}
		}
		return Int64Value(sum), nil
	}
	n1, n2, err := alignNumeric(v1, v2)
	if err != nil {
		return nil, err
	}
	return NumericValue{Digits: saturateNumeric(n1.Digits+n2.Digits, MaxNumericLength),
		Scale: n1.Scale}, nil
}

func Subtract(v1, v2 Value) (Value, error) {
	if i1, i2, ok := bothInt64(v1, v2); ok {
		diff := i1 - i2
		if (diff < i1) != (i2 > 0) {
			return nil, &RuntimeError{Kind: Overflow}
		}
		return Int64Value(diff), nil
	}
	n1, n2, err := alignNumeric(v1, v2)
	if err != nil {
		return nil, err
	}
	return NumericValue{Digits: saturateNumeric(n1.Digits-n2.Digits, MaxNumericLength),
		Scale: n1.Scale}, nil
}

func Multiply(v1, v2 Value) (Value, error) {
	if i1, i2, ok := bothInt64(v1, v2); ok {
		if i1 != 0 && (i1*i2)/i1 != i2 {
			return nil, &RuntimeError{Kind: Overflow}
		}
		return Int64Value(i1 * i2), nil
	}
	n1, ok1 := asNumeric(v1)
	n2, ok2 := asNumeric(v2)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("engine: want number got %v %v", v1, v2)
	}
	scale := n1.Scale + n2.Scale
	if n1.Digits != 0 && (n1.Digits*n2.Digits)/n1.Digits != n2.Digits {
		d := int64(numericLimit(MaxNumericLength))
		if (n1.Digits < 0) != (n2.Digits < 0) {
			d = -d
		}
		return NumericValue{Digits: d, Scale: scale}, nil
	}
	return NumericValue{Digits: saturateNumeric(n1.Digits*n2.Digits, MaxNumericLength),
		Scale: scale}, nil
}

func Divide(v1, v2 Value) (Value, error) {
	if i1, i2, ok := bothInt64(v1, v2); ok {
		if i2 == 0 {
			return nil, &RuntimeError{Kind: DivisionByZero}
		}
		if i1 == math.MinInt64 && i2 == -1 {
			return nil, &RuntimeError{Kind: Overflow}
		}
		return Int64Value(i1 / i2), nil
	}
	n1, ok1 := asNumeric(v1)
	n2, ok2 := asNumeric(v2)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("engine: want number got %v %v", v1, v2)
	}
	if n2.Digits == 0 {
		return nil, &RuntimeError{Kind: DivisionByZero}
	}
	// the quotient keeps the left operand's scale
	return NumericValue{Digits: saturateNumeric((n1.Digits*pow10(n2.Scale))/n2.Digits,
		MaxNumericLength), Scale: n1.Scale}, nil
}
