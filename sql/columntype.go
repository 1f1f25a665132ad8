package sql

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxNumericLength is the largest declarable NUMERIC precision; the scaled
	// representation must fit in an int64.
	MaxNumericLength = 18

	// MaxInlineText is the longest TEXT value stored inline in a column slot.
	MaxInlineText = 15
)

type ColumnType struct {
	Type DataType

	// Length is the precision for NUMERIC and the character count for CHAR
	// and VARCHAR; zero otherwise.
	Length uint32
	// Scale is the digit count right of the decimal point for NUMERIC.
	Scale uint32

	NotNull bool
}

var (
	BoolColType      = ColumnType{Type: BooleanType, NotNull: true}
	IntColType       = ColumnType{Type: IntegerType, NotNull: true}
	LongIntColType   = ColumnType{Type: LongIntegerType, NotNull: true}
	TextColType      = ColumnType{Type: TextType, NotNull: true}
	NullTextColType  = ColumnType{Type: TextType}
	TimestampColType = ColumnType{Type: TimestampType, NotNull: true}
)

func NumericColType(length, scale uint32, notNull bool) ColumnType {
	return ColumnType{Type: NumericType, Length: length, Scale: scale, NotNull: notNull}
}

func VarcharColType(length uint32, notNull bool) ColumnType {
	return ColumnType{Type: VarcharType, Length: length, NotNull: notNull}
}

// Equal reports whether two types match in tag, parameters, and nullability.
func (ct ColumnType) Equal(ct2 ColumnType) bool {
	return ct == ct2
}

func (ct ColumnType) DataType() string {
	switch ct.Type {
	case NumericType:
		return fmt.Sprintf("NUMERIC(%d,%d)", ct.Length, ct.Scale)
	case CharType:
		return fmt.Sprintf("CHAR(%d)", ct.Length)
	case VarcharType:
		return fmt.Sprintf("VARCHAR(%d)", ct.Length)
	}
	return ct.Type.String()
}

var (
	dateFormat       = "2006-01-02"
	timestampFormats = []string{
		"2006-01-02 15:04:05.0000",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
)

// CastFromString converts the textual form of a value into the in-memory
// representation declared by ct.
func (ct ColumnType) CastFromString(s string) (Value, error) {
	switch ct.Type {
	case BooleanType:
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "t", "true", "1":
			return BoolValue(true), nil
		case "f", "false", "0":
			return BoolValue(false), nil
		}
		return nil, invalidCast(s, ct)
	case IntegerType:
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		if err != nil {
			return nil, invalidCast(s, ct)
		}
		return Int64Value(i), nil
	case LongIntegerType:
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, invalidCast(s, ct)
		}
		return Int64Value(i), nil
	case NumericType:
		n, err := parseNumeric(strings.TrimSpace(s), ct.Length, ct.Scale)
		if err != nil {
			return nil, invalidCast(s, ct)
		}
		return n, nil
	case CharType, VarcharType:
		if uint32(len(s)) > ct.Length {
			return nil, invalidCast(s, ct)
		}
		return StringValue(s), nil
	case TextType:
		return StringValue(s), nil
	case DateType:
		t, err := time.ParseInLocation(dateFormat, strings.TrimSpace(s), time.UTC)
		if err != nil {
			return nil, invalidCast(s, ct)
		}
		return DateValue(t.UnixNano() / int64(time.Millisecond)), nil
	case TimestampType:
		s := strings.TrimSpace(s)
		for _, f := range timestampFormats {
			t, err := time.ParseInLocation(f, s, time.UTC)
			if err == nil {
				return TimestampValue(t.UnixNano() / int64(time.Millisecond)), nil
			}
		}
		return nil, invalidCast(s, ct)
	}
	return nil, invalidCast(s, ct)
}

func invalidCast(s string, ct ColumnType) error {
	return &RuntimeError{Kind: InvalidCast,
		Detail: fmt.Sprintf("cannot cast '%s' to %s", s, ct.DataType())}
}

// parseNumeric reads an optionally signed decimal with up to scale fractional
// digits into the scaled int64 representation.
func parseNumeric(s string, length, scale uint32) (NumericValue, error) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	whole := s
	frac := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		whole = s[:dot]
		frac = s[dot+1:]
	}
	if whole == "" && frac == "" {
		return NumericValue{}, fmt.Errorf("empty numeric")
	}
	if uint32(len(frac)) > scale {
		frac = frac[:scale] // excess fractional digits are truncated
	}
	for uint32(len(frac)) < scale {
		frac += "0"
	}
	digits := whole + frac
	if digits == "" {
		digits = "0"
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return NumericValue{}, err
	}
	v = saturateNumeric(v, length)
	if neg {
		v = -v
	}
	return NumericValue{Digits: v, Scale: scale}, nil
}

func numericLimit(length uint32) int64 {
	if length == 0 || length > MaxNumericLength {
		length = MaxNumericLength
	}
	limit := int64(1)
	for i := uint32(0); i < length; i++ {
		limit *= 10
	}
	return limit - 1
}

// saturateNumeric clamps the scaled magnitude to the declared precision.
func saturateNumeric(v int64, length uint32) int64 {
	limit := numericLimit(length)
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

// ConvertValue coerces v to the column type, casting strings through
// CastFromString. A nil value stays nil unless the column is NOT NULL.
func (ct ColumnType) ConvertValue(name string, v Value) (Value, error) {
	if v == nil {
		if ct.NotNull {
			return nil, fmt.Errorf("column \"%s\" may not be NULL", name)
		}
		return nil, nil
	}

	switch ct.Type {
	case BooleanType:
		if _, ok := v.(BoolValue); ok {
			return v, nil
		}
	case IntegerType, LongIntegerType:
		switch v := v.(type) {
		case Int64Value:
			return v, nil
		case NumericValue:
			return Int64Value(v.Digits / pow10(v.Scale)), nil
		}
	case NumericType:
		switch v := v.(type) {
		case NumericValue:
			return v.Rescale(ct.Scale, ct.Length), nil
		case Int64Value:
			return NumericValue{Digits: saturateNumeric(int64(v)*pow10(ct.Scale), ct.Length),
				Scale: ct.Scale}, nil
		}
	case CharType, VarcharType:
		if s, ok := v.(StringValue); ok {
			if uint32(len(s)) > ct.Length {
				return nil, invalidCast(string(s), ct)
			}
			return v, nil
		}
	case TextType:
		if _, ok := v.(StringValue); ok {
			return v, nil
		}
	case DateType:
		if _, ok := v.(DateValue); ok {
			return v, nil
		}
	case TimestampType:
		if _, ok := v.(TimestampValue); ok {
			return v, nil
		}
	}

	if s, ok := v.(StringValue); ok {
		return ct.CastFromString(string(s))
	}
	return nil, fmt.Errorf("column \"%s\": expected a %s value: %v", name, ct.DataType(), v)
}
