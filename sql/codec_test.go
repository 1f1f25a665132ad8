package sql

import (
	"strings"
	"testing"
)

func TestSlotSize(t *testing.T) {
	cases := []struct {
		ct   ColumnType
		size uint32
	}{
		{BoolColType, 1},
		{IntColType, 4},
		{LongIntColType, 8},
		{NumericColType(6, 2, true), 8},
		{ColumnType{Type: DateType}, 8},
		{TimestampColType, 8},
		{ColumnType{Type: CharType, Length: 10}, 12},
		{VarcharColType(20, true), 22},
		{TextColType, 16},
	}

	for _, c := range cases {
		if size := c.ct.SlotSize(); size != c.size {
			t.Errorf("SlotSize(%s) got %d want %d", c.ct.DataType(), size, c.size)
		}
	}
}

func TestStoreLoad(t *testing.T) {
	var pool TextPool

	cases := []struct {
		ct ColumnType
		v  Value
	}{
		{BoolColType, BoolValue(true)},
		{IntColType, Int64Value(-12345)},
		{LongIntColType, Int64Value(1 << 40)},
		{NumericColType(6, 2, true), NumericValue{Digits: -1234, Scale: 2}},
		{ColumnType{Type: DateType, NotNull: true}, DateValue(-86400000)},
		{TimestampColType, TimestampValue(1234567)},
		{VarcharColType(8, true), StringValue("abc")},
		{TextColType, StringValue("short")},
		{TextColType, StringValue("fifteen bytes..")},
		{TextColType, StringValue("this one is longer than fifteen bytes")},
		{TextColType, StringValue(strings.Repeat("x", 1000))},
	}

	for _, c := range cases {
		slot := make([]byte, c.ct.SlotSize())
		if err := c.ct.StoreValue(slot, c.v, &pool); err != nil {
			t.Errorf("StoreValue(%s, %s) failed with %s", c.ct.DataType(), c.v, err)
			continue
		}
		v := c.ct.LoadValue(slot, &pool)
		if v != c.v {
			t.Errorf("LoadValue(%s) got %s want %s", c.ct.DataType(), v, c.v)
		}
	}
}

func TestTextInline(t *testing.T) {
	var pool TextPool

	// inline storage must not touch the pool
	slot := make([]byte, textSlotSize)
	if err := TextColType.StoreValue(slot, StringValue("tiny"), &pool); err != nil {
		t.Fatal(err)
	}
	if len(pool.data) != 0 {
		t.Errorf("inline text spilled %d bytes to the pool", len(pool.data))
	}

	long := StringValue("longer than the inline fifteen byte limit")
	if err := TextColType.StoreValue(slot, long, &pool); err != nil {
		t.Fatal(err)
	}
	if len(pool.data) != len(long) {
		t.Errorf("pooled text got %d bytes want %d", len(pool.data), len(long))
	}
}

func TestStoreVarcharTooLong(t *testing.T) {
	var pool TextPool
	ct := VarcharColType(2, true)
	slot := make([]byte, ct.SlotSize())
	if err := ct.StoreValue(slot, StringValue("abc"), &pool); err == nil {
		t.Errorf("StoreValue(VARCHAR(2), 'abc') did not fail")
	}
}
