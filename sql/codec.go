package sql

import (
	"encoding/binary"
	"fmt"
)

// Fixed-width binary images for column slots and packed version storage.
// TEXT is a discriminated small string: up to MaxInlineText bytes live inline
// in the 16 byte slot; longer values are appended to a pool and the slot
// holds the {start, end} byte offsets.

const textSlotSize = 16

// TextPool is the append-only byte pool backing out-of-line TEXT values.
// Offsets handed out remain valid for the lifetime of the pool.
type TextPool struct {
	data []byte
}

func (tp *TextPool) put(s string) (uint32, uint32) {
	start := uint32(len(tp.data))
	tp.data = append(tp.data, s...)
	return start, uint32(len(tp.data))
}

func (tp *TextPool) get(start, end uint32) string {
	return string(tp.data[start:end])
}

// SlotSize is the fixed byte width of one column slot of this type.
func (ct ColumnType) SlotSize() uint32 {
	switch ct.Type {
	case BooleanType:
		return 1
	case IntegerType:
		return 4
	case LongIntegerType, NumericType, DateType, TimestampType:
		return 8
	case CharType, VarcharType:
		return 2 + ct.Length
	case TextType:
		return textSlotSize
	}
	panic(fmt.Sprintf("unexpected data type: %s", ct.Type))
}

// StoreValue writes the binary image of a non-null value into dst, which must
// be SlotSize bytes. TEXT spills to the pool when it does not fit inline.
func (ct ColumnType) StoreValue(dst []byte, v Value, pool *TextPool) error {
	switch ct.Type {
	case BooleanType:
		if v.(BoolValue) {
			dst[0] = 1
		} else {
			dst[0] = 0
		}
	case IntegerType:
		binary.LittleEndian.PutUint32(dst, uint32(int32(v.(Int64Value))))
	case LongIntegerType:
		binary.LittleEndian.PutUint64(dst, uint64(v.(Int64Value)))
	case NumericType:
		binary.LittleEndian.PutUint64(dst, uint64(v.(NumericValue).Digits))
	case DateType:
		binary.LittleEndian.PutUint64(dst, uint64(v.(DateValue)))
	case TimestampType:
		binary.LittleEndian.PutUint64(dst, uint64(v.(TimestampValue)))
	case CharType, VarcharType:
		s := string(v.(StringValue))
		if uint32(len(s)) > ct.Length {
			return invalidCast(s, ct)
		}
		binary.LittleEndian.PutUint16(dst, uint16(len(s)))
		copy(dst[2:], s)
	case TextType:
		s := string(v.(StringValue))
		if len(s) <= MaxInlineText {
			dst[0] = byte(len(s))
			copy(dst[1:], s)
		} else {
			start, end := pool.put(s)
			dst[0] = 0xff
			binary.LittleEndian.PutUint32(dst[4:], start)
			binary.LittleEndian.PutUint32(dst[8:], end)
		}
	default:
		panic(fmt.Sprintf("unexpected data type: %s", ct.Type))
	}
	return nil
}

// LoadValue reads the binary image back into a value.
func (ct ColumnType) LoadValue(src []byte, pool *TextPool) Value {
	switch ct.Type {
	case BooleanType:
		return BoolValue(src[0] != 0)
	case IntegerType:
		return Int64Value(int32(binary.LittleEndian.Uint32(src)))
	case LongIntegerType:
		return Int64Value(binary.LittleEndian.Uint64(src))
	case NumericType:
		return NumericValue{Digits: int64(binary.LittleEndian.Uint64(src)), Scale: ct.Scale}
	case DateType:
		return DateValue(binary.LittleEndian.Uint64(src))
	case TimestampType:
		return TimestampValue(binary.LittleEndian.Uint64(src))
	case CharType, VarcharType:
		n := binary.LittleEndian.Uint16(src)
		return StringValue(src[2 : 2+n])
	case TextType:
		if src[0] != 0xff {
			return StringValue(src[1 : 1+src[0]])
		}
		start := binary.LittleEndian.Uint32(src[4:])
		end := binary.LittleEndian.Uint32(src[8:])
		return StringValue(pool.get(start, end))
	}
	panic(fmt.Sprintf("unexpected data type: %s", ct.Type))
}
