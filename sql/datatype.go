package sql

type DataType int

const (
	UnknownType DataType = iota
	BooleanType
	IntegerType
	LongIntegerType
	NumericType
	CharType
	VarcharType
	DateType
	TimestampType
	TextType
)

var dataTypes = map[DataType]string{
	UnknownType:     "UNKNOWN",
	BooleanType:     "BOOL",
	IntegerType:     "INTEGER",
	LongIntegerType: "LONGINTEGER",
	NumericType:     "NUMERIC",
	CharType:        "CHAR",
	VarcharType:     "VARCHAR",
	DateType:        "DATE",
	TimestampType:   "TIMESTAMP",
	TextType:        "TEXT",
}

func (dt DataType) String() string {
	return dataTypes[dt]
}
