package types

import "strings"

// ColumnType is the type inferred for a column of a delimited file
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeInteger
	TypeFloat
	TypeDate
)

func (t ColumnType) String() string {
	switch t {
	case TypeInteger:
		return "Integer"
	case TypeFloat:
		return "Float"
	case TypeDate:
		return "Date"
	default:
		return "String"
	}
}

// ParseColumnType is the inverse of ColumnType.String, case-insensitive
func ParseColumnType(s string) (ColumnType, bool) {
	switch strings.ToLower(s) {
	case "integer":
		return TypeInteger, true
	case "float":
		return TypeFloat, true
	case "date":
		return TypeDate, true
	case "string":
		return TypeString, true
	}
	return TypeString, false
}

// Column is one entry of a ColumnSchema
type Column struct {
	Name string
	Type ColumnType
}

// ColumnSchema is ordered as the header of the source file
type ColumnSchema []Column

// Names returns the column names in order
func (s ColumnSchema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Canonical relational type names. Dialects normalize whatever their catalog
// reports to this vocabulary, which matches Postgres' information_schema.
const (
	RelBigint    = "bigint"
	RelInteger   = "integer"
	RelSmallint  = "smallint"
	RelDouble    = "double precision"
	RelReal      = "real"
	RelNumeric   = "numeric"
	RelDate      = "date"
	RelTimestamp = "timestamp without time zone"
	RelVarchar   = "character varying"
	RelText      = "text"
	RelBoolean   = "boolean"
)

// ColumnInfo is a column as reported by the relational store
type ColumnInfo struct {
	Name     string
	DataType string
}

// TableDescriptor describes a table created from a source file
type TableDescriptor struct {
	Name     string
	Source   string
	Schema   ColumnSchema
	RowCount int64
}
