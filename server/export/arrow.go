package export

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/types"
)

// ArrowType maps a canonical relational type to the columnar type it is
// exported as. Anything without a native mapping is written as utf8.
func ArrowType(relType string) arrow.DataType {
	switch relType {
	case types.RelBigint, types.RelInteger, types.RelSmallint:
		return arrow.PrimitiveTypes.Int64
	case types.RelDouble:
		return arrow.PrimitiveTypes.Float64
	case types.RelReal:
		return arrow.PrimitiveTypes.Float32
	case types.RelDate:
		return arrow.FixedWidthTypes.Date32
	case types.RelBoolean:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

// ArrowSchema builds the columnar schema for a frame read from the store
func ArrowSchema(frame *types.Frame) *arrow.Schema {
	fields := make([]arrow.Field, len(frame.Fields))
	for i, f := range frame.Fields {
		fields[i] = arrow.Field{Name: f.Name, Type: ArrowType(f.Type), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// FrameToRecord converts a store frame to a single Arrow record. The caller
// owns the record and must Release it.
func FrameToRecord(mem memory.Allocator, frame *types.Frame) (arrow.Record, error) {
	schema := ArrowSchema(frame)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for col, field := range schema.Fields() {
		fb := b.Field(col)
		fb.Reserve(len(frame.Rows))
		for row, values := range frame.Rows {
			if err := appendValue(fb, values[col]); err != nil {
				return nil, err.
					AddContext("column", field.Name).
					AddContext("row", strconv.Itoa(row)).
					AddContext("arrow_type", field.Type.Name())
			}
		}
	}

	return b.NewRecord(), nil
}

func appendValue(b array.Builder, value any) *errors.Error {
	if value == nil {
		b.AppendNull()
		return nil
	}

	switch fb := b.(type) {
	case *array.Int64Builder:
		switch v := value.(type) {
		case int64:
			fb.Append(v)
			return nil
		case float64:
			if v == math.Trunc(v) && !math.IsInf(v, 0) {
				fb.Append(int64(v))
				return nil
			}
		}
	case *array.Float64Builder:
		switch v := value.(type) {
		case float64:
			fb.Append(v)
			return nil
		case int64:
			fb.Append(float64(v))
			return nil
		}
	case *array.Float32Builder:
		switch v := value.(type) {
		case float64:
			fb.Append(float32(v))
			return nil
		case int64:
			fb.Append(float32(v))
			return nil
		}
	case *array.Date32Builder:
		switch v := value.(type) {
		case time.Time:
			fb.Append(arrow.Date32FromTime(v))
			return nil
		case string:
			if t, err := time.Parse(types.DateLayout, v); err == nil {
				fb.Append(arrow.Date32FromTime(t))
				return nil
			}
		}
	case *array.BooleanBuilder:
		switch v := value.(type) {
		case bool:
			fb.Append(v)
			return nil
		case int64:
			fb.Append(v != 0)
			return nil
		}
	case *array.StringBuilder:
		if v, ok := value.(string); ok {
			fb.Append(v)
		} else {
			fb.Append(types.FormatValue(value))
		}
		return nil
	}

	return errors.New(ExportTypeMismatch, "value does not fit the column type", nil).
		AddContext("value_type", fmt.Sprintf("%T", value))
}

// TableToFrame reads an Arrow table into a frame whose field types are the
// Arrow type names (int64, float64, date32, utf8, ...)
func TableToFrame(tbl arrow.Table) *types.Frame {
	schema := tbl.Schema()
	frame := &types.Frame{
		Fields: make([]types.Field, schema.NumFields()),
		Rows:   make([][]any, tbl.NumRows()),
	}
	for i, f := range schema.Fields() {
		frame.Fields[i] = types.Field{Name: f.Name, Type: f.Type.Name()}
	}
	for i := range frame.Rows {
		frame.Rows[i] = make([]any, len(frame.Fields))
	}

	for col := 0; col < int(tbl.NumCols()); col++ {
		offset := 0
		for _, chunk := range tbl.Column(col).Data().Chunks() {
			for j := 0; j < chunk.Len(); j++ {
				frame.Rows[offset+j][col] = cellValue(chunk, j)
			}
			offset += chunk.Len()
		}
	}
	return frame
}

// cellValue returns the normalized value at position i
func cellValue(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}

	switch a := arr.(type) {
	case *array.Int64:
		return a.Value(i)
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Date32:
		return a.Value(i).ToTime().UTC()
	case *array.Boolean:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	default:
		return a.ValueStr(i)
	}
}
