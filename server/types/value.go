package types

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// DateLayout is the only date format recognized in source files
const DateLayout = "2006-01-02"

// NormalizeValue reduces driver specific representations to one of nil,
// int64, float64, bool, string or time.Time (UTC).
func NormalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return float64(x)
		}
		return int64(x)
	case float32:
		return float64(x)
	case float64:
		return x
	case bool:
		return x
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		return x.UTC()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// NormalizeDate normalizes a value read from a date column to midnight UTC.
// Stores without a native date type hand back text.
func NormalizeDate(v any) any {
	switch x := NormalizeValue(v).(type) {
	case time.Time:
		return time.Date(x.Year(), x.Month(), x.Day(), 0, 0, 0, 0, time.UTC)
	case string:
		if t, err := time.Parse(DateLayout, x); err == nil {
			return t
		}
		return x
	default:
		return x
	}
}

// ValuesEqual compares two normalized values ignoring representation:
// integers compare exactly, mixed integers and floats compare numerically,
// times compare by instant.
func ValuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if ai, ok := a.(int64); ok {
		if bi, ok := b.(int64); ok {
			return ai == bi
		}
	}

	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			if math.IsNaN(af) && math.IsNaN(bf) {
				return true
			}
			return af == bf
		}
	}

	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Equal(bt)
		}
	}

	return FormatValue(a) == FormatValue(b)
}

// FormatValue renders a normalized value for messages and text comparison
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(DateLayout)
		}
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
