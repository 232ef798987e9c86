package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeValue(t *testing.T) {
	assert.Equal(t, int64(7), NormalizeValue(int32(7)))
	assert.Equal(t, float64(1.5), NormalizeValue(float32(1.5)))
	assert.Equal(t, "abc", NormalizeValue([]byte("abc")))
	assert.Nil(t, NormalizeValue(nil))

	loc := time.FixedZone("X", 3600)
	got := NormalizeValue(time.Date(2024, 1, 15, 1, 0, 0, 0, loc))
	assert.Equal(t, time.UTC, got.(time.Time).Location())
}

func TestNormalizeDate(t *testing.T) {
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, want, NormalizeDate("2024-01-15"))
	assert.Equal(t, want, NormalizeDate(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "not a date", NormalizeDate("not a date"))
	assert.Nil(t, NormalizeDate(nil))
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"int vs float", int64(3), float64(3), true},
		{"different numbers", int64(3), float64(3.5), false},
		{"both nil", nil, nil, true},
		{"nil vs zero", nil, int64(0), false},
		{"strings", "a", "a", true},
		{"nan", math.NaN(), math.NaN(), true},
		{"times", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"number vs numeric text", int64(12), "12", true},
		{"ints above float precision", int64(9007199254740993), int64(9007199254740992), false},
		{"equal large ints", int64(math.MaxInt64), int64(math.MaxInt64), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValuesEqual(tt.a, tt.b))
		})
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", FormatValue(nil))
	assert.Equal(t, "2024-01-15", FormatValue(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "0.25", FormatValue(0.25))
}

func TestColumnTypeString(t *testing.T) {
	for _, ct := range []ColumnType{TypeString, TypeInteger, TypeFloat, TypeDate} {
		parsed, ok := ParseColumnType(ct.String())
		assert.True(t, ok)
		assert.Equal(t, ct, parsed)
	}

	_, ok := ParseColumnType("decimal")
	assert.False(t, ok)
}
