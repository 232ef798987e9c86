package store

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/config"
	"github.com/gear6io/parity/server/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var patientSchema = types.ColumnSchema{
	{Name: "id", Type: types.TypeInteger},
	{Name: "weight", Type: types.TypeFloat},
	{Name: "seen", Type: types.TypeDate},
	{Name: "name", Type: types.TypeString},
}

func openSQLite(t *testing.T) *Manager {
	t.Helper()
	m, err := Open(context.Background(), &config.DatabaseConfig{Driver: config.DriverSQLite}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patients.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSQLiteLoadAndRead(t *testing.T) {
	ctx := context.Background()
	m := openSQLite(t)
	im := NewImporter(m, zerolog.Nop())

	require.NoError(t, m.CreateTable(ctx, "patients", patientSchema))

	path := writeCSV(t, "id,weight,seen,name\n1,72.5,2024-01-15,John\n2,80.25,2024-02-01,\n")
	n, err := im.Load(ctx, "patients", path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := im.RowCount(ctx, "patients")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	cols, err := m.Columns(ctx, "patients")
	require.NoError(t, err)
	assert.Equal(t, []types.ColumnInfo{
		{Name: "id", DataType: types.RelBigint},
		{Name: "weight", DataType: types.RelDouble},
		{Name: "seen", DataType: types.RelDate},
		{Name: "name", DataType: types.RelVarchar},
	}, cols)

	frame, err := m.Rows(ctx, "patients")
	require.NoError(t, err)
	require.Equal(t, 2, frame.NumRows())
	assert.Equal(t, []string{"id", "weight", "seen", "name"}, frame.Names())
	assert.Equal(t, int64(1), frame.Rows[0][0])
	assert.Equal(t, 72.5, frame.Rows[0][1])
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), frame.Rows[0][2])
	assert.Equal(t, "John", frame.Rows[0][3])
	assert.Nil(t, frame.Rows[1][3], "empty cells load as NULL")
}

func TestSQLiteLoadHeaderOrderDiffersFromTable(t *testing.T) {
	ctx := context.Background()
	m := openSQLite(t)
	im := NewImporter(m, zerolog.Nop())

	require.NoError(t, m.CreateTable(ctx, "patients", patientSchema))
	path := writeCSV(t, "name,seen,weight,id\nJohn,2024-01-15,72.5,1\n")

	_, err := im.Load(ctx, "patients", path)
	require.NoError(t, err)

	frame, err := m.Rows(ctx, "patients")
	require.NoError(t, err)
	assert.Equal(t, int64(1), frame.Rows[0][0])
	assert.Equal(t, "John", frame.Rows[0][3])
}

func TestSQLiteLoadBindsFloats(t *testing.T) {
	ctx := context.Background()
	m := openSQLite(t)
	im := NewImporter(m, zerolog.Nop())

	require.NoError(t, m.CreateTable(ctx, "readings", types.ColumnSchema{
		{Name: "v", Type: types.TypeFloat},
		{Name: "w", Type: types.TypeString},
	}))
	_, err := im.Load(ctx, "readings", writeCSV(t, "v,w\n1.5,a\n-Inf,b\n2,c\n"))
	require.NoError(t, err)

	frame, err := m.Rows(ctx, "readings")
	require.NoError(t, err)
	require.Equal(t, 3, frame.NumRows())
	assert.Equal(t, 1.5, frame.Rows[0][0])
	require.IsType(t, float64(0), frame.Rows[1][0])
	assert.True(t, math.IsInf(frame.Rows[1][0].(float64), -1))
	assert.Equal(t, 2.0, frame.Rows[2][0])

	require.NoError(t, m.ClearTable(ctx, "readings"))
	_, err = im.Load(ctx, "readings", writeCSV(t, "v,w\nheavy,a\n"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrLoadMalformedFile))
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()
	m := openSQLite(t)
	im := NewImporter(m, zerolog.Nop())

	_, err := im.Load(ctx, "patients", writeCSV(t, "id\n1\n"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrLoadTableMissing))
	assert.True(t, errors.HasCategory(err, errors.CategoryLoad))

	require.NoError(t, m.CreateTable(ctx, "patients", patientSchema))

	_, err = im.Load(ctx, "patients", writeCSV(t, "id,weight,seen\n1,2.5,2024-01-01\n"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrLoadColumnMismatch))

	_, err = im.Load(ctx, "patients", writeCSV(t, "id,weight,seen,name\n1,2.5,2024-01-01\n"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrLoadColumnMismatch))
	assert.Equal(t, "2", errors.GetContext(err)["line"])

	_, err = im.Load(ctx, "patients", writeCSV(t, "id,weight,seen,nickname\n1,2.5,2024-01-01,x\n"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrLoadHeaderMismatch))

	_, err = im.Load(ctx, "patients", filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrLoadFileOpenFailed))

	count, err := im.RowCount(ctx, "patients")
	require.NoError(t, err)
	assert.Zero(t, count, "failed loads must not leave rows behind")
}

func TestSQLiteCRUD(t *testing.T) {
	ctx := context.Background()
	m := openSQLite(t)
	im := NewImporter(m, zerolog.Nop())

	require.NoError(t, m.CreateTable(ctx, "patients", patientSchema))
	// creating twice is allowed
	require.NoError(t, m.CreateTable(ctx, "patients", patientSchema))

	require.NoError(t, m.Insert(ctx, "patients", []string{"id", "name"}, []any{int64(1), "Ann"}))
	require.NoError(t, m.Insert(ctx, "patients", []string{"id", "name"}, []any{int64(2), "Bob"}))

	n, err := m.Update(ctx, "patients", []Assignment{{Column: "name", Value: "Anne"}}, []Condition{{Column: "id", Value: int64(1)}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = m.Update(ctx, "patients", []Assignment{{Column: "weight", Value: 60.0}}, []Condition{{Column: "weight", Value: nil}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = m.Delete(ctx, "patients", []Condition{{Column: "name", Value: "Bob"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	frame, err := m.Rows(ctx, "patients")
	require.NoError(t, err)
	require.Equal(t, 1, frame.NumRows())
	assert.Equal(t, "Anne", frame.Rows[0][3])
	assert.Equal(t, 60.0, frame.Rows[0][1])

	require.NoError(t, m.ClearTable(ctx, "patients"))
	require.NoError(t, m.ClearTable(ctx, "patients"))
	count, err := im.RowCount(ctx, "patients")
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, m.DropTable(ctx, "patients"))
	require.NoError(t, m.DropTable(ctx, "patients"))
	_, err = m.Columns(ctx, "patients")
	assert.True(t, errors.HasCode(err, ErrTableNotFound))
}

func TestClearMissingTableIsStoreError(t *testing.T) {
	m := openSQLite(t)

	err := m.ClearTable(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryStore))
}
