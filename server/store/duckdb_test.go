package store

import (
	"context"
	"testing"
	"time"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/config"
	"github.com/gear6io/parity/server/consistency"
	"github.com/gear6io/parity/server/export"
	"github.com/gear6io/parity/server/objectstore"
	"github.com/gear6io/parity/server/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDuckDB(t *testing.T) *Manager {
	t.Helper()
	m, err := Open(context.Background(), &config.DatabaseConfig{Driver: config.DriverDuckDB}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestDuckDBLoadExportAndCheck(t *testing.T) {
	ctx := context.Background()
	m := openDuckDB(t)
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
	assert.Equal(t, int64(1), frame.Rows[0][0])
	assert.Equal(t, 72.5, frame.Rows[0][1])
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), frame.Rows[0][2])
	assert.Equal(t, "John", frame.Rows[0][3])
	assert.Nil(t, frame.Rows[1][3], "empty cells load as NULL")

	exporter, err := export.NewExporter(m, objectstore.NewMemory("artifacts"), config.ExportConfig{}, zerolog.Nop())
	require.NoError(t, err)
	checker, err := consistency.NewChecker(m, exporter, config.ConsistencyConfig{}, zerolog.Nop())
	require.NoError(t, err)

	key, err := exporter.Export(ctx, "patients")
	require.NoError(t, err)
	assert.Equal(t, "output/patients.parquet", key)

	data, err := checker.CheckData(ctx, "patients")
	require.NoError(t, err)
	assert.True(t, data.OK)
	assert.Equal(t, 2, data.RowsCompared)

	schema, err := checker.CheckSchema(ctx, "patients")
	require.NoError(t, err)
	assert.True(t, schema.OK)
	assert.Equal(t, 4, schema.ColumnsCompared)

	_, err = m.Update(ctx, "patients", []Assignment{{Column: "name", Value: "Jon"}}, []Condition{{Column: "id", Value: int64(1)}})
	require.NoError(t, err)
	_, err = checker.CheckData(ctx, "patients")
	assert.True(t, errors.HasCode(err, consistency.ErrValueMismatch))
}

func TestDuckDBLoadMissingTable(t *testing.T) {
	m := openDuckDB(t)

	_, err := NewImporter(m, zerolog.Nop()).Load(context.Background(), "ghost", writeCSV(t, "id\n1\n"))
	assert.True(t, errors.HasCode(err, ErrLoadTableMissing))
}
