package consistency

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/config"
	"github.com/gear6io/parity/server/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	frame *types.Frame
	cols  []types.ColumnInfo
}

func (f *fakeStore) Rows(ctx context.Context, table string) (*types.Frame, error) {
	return f.frame, nil
}

func (f *fakeStore) Columns(ctx context.Context, table string) ([]types.ColumnInfo, error) {
	return f.cols, nil
}

type fakeArtifacts struct {
	frame *types.Frame
	err   error
}

func (f *fakeArtifacts) Fetch(ctx context.Context, table string) (*types.Frame, error) {
	return f.frame, f.err
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func liveFrame() *types.Frame {
	return &types.Frame{
		Fields: []types.Field{
			{Name: "id", Type: types.RelBigint},
			{Name: "weight", Type: types.RelDouble},
			{Name: "seen", Type: types.RelDate},
			{Name: "name", Type: types.RelVarchar},
		},
		Rows: [][]any{
			{int64(1), 72.0, day(2024, 1, 15), "John"},
			{int64(2), math.NaN(), nil, nil},
		},
	}
}

func artifactFrame() *types.Frame {
	return &types.Frame{
		Fields: []types.Field{
			{Name: "id", Type: "int64"},
			{Name: "weight", Type: "float64"},
			{Name: "seen", Type: "date32"},
			{Name: "name", Type: "utf8"},
		},
		Rows: [][]any{
			{int64(1), int64(72), day(2024, 1, 15), "John"},
			{int64(2), math.NaN(), nil, nil},
		},
	}
}

func liveColumns() []types.ColumnInfo {
	return []types.ColumnInfo{
		{Name: "id", DataType: types.RelBigint},
		{Name: "weight", DataType: types.RelDouble},
		{Name: "seen", DataType: types.RelDate},
		{Name: "name", DataType: types.RelVarchar},
	}
}

func newChecker(t *testing.T, live *types.Frame, cols []types.ColumnInfo, artifact *types.Frame, mode string) *Checker {
	t.Helper()
	c, err := NewChecker(&fakeStore{frame: live, cols: cols}, &fakeArtifacts{frame: artifact},
		config.ConsistencyConfig{SchemaMode: mode}, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestCheckDataConsistent(t *testing.T) {
	c := newChecker(t, liveFrame(), liveColumns(), artifactFrame(), "")

	res, err := c.CheckData(context.Background(), "patients")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, KindData, res.Kind)
	assert.Equal(t, 2, res.RowsCompared)
	assert.Equal(t, 4, res.ColumnsCompared)
	assert.Empty(t, res.Mismatch)
}

func TestCheckDataValueMismatch(t *testing.T) {
	artifact := artifactFrame()
	artifact.Rows[0][3] = "Jane"
	c := newChecker(t, liveFrame(), liveColumns(), artifact, "")

	res, err := c.CheckData(context.Background(), "patients")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConsistency))
	assert.True(t, errors.HasCode(err, ErrValueMismatch))
	assert.False(t, res.OK)
	assert.Contains(t, res.Mismatch, `row 0 column "name"`)

	ctx := errors.GetContext(err)
	assert.Equal(t, "John", ctx["table_value"])
	assert.Equal(t, "Jane", ctx["artifact_value"])
	assert.Equal(t, "patients", ctx["table"])
}

func TestCheckDataNullVersusValue(t *testing.T) {
	artifact := artifactFrame()
	artifact.Rows[1][2] = day(2024, 1, 1)
	c := newChecker(t, liveFrame(), liveColumns(), artifact, "")

	_, err := c.CheckData(context.Background(), "patients")
	require.Error(t, err)
	assert.Equal(t, "NULL", errors.GetContext(err)["table_value"])
}

func TestCheckDataRowCountMismatch(t *testing.T) {
	artifact := artifactFrame()
	artifact.Rows = artifact.Rows[:1]
	c := newChecker(t, liveFrame(), liveColumns(), artifact, "")

	res, err := c.CheckData(context.Background(), "patients")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrRowCountMismatch))
	assert.Equal(t, "row counts differ: table=2 artifact=1", res.Mismatch)
}

func TestCheckDataColumnMismatch(t *testing.T) {
	artifact := artifactFrame()
	artifact.Fields[0], artifact.Fields[1] = artifact.Fields[1], artifact.Fields[0]
	c := newChecker(t, liveFrame(), liveColumns(), artifact, "")

	_, err := c.CheckData(context.Background(), "patients")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrColumnMismatch))
}

func TestCheckDataMissingArtifact(t *testing.T) {
	missing := errors.New(errors.CommonNotFound, "artifact not found", nil)
	c, err := NewChecker(&fakeStore{frame: liveFrame()}, &fakeArtifacts{err: missing}, config.ConsistencyConfig{}, zerolog.Nop())
	require.NoError(t, err)

	_, err = c.CheckData(context.Background(), "patients")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CommonNotFound))
}

func TestCheckSchemaConsistent(t *testing.T) {
	c := newChecker(t, liveFrame(), liveColumns(), artifactFrame(), config.SchemaModeSymmetric)

	res, err := c.CheckSchema(context.Background(), "patients")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, KindSchema, res.Kind)
	assert.Equal(t, 4, res.ColumnsCompared)
}

func TestCheckSchemaTypeMismatch(t *testing.T) {
	artifact := artifactFrame()
	artifact.Fields[1].Type = "utf8"
	c := newChecker(t, liveFrame(), liveColumns(), artifact, "")

	res, err := c.CheckSchema(context.Background(), "patients")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrSchemaMismatch))
	assert.Equal(t, "float64", errors.GetContext(err)["expected_type"])
	assert.Contains(t, res.Mismatch, `column "weight"`)
}

func TestCheckSchemaMissingColumn(t *testing.T) {
	artifact := artifactFrame()
	artifact.Fields = artifact.Fields[:3]
	c := newChecker(t, liveFrame(), liveColumns(), artifact, config.SchemaModeStoreSubset)

	_, err := c.CheckSchema(context.Background(), "patients")
	require.Error(t, err)
	assert.Equal(t, "name", errors.GetContext(err)["column"])
}

func TestCheckSchemaExtraArtifactColumn(t *testing.T) {
	artifact := artifactFrame()
	artifact.Fields = append(artifact.Fields, types.Field{Name: "ssn", Type: "utf8"})

	symmetric := newChecker(t, liveFrame(), liveColumns(), artifact, config.SchemaModeSymmetric)
	_, err := symmetric.CheckSchema(context.Background(), "patients")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrSchemaMismatch))
	assert.Equal(t, "ssn", errors.GetContext(err)["column"])

	subset := newChecker(t, liveFrame(), liveColumns(), artifact, config.SchemaModeStoreSubset)
	res, err := subset.CheckSchema(context.Background(), "patients")
	require.NoError(t, err)
	assert.True(t, res.OK)
}

func TestUnknownSchemaMode(t *testing.T) {
	_, err := NewChecker(&fakeStore{}, &fakeArtifacts{}, config.ConsistencyConfig{SchemaMode: "loose"}, zerolog.Nop())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrUnknownSchemaMode))
}

func TestColumnarType(t *testing.T) {
	tests := map[string]string{
		types.RelInteger:  "int64",
		types.RelBigint:   "int64",
		types.RelSmallint: "int64",
		types.RelVarchar:  "utf8",
		types.RelText:     "utf8",
		types.RelDouble:   "float64",
		types.RelReal:     "float32",
		types.RelDate:     "date32",
		"interval":        "interval",
	}
	for rel, want := range tests {
		assert.Equal(t, want, ColumnarType(rel), rel)
	}
}
