// Package consistency compares a live table with its exported artifact.
package consistency

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/config"
	"github.com/gear6io/parity/server/types"
	"github.com/rs/zerolog"
)

// Kind tells which comparison produced a Result
type Kind string

const (
	KindData   Kind = "data"
	KindSchema Kind = "schema"
)

// Result describes one comparison. Mismatch is empty when OK.
type Result struct {
	Table           string
	Kind            Kind
	OK              bool
	RowsCompared    int
	ColumnsCompared int
	Mismatch        string
}

// StoreReader is the live side of a comparison
type StoreReader interface {
	Rows(ctx context.Context, table string) (*types.Frame, error)
	Columns(ctx context.Context, table string) ([]types.ColumnInfo, error)
}

// ArtifactReader is the exported side of a comparison
type ArtifactReader interface {
	Fetch(ctx context.Context, table string) (*types.Frame, error)
}

// Checker validates artifacts against their tables
type Checker struct {
	store      StoreReader
	artifacts  ArtifactReader
	schemaMode string
	logger     zerolog.Logger
}

// NewChecker creates a checker. An empty schema mode means symmetric.
func NewChecker(store StoreReader, artifacts ArtifactReader, cfg config.ConsistencyConfig, logger zerolog.Logger) (*Checker, error) {
	mode := cfg.SchemaMode
	switch mode {
	case "":
		mode = config.SchemaModeSymmetric
	case config.SchemaModeSymmetric, config.SchemaModeStoreSubset:
	default:
		return nil, errors.New(ErrUnknownSchemaMode, "unknown schema comparison mode", nil).AddContext("mode", mode)
	}

	return &Checker{
		store:      store,
		artifacts:  artifacts,
		schemaMode: mode,
		logger:     logger.With().Str("component", "consistency").Logger(),
	}, nil
}

// relationalToColumnar is the fixed mapping from canonical relational type
// names to Arrow type names. Types not listed compare by their own name.
var relationalToColumnar = map[string]string{
	types.RelBigint:   "int64",
	types.RelInteger:  "int64",
	types.RelSmallint: "int64",
	types.RelDouble:   "float64",
	types.RelReal:     "float32",
	types.RelDate:     "date32",
	types.RelVarchar:  "utf8",
	types.RelText:     "utf8",
	"varchar":         "utf8",
	types.RelBoolean:  "bool",
}

// ColumnarType returns the artifact type expected for a relational type
func ColumnarType(relType string) string {
	if t, ok := relationalToColumnar[relType]; ok {
		return t
	}
	return relType
}

// CheckData compares every cell of the live table with the artifact. Values
// compare by meaning: 3 equals 3.0, dates compare by calendar day and NULL
// equals NULL. A mismatch returns the failed Result together with a
// consistency error naming the first difference.
func (c *Checker) CheckData(ctx context.Context, table string) (*Result, error) {
	live, err := c.store.Rows(ctx, table)
	if err != nil {
		return nil, err
	}
	artifact, err := c.artifacts.Fetch(ctx, table)
	if err != nil {
		return nil, err
	}

	res := &Result{Table: table, Kind: KindData, ColumnsCompared: len(live.Fields)}

	liveNames, artifactNames := live.Names(), artifact.Names()
	if !slices.Equal(liveNames, artifactNames) {
		return c.fail(res, errors.New(ErrColumnMismatch, "table and artifact columns differ", nil).
			AddContext("table_columns", strings.Join(liveNames, ",")).
			AddContext("artifact_columns", strings.Join(artifactNames, ",")),
			fmt.Sprintf("columns differ: table=[%s] artifact=[%s]",
				strings.Join(liveNames, ", "), strings.Join(artifactNames, ", ")))
	}

	if live.NumRows() != artifact.NumRows() {
		return c.fail(res, errors.New(ErrRowCountMismatch, "table and artifact row counts differ", nil).
			AddContext("table_rows", strconv.Itoa(live.NumRows())).
			AddContext("artifact_rows", strconv.Itoa(artifact.NumRows())),
			fmt.Sprintf("row counts differ: table=%d artifact=%d", live.NumRows(), artifact.NumRows()))
	}

	for r := range live.Rows {
		for col, name := range liveNames {
			a, b := live.Rows[r][col], artifact.Rows[r][col]
			if types.ValuesEqual(a, b) {
				continue
			}
			res.RowsCompared = r
			return c.fail(res, errors.New(ErrValueMismatch, "table and artifact values differ", nil).
				AddContext("row", strconv.Itoa(r)).
				AddContext("column", name).
				AddContext("table_value", types.FormatValue(a)).
				AddContext("artifact_value", types.FormatValue(b)),
				fmt.Sprintf("row %d column %q: table=%s artifact=%s", r, name, types.FormatValue(a), types.FormatValue(b)))
		}
	}

	res.RowsCompared = live.NumRows()
	res.OK = true
	c.logger.Debug().Str("table", table).Int("rows", res.RowsCompared).Msg("Data consistent")
	return res, nil
}

// CheckSchema compares the store's column types, mapped to columnar type
// names, with the artifact schema. In symmetric mode the artifact may not
// carry columns the table lacks; in store_subset mode it may.
func (c *Checker) CheckSchema(ctx context.Context, table string) (*Result, error) {
	cols, err := c.store.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	artifact, err := c.artifacts.Fetch(ctx, table)
	if err != nil {
		return nil, err
	}

	res := &Result{Table: table, Kind: KindSchema, ColumnsCompared: len(cols), RowsCompared: artifact.NumRows()}
	artifactTypes := artifact.TypeMap()

	for _, col := range cols {
		want := ColumnarType(col.DataType)
		got, ok := artifactTypes[col.Name]
		if !ok {
			return c.fail(res, errors.New(ErrSchemaMismatch, "table column missing from artifact", nil).
				AddContext("column", col.Name),
				fmt.Sprintf("column %q missing from artifact", col.Name))
		}
		if got != want {
			return c.fail(res, errors.New(ErrSchemaMismatch, "column types differ", nil).
				AddContext("column", col.Name).
				AddContext("table_type", col.DataType).
				AddContext("expected_type", want).
				AddContext("artifact_type", got),
				fmt.Sprintf("column %q: table=%s (expects %s) artifact=%s", col.Name, col.DataType, want, got))
		}
	}

	if c.schemaMode == config.SchemaModeSymmetric {
		known := make(map[string]struct{}, len(cols))
		for _, col := range cols {
			known[col.Name] = struct{}{}
		}
		for _, f := range artifact.Fields {
			if _, ok := known[f.Name]; !ok {
				return c.fail(res, errors.New(ErrSchemaMismatch, "artifact column missing from table", nil).
					AddContext("column", f.Name),
					fmt.Sprintf("artifact column %q missing from table", f.Name))
			}
		}
	}

	res.OK = true
	c.logger.Debug().Str("table", table).Int("columns", res.ColumnsCompared).Msg("Schema consistent")
	return res, nil
}

func (c *Checker) fail(res *Result, err *errors.Error, mismatch string) (*Result, error) {
	res.Mismatch = mismatch
	err.AddContext("table", res.Table).AddContext("kind", string(res.Kind))
	c.logger.Warn().Str("table", res.Table).Str("kind", string(res.Kind)).Msg(mismatch)
	return res, err
}
