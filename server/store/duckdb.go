package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/config"
	"github.com/gear6io/parity/server/types"
	_ "github.com/marcboeker/go-duckdb/v2"
)

// DuckDB runs against an embedded DuckDB database. An empty path opens an
// in-memory database.
type DuckDB struct{}

func (DuckDB) Name() string       { return config.DriverDuckDB }
func (DuckDB) DriverName() string { return "duckdb" }

func (DuckDB) DSN(cfg *config.DatabaseConfig) string {
	return cfg.Path
}

func (DuckDB) Placeholder(n int) string { return "?" }

func (DuckDB) QuoteIdent(name string) string {
	return quoteDouble(name)
}

func (DuckDB) SQLType(t types.ColumnType) string {
	switch t {
	case types.TypeInteger:
		return "BIGINT"
	case types.TypeFloat:
		return "DOUBLE"
	case types.TypeDate:
		return "DATE"
	default:
		return "VARCHAR"
	}
}

func (DuckDB) ColumnsQuery() string {
	return `SELECT column_name, data_type FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ?
		ORDER BY ordinal_position`
}

// BulkLoad uses DuckDB's own CSV reader, which resolves the file path itself
func (d DuckDB) BulkLoad(ctx context.Context, db *sql.DB, table string, columns []string, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.New(ErrLoadFileOpenFailed, "failed to resolve source path", err).AddContext("path", path)
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdent(c)
	}
	stmt := fmt.Sprintf("COPY %s (%s) FROM %s (FORMAT csv, HEADER true, DELIMITER ',')",
		d.QuoteIdent(table), strings.Join(quoted, ", "), quoteLiteral(abs))

	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return errors.New(ErrLoadCopyFailed, "copy from file failed", err).AddContext("table", table).AddContext("path", abs)
	}
	return nil
}
