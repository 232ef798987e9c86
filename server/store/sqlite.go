package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/config"
	"github.com/gear6io/parity/server/types"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite runs against a SQLite file, or a private in-memory database when
// no path is configured.
type SQLite struct{}

func (SQLite) Name() string       { return config.DriverSQLite }
func (SQLite) DriverName() string { return "sqlite3" }

func (SQLite) DSN(cfg *config.DatabaseConfig) string {
	if cfg.Path == "" {
		return ":memory:"
	}
	return cfg.Path
}

func (SQLite) Placeholder(n int) string { return "?" }

func (SQLite) QuoteIdent(name string) string {
	return quoteDouble(name)
}

func (SQLite) SQLType(t types.ColumnType) string {
	switch t {
	case types.TypeInteger:
		return "BIGINT"
	case types.TypeFloat:
		return "DOUBLE PRECISION"
	case types.TypeDate:
		return "DATE"
	default:
		return "VARCHAR"
	}
}

func (SQLite) ColumnsQuery() string {
	return `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`
}

// BulkLoad has no native COPY to lean on, so it inserts every row through
// one prepared statement inside a single transaction. Empty cells load as
// NULL like they do under COPY. Cells of floating point columns are bound as
// float64 so NaN and Inf spellings do not end up stored as text.
func (s SQLite) BulkLoad(ctx context.Context, db *sql.DB, table string, columns []string, path string) error {
	floats, err := s.floatColumns(ctx, db, table, columns)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.New(ErrLoadFileOpenFailed, "failed to open source file", err).AddContext("path", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if _, err := reader.Read(); err != nil {
		return errors.New(ErrLoadMalformedFile, "failed to read header row", err).AddContext("path", path)
	}

	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = s.QuoteIdent(c)
		marks[i] = s.Placeholder(i + 1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.QuoteIdent(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.New(ErrLoadCopyFailed, "failed to begin load transaction", err).AddContext("table", table)
	}
	defer tx.Rollback()

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return errors.New(ErrLoadCopyFailed, "failed to prepare insert", err).AddContext("table", table)
	}
	defer prepared.Close()

	args := make([]any, len(columns))
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.New(ErrLoadMalformedFile, "failed to read data row", err).AddContext("line", strconv.Itoa(line))
		}
		for i, v := range record {
			switch {
			case v == "":
				args[i] = nil
			case floats[i]:
				fv, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return errors.New(ErrLoadMalformedFile, "cell is not a number", err).
						AddContext("column", columns[i]).AddContext("line", strconv.Itoa(line))
				}
				args[i] = fv
			default:
				args[i] = v
			}
		}
		if _, err := prepared.ExecContext(ctx, args...); err != nil {
			return errors.New(ErrLoadCopyFailed, "failed to insert row", err).
				AddContext("table", table).AddContext("line", strconv.Itoa(line))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.New(ErrLoadCopyFailed, "failed to commit load", err).AddContext("table", table)
	}
	return nil
}

// floatColumns reports, per entry of columns, whether the table declares it
// with a floating point type
func (s SQLite) floatColumns(ctx context.Context, db *sql.DB, table string, columns []string) ([]bool, error) {
	rows, err := db.QueryContext(ctx, s.ColumnsQuery(), table)
	if err != nil {
		return nil, errors.New(ErrQueryFailed, "failed to introspect table", err).AddContext("table", table)
	}
	defer rows.Close()

	declared := make(map[string]string)
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, errors.New(ErrQueryFailed, "failed to scan column", err).AddContext("table", table)
		}
		declared[name] = NormalizeType(typ)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(ErrQueryFailed, "failed to introspect table", err).AddContext("table", table)
	}

	floats := make([]bool, len(columns))
	for i, c := range columns {
		switch declared[c] {
		case types.RelDouble, types.RelReal:
			floats[i] = true
		}
	}
	return floats, nil
}
