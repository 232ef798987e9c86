package store

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/config"
	"github.com/gear6io/parity/server/types"
)

// Dialect captures what differs between relational stores: driver wiring,
// identifier quoting, catalog introspection and the native bulk load path.
type Dialect interface {
	Name() string
	DriverName() string
	DSN(cfg *config.DatabaseConfig) string

	// Placeholder returns the bind marker for the n-th argument, 1-based
	Placeholder(n int) string
	QuoteIdent(name string) string
	SQLType(t types.ColumnType) string

	// ColumnsQuery takes the table name as its only argument and yields
	// (name, type) rows in ordinal order
	ColumnsQuery() string

	// BulkLoad copies the data rows of the file at path into table. columns
	// is the header of the file, already validated against the table.
	BulkLoad(ctx context.Context, db *sql.DB, table string, columns []string, path string) error
}

// DialectFor returns the dialect registered for a configured driver
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case config.DriverPostgres:
		return Postgres{}, nil
	case config.DriverSQLite:
		return SQLite{}, nil
	case config.DriverDuckDB:
		return DuckDB{}, nil
	}
	return nil, errors.New(ErrUnsupportedDialect, "unsupported database driver", nil).AddContext("driver", driver)
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name may be used as a table or column name
func ValidIdentifier(name string) bool {
	return identPattern.MatchString(name)
}

func checkIdentifier(name string) *errors.Error {
	if !ValidIdentifier(name) {
		return errors.New(ErrInvalidIdentifier, "identifier must match [A-Za-z_][A-Za-z0-9_]*", nil).AddContext("identifier", name)
	}
	return nil
}

// quoteDouble is ANSI identifier quoting, shared by every supported store
func quoteDouble(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// NormalizeType maps a catalog type name to the canonical vocabulary in
// types.Rel*. Unknown names are lowercased and passed through.
func NormalizeType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}

	switch t {
	case "bigint", "int8", "long":
		return types.RelBigint
	case "integer", "int", "int4", "signed":
		return types.RelInteger
	case "smallint", "int2", "short":
		return types.RelSmallint
	case "double", "double precision", "float8":
		return types.RelDouble
	case "real", "float4", "float":
		return types.RelReal
	case "decimal", "numeric":
		return types.RelNumeric
	case "date":
		return types.RelDate
	case "timestamp", "datetime", "timestamp without time zone":
		return types.RelTimestamp
	case "varchar", "character varying", "string", "char", "bpchar":
		return types.RelVarchar
	case "text":
		return types.RelText
	case "boolean", "bool", "logical":
		return types.RelBoolean
	}
	return t
}
