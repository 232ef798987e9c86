package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/config"
	"github.com/gear6io/parity/server/types"
	"github.com/jackc/pgx/v5/stdlib"
)

// Postgres talks to PostgreSQL through pgx's database/sql driver and loads
// files with COPY FROM STDIN on the underlying pgx connection.
type Postgres struct{}

func (Postgres) Name() string       { return config.DriverPostgres }
func (Postgres) DriverName() string { return "pgx" }

func (Postgres) DSN(cfg *config.DatabaseConfig) string {
	return cfg.PostgresURL()
}

func (Postgres) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (Postgres) QuoteIdent(name string) string {
	return quoteDouble(name)
}

func (Postgres) SQLType(t types.ColumnType) string {
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

func (Postgres) ColumnsQuery() string {
	return `SELECT column_name, data_type FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`
}

func (p Postgres) BulkLoad(ctx context.Context, db *sql.DB, table string, columns []string, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.New(ErrLoadFileOpenFailed, "failed to open source file", err).AddContext("path", path)
	}
	defer f.Close()

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = p.QuoteIdent(c)
	}
	stmt := fmt.Sprintf("COPY %s (%s) FROM STDIN (FORMAT csv, HEADER true)",
		p.QuoteIdent(table), strings.Join(quoted, ", "))

	conn, err := db.Conn(ctx)
	if err != nil {
		return errors.New(ErrLoadConnUnavailable, "failed to acquire connection", err)
	}
	defer conn.Close()

	return conn.Raw(func(driverConn any) error {
		pc, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return errors.New(ErrLoadConnUnavailable, "connection is not a pgx connection", nil).
				AddContext("type", fmt.Sprintf("%T", driverConn))
		}
		if _, err := pc.Conn().PgConn().CopyFrom(ctx, f, stmt); err != nil {
			return errors.New(ErrLoadCopyFailed, "copy from stdin failed", err).AddContext("table", table)
		}
		return nil
	})
}
