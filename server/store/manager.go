// Package store creates, mutates and reads the relational tables that
// source files are loaded into.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/config"
	"github.com/gear6io/parity/server/types"
	"github.com/rs/zerolog"
)

// Assignment sets Column to Value in an UPDATE
type Assignment struct {
	Column string
	Value  any
}

// Condition is an equality predicate. Conditions passed together are ANDed
// and a nil Value matches NULL.
type Condition struct {
	Column string
	Value  any
}

// Manager owns one connection to the relational store. Every mutating call
// commits before returning.
type Manager struct {
	db      *sql.DB
	dialect Dialect
	logger  zerolog.Logger
}

// Open connects to the store described by cfg
func Open(ctx context.Context, cfg *config.DatabaseConfig, logger zerolog.Logger) (*Manager, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName(), dialect.DSN(cfg))
	if err != nil {
		return nil, errors.New(ErrOpenFailed, "failed to open database", err).AddContext("driver", cfg.Driver)
	}
	// a single connection keeps in-memory databases alive and shared
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.New(ErrOpenFailed, "failed to connect to database", err).AddContext("driver", cfg.Driver)
	}

	return New(db, dialect, logger), nil
}

// New wraps an already opened database
func New(db *sql.DB, dialect Dialect, logger zerolog.Logger) *Manager {
	return &Manager{
		db:      db,
		dialect: dialect,
		logger:  logger.With().Str("component", "store").Str("dialect", dialect.Name()).Logger(),
	}
}

// DB returns the underlying database handle
func (m *Manager) DB() *sql.DB {
	return m.db
}

// Dialect returns the dialect in use
func (m *Manager) Dialect() Dialect {
	return m.dialect
}

// Close releases the connection
func (m *Manager) Close() error {
	if err := m.db.Close(); err != nil {
		return errors.New(ErrCloseFailed, "failed to close database", err)
	}
	return nil
}

// CreateTable creates name with one column per schema entry if it does not
// exist yet
func (m *Manager) CreateTable(ctx context.Context, name string, schema types.ColumnSchema) error {
	if len(schema) == 0 {
		return errors.New(ErrEmptySchema, "cannot create a table without columns", nil).AddContext("table", name)
	}
	if err := checkIdentifier(name); err != nil {
		return err
	}

	defs := make([]string, len(schema))
	for i, col := range schema {
		if err := checkIdentifier(col.Name); err != nil {
			return err.AddContext("table", name)
		}
		defs[i] = m.dialect.QuoteIdent(col.Name) + " " + m.dialect.SQLType(col.Type)
	}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", m.dialect.QuoteIdent(name), strings.Join(defs, ", "))
	if _, err := m.db.ExecContext(ctx, stmt); err != nil {
		return errors.New(ErrExecFailed, "failed to create table", err).AddContext("table", name)
	}

	m.logger.Debug().Str("table", name).Int("columns", len(schema)).Msg("Table created")
	return nil
}

// ClearTable deletes every row of name. Clearing an empty table is a no-op.
func (m *Manager) ClearTable(ctx context.Context, name string) error {
	if err := checkIdentifier(name); err != nil {
		return err
	}
	if _, err := m.db.ExecContext(ctx, "DELETE FROM "+m.dialect.QuoteIdent(name)); err != nil {
		return errors.New(ErrExecFailed, "failed to clear table", err).AddContext("table", name)
	}
	return nil
}

// DropTable removes name if it exists
func (m *Manager) DropTable(ctx context.Context, name string) error {
	if err := checkIdentifier(name); err != nil {
		return err
	}
	if _, err := m.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+m.dialect.QuoteIdent(name)); err != nil {
		return errors.New(ErrExecFailed, "failed to drop table", err).AddContext("table", name)
	}
	m.logger.Debug().Str("table", name).Msg("Table dropped")
	return nil
}

// Insert adds one row. columns and values pair up positionally.
func (m *Manager) Insert(ctx context.Context, table string, columns []string, values []any) error {
	if len(columns) == 0 || len(columns) != len(values) {
		return errors.New(ErrValueCountMismatch, "columns and values must be non-empty and of equal length", nil).
			AddContext("table", table).
			AddContext("columns", strconv.Itoa(len(columns))).
			AddContext("values", strconv.Itoa(len(values)))
	}
	if err := m.checkColumns(ctx, table, columns); err != nil {
		return err
	}

	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = m.dialect.QuoteIdent(c)
		marks[i] = m.dialect.Placeholder(i + 1)
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		m.dialect.QuoteIdent(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
	if _, err := m.db.ExecContext(ctx, stmt, values...); err != nil {
		return errors.New(ErrExecFailed, "failed to insert row", err).AddContext("table", table)
	}
	return nil
}

// Update applies assignments to the rows matching every condition and
// returns the number of rows changed
func (m *Manager) Update(ctx context.Context, table string, assignments []Assignment, conditions []Condition) (int64, error) {
	if len(assignments) == 0 {
		return 0, errors.New(ErrValueCountMismatch, "update needs at least one assignment", nil).AddContext("table", table)
	}
	if len(conditions) == 0 {
		return 0, errors.New(ErrMissingConditions, "update without conditions is not allowed", nil).AddContext("table", table)
	}

	names := make([]string, 0, len(assignments)+len(conditions))
	for _, a := range assignments {
		names = append(names, a.Column)
	}
	for _, c := range conditions {
		names = append(names, c.Column)
	}
	if err := m.checkColumns(ctx, table, names); err != nil {
		return 0, err
	}

	sets := make([]string, len(assignments))
	args := make([]any, 0, len(assignments)+len(conditions))
	for i, a := range assignments {
		args = append(args, a.Value)
		sets[i] = fmt.Sprintf("%s = %s", m.dialect.QuoteIdent(a.Column), m.dialect.Placeholder(len(args)))
	}
	where, args := m.where(conditions, args)

	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s", m.dialect.QuoteIdent(table), strings.Join(sets, ", "), where)
	res, err := m.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, errors.New(ErrExecFailed, "failed to update rows", err).AddContext("table", table)
	}
	return affected(res), nil
}

// Delete removes the rows matching every condition and returns how many
// were removed. Use ClearTable to empty a table.
func (m *Manager) Delete(ctx context.Context, table string, conditions []Condition) (int64, error) {
	if len(conditions) == 0 {
		return 0, errors.New(ErrMissingConditions, "delete without conditions is not allowed", nil).AddContext("table", table)
	}

	names := make([]string, len(conditions))
	for i, c := range conditions {
		names[i] = c.Column
	}
	if err := m.checkColumns(ctx, table, names); err != nil {
		return 0, err
	}

	where, args := m.where(conditions, nil)
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s", m.dialect.QuoteIdent(table), where)
	res, err := m.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, errors.New(ErrExecFailed, "failed to delete rows", err).AddContext("table", table)
	}
	return affected(res), nil
}

func (m *Manager) where(conditions []Condition, args []any) (string, []any) {
	preds := make([]string, len(conditions))
	for i, c := range conditions {
		col := m.dialect.QuoteIdent(c.Column)
		if c.Value == nil {
			preds[i] = col + " IS NULL"
			continue
		}
		args = append(args, c.Value)
		preds[i] = fmt.Sprintf("%s = %s", col, m.dialect.Placeholder(len(args)))
	}
	return strings.Join(preds, " AND "), args
}

func affected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return -1
	}
	return n
}

// Columns introspects table and returns its columns in ordinal order with
// normalized type names
func (m *Manager) Columns(ctx context.Context, table string) ([]types.ColumnInfo, error) {
	if err := checkIdentifier(table); err != nil {
		return nil, err
	}

	rows, err := m.db.QueryContext(ctx, m.dialect.ColumnsQuery(), table)
	if err != nil {
		return nil, errors.New(ErrQueryFailed, "failed to introspect table", err).AddContext("table", table)
	}
	defer rows.Close()

	var cols []types.ColumnInfo
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, errors.New(ErrQueryFailed, "failed to scan column info", err).AddContext("table", table)
		}
		cols = append(cols, types.ColumnInfo{Name: name, DataType: NormalizeType(dataType)})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(ErrQueryFailed, "failed to introspect table", err).AddContext("table", table)
	}

	if len(cols) == 0 {
		return nil, errors.New(ErrTableNotFound, "table does not exist", nil).AddContext("table", table)
	}
	return cols, nil
}

// checkColumns rejects names that are not identifiers or not columns of table
func (m *Manager) checkColumns(ctx context.Context, table string, names []string) error {
	for _, n := range names {
		if err := checkIdentifier(n); err != nil {
			return err.AddContext("table", table)
		}
	}

	cols, err := m.Columns(ctx, table)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		known[c.Name] = struct{}{}
	}
	for _, n := range names {
		if _, ok := known[n]; !ok {
			return errors.New(ErrUnknownColumn, "column does not exist", nil).AddContext("table", table).AddContext("column", n)
		}
	}
	return nil
}

// Rows reads the whole table into a frame. Field types are the normalized
// relational type names. The table is read in one query, so its size is
// bounded by memory.
func (m *Manager) Rows(ctx context.Context, table string) (*types.Frame, error) {
	cols, err := m.Columns(ctx, table)
	if err != nil {
		return nil, err
	}

	frame := &types.Frame{Fields: make([]types.Field, len(cols))}
	quoted := make([]string, len(cols))
	for i, c := range cols {
		frame.Fields[i] = types.Field{Name: c.Name, Type: c.DataType}
		quoted[i] = m.dialect.QuoteIdent(c.Name)
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), m.dialect.QuoteIdent(table))
	rows, err := m.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, errors.New(ErrQueryFailed, "failed to read table", err).AddContext("table", table)
	}
	defer rows.Close()

	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.New(ErrQueryFailed, "failed to scan row", err).AddContext("table", table)
		}

		row := make([]any, len(cols))
		for i, v := range raw {
			if cols[i].DataType == types.RelDate {
				row[i] = types.NormalizeDate(v)
			} else {
				row[i] = types.NormalizeValue(v)
			}
		}
		frame.Rows = append(frame.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(ErrQueryFailed, "failed to read table", err).AddContext("table", table)
	}

	return frame, nil
}
