// Package registry is the run ledger: a SQLite database recording every
// pipeline unit, its outcome and the artifact it produced.
package registry

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/metadata/registry/regtypes"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// MemoryPath opens a private in-memory ledger
const MemoryPath = ":memory:"

// Store records pipeline runs
type Store struct {
	db          *bun.DB
	path        string
	bunMigrator *BunMigrationManager
	logger      zerolog.Logger
}

// Open opens or creates the ledger at path and migrates it to the latest
// version
func Open(ctx context.Context, path string, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("component", "registry").Logger()

	dsn := path
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.New(RegistryFileOperationFailed, "failed to create registry directory", err).AddContext("path", path)
		}
		dsn = path + "?_foreign_keys=on"
	}

	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.New(RegistryOpenFailed, "failed to open registry database", err).AddContext("path", path)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	store := &Store{
		db:          db,
		path:        path,
		bunMigrator: NewBunMigrationManager(db, logger),
		logger:      logger,
	}

	if err := store.bunMigrator.MigrateToLatest(ctx); err != nil {
		db.Close()
		return nil, errors.AsError(err).AddContext("path", path)
	}
	if err := store.bunMigrator.VerifySchema(ctx); err != nil {
		db.Close()
		return nil, errors.AsError(err).AddContext("path", path)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetBunMigrationManager returns the migration manager
func (s *Store) GetBunMigrationManager() *BunMigrationManager {
	return s.bunMigrator
}

// Record inserts rec, or replaces the stored record with the same ID
func (s *Store) Record(ctx context.Context, rec *regtypes.RunRecord) error {
	if rec.ID == "" || rec.Table == "" {
		return errors.New(RegistryInvalidRecord, "run record needs an id and a table", nil)
	}

	_, err := s.db.NewInsert().
		Model(rec).
		On("CONFLICT (id) DO UPDATE").
		Set("artifact_key = EXCLUDED.artifact_key").
		Set("rows_loaded = EXCLUDED.rows_loaded").
		Set("status = EXCLUDED.status").
		Set("error = EXCLUDED.error").
		Set("finished_at = EXCLUDED.finished_at").
		Exec(ctx)
	if err != nil {
		return errors.New(RegistryRecordFailed, "failed to record run", err).
			AddContext("run_id", rec.ID).AddContext("table", rec.Table)
	}

	s.logger.Debug().Str("run_id", rec.ID).Str("table", rec.Table).Str("status", rec.Status).Msg("Run recorded")
	return nil
}

// List returns the most recent runs first. A limit of zero or less returns
// every run.
func (s *Store) List(ctx context.Context, limit int) ([]regtypes.RunRecord, error) {
	var runs []regtypes.RunRecord
	q := s.db.NewSelect().Model(&runs).Order("started_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, errors.New(RegistryQueryFailed, "failed to list runs", err)
	}
	return runs, nil
}

// Latest returns the most recent run of table
func (s *Store) Latest(ctx context.Context, table string) (*regtypes.RunRecord, error) {
	rec := new(regtypes.RunRecord)
	err := s.db.NewSelect().
		Model(rec).
		Where("table_name = ?", table).
		Order("started_at DESC", "id DESC").
		Limit(1).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, errors.New(RegistryRunNotFound, "no run recorded for table", nil).AddContext("table", table)
	}
	if err != nil {
		return nil, errors.New(RegistryQueryFailed, "failed to query latest run", err).AddContext("table", table)
	}
	return rec, nil
}
