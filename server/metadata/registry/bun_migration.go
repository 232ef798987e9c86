package registry

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/metadata/registry/migrations"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
)

// Migration is implemented by every file in migrations/
type Migration interface {
	Version() int
	Name() string
	Description() string
	Up(ctx context.Context, tx bun.Tx) error
}

// MigrationStatus represents the status of a migration
type MigrationStatus struct {
	Version     int    `json:"version"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	AppliedAt   string `json:"applied_at"`
}

// BunMigrationManager applies the versioned migrations of the run ledger
type BunMigrationManager struct {
	db     *bun.DB
	logger zerolog.Logger
}

// NewBunMigrationManager creates a migration manager on db
func NewBunMigrationManager(db *bun.DB, logger zerolog.Logger) *BunMigrationManager {
	return &BunMigrationManager{
		db:     db,
		logger: logger,
	}
}

// MigrateToLatest runs all pending migrations in one transaction, so either
// every pending migration is applied or none is
func (bmm *BunMigrationManager) MigrateToLatest(ctx context.Context) error {
	currentVersion, err := bmm.GetCurrentVersion(ctx)
	if err != nil {
		return err
	}

	var pending []Migration
	for _, m := range bmm.getAvailableMigrations() {
		if m.Version() > currentVersion {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		bmm.logger.Debug().Int("version", currentVersion).Msg("No pending migrations")
		return nil
	}

	tx, err := bmm.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.New(RegistryMigrationFailed, "failed to begin transaction for migrations", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, m := range pending {
		if err := m.Up(ctx, tx); err != nil {
			return errors.New(RegistryMigrationFailed, "migration failed", err).
				AddContext("version", strconv.Itoa(m.Version())).
				AddContext("name", m.Name())
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bun_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
			m.Version(), m.Name(), now); err != nil {
			return errors.New(RegistryMigrationFailed, "failed to record migration", err).
				AddContext("version", strconv.Itoa(m.Version()))
		}
		bmm.logger.Debug().Int("version", m.Version()).Str("name", m.Name()).Msg("Migration applied")
	}

	if err := tx.Commit(); err != nil {
		return errors.New(RegistryMigrationFailed, "failed to commit migrations", err)
	}
	return nil
}

func (bmm *BunMigrationManager) getAvailableMigrations() []Migration {
	return []Migration{
		&migrations.Migration001{},
		&migrations.Migration002{},
	}
}

// GetCurrentVersion returns the highest applied migration version, creating
// the tracking table on first use
func (bmm *BunMigrationManager) GetCurrentVersion(ctx context.Context) (int, error) {
	exists, err := bmm.tableExists(ctx, "bun_migrations")
	if err != nil {
		return 0, errors.New(RegistryMigrationFailed, "failed to check migrations table", err)
	}
	if !exists {
		if err := bmm.createMigrationsTable(ctx); err != nil {
			return 0, errors.New(RegistryMigrationFailed, "failed to create migrations table", err)
		}
		return 0, nil
	}

	var version int
	err = bmm.db.NewSelect().
		ColumnExpr("version").
		Table("bun_migrations").
		Order("version DESC").
		Limit(1).
		Scan(ctx, &version)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, errors.New(RegistryMigrationFailed, "failed to get current version", err)
	}
	return version, nil
}

func (bmm *BunMigrationManager) createMigrationsTable(ctx context.Context) error {
	_, err := bmm.db.NewCreateTable().
		Model(&struct {
			bun.BaseModel `bun:"table:bun_migrations"`
			Version       int    `bun:"version,pk,type:integer"`
			Name          string `bun:"name,type:text,notnull"`
			AppliedAt     string `bun:"applied_at,type:text,notnull"`
		}{}).
		IfNotExists().
		Exec(ctx)
	return err
}

// GetMigrationStatus lists applied migrations in order
func (bmm *BunMigrationManager) GetMigrationStatus(ctx context.Context) ([]MigrationStatus, error) {
	exists, err := bmm.tableExists(ctx, "bun_migrations")
	if err != nil {
		return nil, errors.New(RegistryMigrationFailed, "failed to check migrations table", err)
	}
	if !exists {
		return []MigrationStatus{}, nil
	}

	var applied []struct {
		Version   int    `bun:"version"`
		Name      string `bun:"name"`
		AppliedAt string `bun:"applied_at"`
	}
	err = bmm.db.NewSelect().
		Model(&applied).
		Table("bun_migrations").
		Order("version ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.New(RegistryMigrationFailed, "failed to query migrations", err)
	}

	status := make([]MigrationStatus, len(applied))
	for i, m := range applied {
		status[i] = MigrationStatus{
			Version:     m.Version,
			Name:        m.Name,
			Description: "Migration " + strconv.Itoa(m.Version) + ": " + m.Name,
			Status:      "applied",
			AppliedAt:   m.AppliedAt,
		}
	}
	return status, nil
}

// VerifySchema checks that the tables the ledger relies on exist
func (bmm *BunMigrationManager) VerifySchema(ctx context.Context) error {
	for _, tableName := range []string{"bun_migrations", "runs"} {
		exists, err := bmm.tableExists(ctx, tableName)
		if err != nil {
			return errors.New(RegistrySchemaVerification, "failed to verify table", err).AddContext("table", tableName)
		}
		if !exists {
			return errors.New(RegistrySchemaVerification, "expected table does not exist", nil).AddContext("table", tableName)
		}
	}
	return nil
}

func (bmm *BunMigrationManager) tableExists(ctx context.Context, tableName string) (bool, error) {
	var exists int
	err := bmm.db.NewRaw("SELECT 1 FROM sqlite_master WHERE type='table' AND name=?", tableName).Scan(ctx, &exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
