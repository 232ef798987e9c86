package migrations

import (
	"context"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/uptrace/bun"
)

// Migration002 indexes runs for the per-table and status lookups
type Migration002 struct{}

func (m *Migration002) Version() int {
	return 2
}

func (m *Migration002) Name() string {
	return "run_indexes"
}

func (m *Migration002) Description() string {
	return "Index runs by table and by status"
}

func (m *Migration002) Up(ctx context.Context, tx bun.Tx) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_runs_table_started ON runs(table_name, started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status)`,
	}
	for _, stmt := range indexes {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.New(MigrationIndexCreationFailed, "failed to create index", err).AddContext("statement", stmt)
		}
	}
	return nil
}
