package migrations

import (
	"context"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/metadata/registry/regtypes"
	"github.com/uptrace/bun"
)

var (
	MigrationTableCreationFailed = errors.MustNewCode("migrations.table_creation_failed")
	MigrationIndexCreationFailed = errors.MustNewCode("migrations.index_creation_failed")
)

// Migration001 creates the runs table
type Migration001 struct{}

func (m *Migration001) Version() int {
	return 1
}

func (m *Migration001) Name() string {
	return "create_runs"
}

func (m *Migration001) Description() string {
	return "Pipeline run ledger"
}

func (m *Migration001) Up(ctx context.Context, tx bun.Tx) error {
	if _, err := tx.NewCreateTable().
		Model((*regtypes.RunRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.New(MigrationTableCreationFailed, "failed to create runs table", err)
	}
	return nil
}
