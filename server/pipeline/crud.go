package pipeline

import (
	"context"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/store"
	"github.com/gear6io/parity/server/types"
)

// SampleValue returns a placeholder value for a column of the given
// relational type, and a second value distinct from it. Types without a
// sample get NULL twice.
func SampleValue(relType string) (any, any) {
	switch relType {
	case types.RelBigint, types.RelInteger, types.RelSmallint:
		return int64(987654321), int64(987654322)
	case types.RelDouble, types.RelReal, types.RelNumeric:
		return 1.5, 2.5
	case types.RelDate:
		return "2000-01-01", "2000-01-02"
	case types.RelVarchar, types.RelText:
		return "sample_text", "sample_text_updated"
	case types.RelBoolean:
		return true, false
	}
	return nil, nil
}

// Exercise runs an insert, update and delete cycle against table, syncing
// after each mutation: a sample row is inserted, its key column is changed
// and the row is deleted again. The three sync results are returned in
// order; the first failure stops the cycle.
func (p *Pipeline) Exercise(ctx context.Context, table, keyColumn string) ([]*SyncResult, error) {
	cols, err := p.tables.Columns(ctx, table)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(cols))
	values := make([]any, len(cols))
	var original, updated any
	found := false
	for i, c := range cols {
		names[i] = c.Name
		values[i], _ = SampleValue(c.DataType)
		if c.Name == keyColumn {
			original, updated = SampleValue(c.DataType)
			found = true
		}
	}
	if !found || original == nil {
		return nil, errors.New(PipelineMissingKey, "key column missing or of an unsupported type", nil).
			AddContext("table", table).AddContext("column", keyColumn)
	}

	var results []*SyncResult
	step := func(mutate func() error) error {
		if err := mutate(); err != nil {
			return err
		}
		res, err := p.Sync(ctx, table)
		if res != nil {
			results = append(results, res)
		}
		return err
	}

	if err := step(func() error {
		return p.tables.Insert(ctx, table, names, values)
	}); err != nil {
		return results, err
	}

	if err := step(func() error {
		_, err := p.tables.Update(ctx, table,
			[]store.Assignment{{Column: keyColumn, Value: updated}},
			[]store.Condition{{Column: keyColumn, Value: original}})
		return err
	}); err != nil {
		return results, err
	}

	if err := step(func() error {
		_, err := p.tables.Delete(ctx, table, []store.Condition{{Column: keyColumn, Value: updated}})
		return err
	}); err != nil {
		return results, err
	}

	p.logger.Info().Str("table", table).Str("key", keyColumn).Msg("CRUD cycle consistent")
	return results, nil
}
