// Package pipeline takes source files through inference, load, export and
// validation as one unit each, and re-validates tables after mutations.
package pipeline

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/config"
	"github.com/gear6io/parity/server/consistency"
	"github.com/gear6io/parity/server/export"
	"github.com/gear6io/parity/server/inference"
	"github.com/gear6io/parity/server/metadata/registry/regtypes"
	"github.com/gear6io/parity/server/store"
	"github.com/gear6io/parity/server/types"
	"github.com/gear6io/parity/utils"
	"github.com/rs/zerolog"
)

// Ledger persists run records. A nil Ledger disables recording.
type Ledger interface {
	Record(ctx context.Context, rec *regtypes.RunRecord) error
}

// Pipeline wires the components of one run together. Units for the same
// table are serialized; different tables may run concurrently.
type Pipeline struct {
	inferer  *inference.Inferer
	tables   *store.Manager
	importer *store.Importer
	exporter *export.Exporter
	checker  *consistency.Checker
	ledger   Ledger
	rollback bool
	logger   zerolog.Logger

	mu          sync.Mutex
	locks       map[string]*sync.Mutex
	descriptors map[string]types.TableDescriptor
}

// New creates a pipeline over already opened components
func New(
	tables *store.Manager,
	exporter *export.Exporter,
	checker *consistency.Checker,
	ledger Ledger,
	cfg config.PipelineConfig,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		inferer:  inference.New(inference.Options{SignedIntegers: cfg.SignedIntegers}),
		tables:   tables,
		importer: store.NewImporter(tables, logger),
		exporter: exporter,
		checker:  checker,
		ledger:   ledger,
		rollback: cfg.RollbackOnFailure,
		logger:   logger.With().Str("component", "pipeline").Logger(),
		locks:    make(map[string]*sync.Mutex),

		descriptors: make(map[string]types.TableDescriptor),
	}
}

// lock serializes work on one table and returns the matching unlock
func (p *Pipeline) lock(table string) func() {
	p.mu.Lock()
	l, ok := p.locks[table]
	if !ok {
		l = &sync.Mutex{}
		p.locks[table] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Run processes every *.csv file of dir in lexical order. The first failing
// unit stops the run; the records of all units attempted so far are
// returned alongside the error.
func (p *Pipeline) Run(ctx context.Context, dir string) ([]regtypes.RunRecord, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, errors.New(PipelineListFailed, "failed to list source files", err).AddContext("dir", dir)
	}
	if len(paths) == 0 {
		return nil, errors.New(PipelineNoSources, "no csv files found", nil).AddContext("dir", dir)
	}
	sort.Strings(paths)

	p.logger.Info().Str("dir", dir).Int("files", len(paths)).Msg("Pipeline run started")

	records := make([]regtypes.RunRecord, 0, len(paths))
	for _, path := range paths {
		rec, err := p.RunFile(ctx, path)
		records = append(records, *rec)
		if err != nil {
			return records, err
		}
	}

	p.logger.Info().Str("dir", dir).Int("files", len(paths)).Msg("Pipeline run finished")
	return records, nil
}

// RunFile takes one source file through infer, create, clear, load, export,
// upload verification and both consistency checks. On failure the table is
// dropped when rollback is enabled and the unit got as far as creating it.
// The returned record is never nil.
func (p *Pipeline) RunFile(ctx context.Context, path string) (*regtypes.RunRecord, error) {
	rec := &regtypes.RunRecord{
		ID:        utils.NewRunID(),
		Table:     inference.TableName(path),
		Source:    path,
		Status:    regtypes.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	p.record(ctx, rec)

	unlock := p.lock(rec.Table)
	created, err := p.runUnit(ctx, rec, path)
	if err != nil {
		rec.Status = regtypes.RunStatusFailed
		rec.Error = err.Error()
		if p.rollback && created {
			if dropErr := p.tables.DropTable(ctx, rec.Table); dropErr != nil {
				p.logger.Error().Err(dropErr).Str("table", rec.Table).Msg("Rollback failed")
			} else {
				rec.Status = regtypes.RunStatusRolledBack
				p.forget(rec.Table)
			}
		}
		if e, ok := errors.As(err); ok {
			e.AddContext("run_id", rec.ID)
		}
	} else {
		rec.Status = regtypes.RunStatusSucceeded
	}
	unlock()

	rec.FinishedAt = time.Now().UTC()
	p.record(ctx, rec)

	event := p.logger.Info()
	if err != nil {
		event = p.logger.Error().Err(err)
	}
	event.Str("run_id", rec.ID).
		Str("table", rec.Table).
		Str("status", rec.Status).
		Int64("rows", rec.RowsLoaded).
		Dur("duration", rec.Duration()).
		Msg("Unit finished")

	return rec, err
}

// runUnit reports whether it reached table creation, so that rollback never
// drops a table a failed inference did not touch.
func (p *Pipeline) runUnit(ctx context.Context, rec *regtypes.RunRecord, path string) (bool, error) {
	schema, err := p.inferer.Infer(path)
	if err != nil {
		return false, atStep(err, "infer")
	}
	if err := p.tables.CreateTable(ctx, rec.Table, schema); err != nil {
		return false, atStep(err, "create")
	}
	if err := p.tables.ClearTable(ctx, rec.Table); err != nil {
		return true, atStep(err, "clear")
	}

	if _, err := p.importer.Load(ctx, rec.Table, path); err != nil {
		return true, atStep(err, "load")
	}
	count, err := p.importer.RowCount(ctx, rec.Table)
	if err != nil {
		return true, atStep(err, "load")
	}
	rec.RowsLoaded = count
	if count == 0 {
		return true, atStep(errors.New(PipelineNoRowsLoaded, "no rows were loaded", nil).AddContext("table", rec.Table), "load")
	}

	p.mu.Lock()
	p.descriptors[rec.Table] = types.TableDescriptor{
		Name:     rec.Table,
		Source:   path,
		Schema:   schema,
		RowCount: count,
	}
	p.mu.Unlock()

	result, err := p.sync(ctx, rec.Table)
	if result != nil {
		rec.ArtifactKey = result.Key
	}
	return true, err
}

// Describe returns the descriptor of a table loaded by this pipeline. The
// row count follows the last successful data check.
func (p *Pipeline) Describe(table string) (types.TableDescriptor, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	d, ok := p.descriptors[table]
	return d, ok
}

func (p *Pipeline) forget(table string) {
	p.mu.Lock()
	delete(p.descriptors, table)
	p.mu.Unlock()
}

func (p *Pipeline) touch(table string, rows int) {
	p.mu.Lock()
	if d, ok := p.descriptors[table]; ok {
		d.RowCount = int64(rows)
		p.descriptors[table] = d
	}
	p.mu.Unlock()
}

// SyncResult is the outcome of re-exporting and validating a table
type SyncResult struct {
	Key    string
	Data   *consistency.Result
	Schema *consistency.Result
}

// OK reports whether both checks passed
func (r *SyncResult) OK() bool {
	return r.Data != nil && r.Data.OK && r.Schema != nil && r.Schema.OK
}

// Sync exports table and validates the new artifact against it. Call it
// after every mutation; an artifact that was not re-exported fails CheckData.
func (p *Pipeline) Sync(ctx context.Context, table string) (*SyncResult, error) {
	unlock := p.lock(table)
	defer unlock()

	return p.sync(ctx, table)
}

func (p *Pipeline) sync(ctx context.Context, table string) (*SyncResult, error) {
	key, err := p.exporter.Export(ctx, table)
	if err != nil {
		return nil, atStep(err, "export")
	}
	res := &SyncResult{Key: key}

	uploaded, err := p.exporter.VerifyUploaded(ctx, key)
	if err != nil {
		return res, atStep(err, "verify")
	}
	if !uploaded {
		return res, atStep(errors.New(PipelineArtifactMissing, "artifact not found after upload", nil).
			AddContext("table", table).AddContext("key", key), "verify")
	}

	if err := p.check(ctx, table, res); err != nil {
		return res, err
	}
	return res, nil
}

func (p *Pipeline) check(ctx context.Context, table string, res *SyncResult) error {
	var err error
	if res.Data, err = p.checker.CheckData(ctx, table); err != nil {
		return atStep(err, "check_data")
	}
	p.touch(table, res.Data.RowsCompared)
	if res.Schema, err = p.checker.CheckSchema(ctx, table); err != nil {
		return atStep(err, "check_schema")
	}
	return nil
}

// Check validates the current artifact without exporting first
func (p *Pipeline) Check(ctx context.Context, table string) (*SyncResult, error) {
	unlock := p.lock(table)
	defer unlock()

	res := &SyncResult{Key: p.exporter.Key(table)}
	return res, p.check(ctx, table, res)
}

func (p *Pipeline) record(ctx context.Context, rec *regtypes.RunRecord) {
	if p.ledger == nil {
		return
	}
	if err := p.ledger.Record(ctx, rec); err != nil {
		p.logger.Warn().Err(err).Str("run_id", rec.ID).Msg("Failed to record run")
	}
}

// atStep tags err with the pipeline step that produced it
func atStep(err error, step string) error {
	if e, ok := errors.As(err); ok {
		e.AddContext("step", step)
	}
	return err
}
