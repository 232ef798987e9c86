package cli

import (
	"context"

	"github.com/gear6io/parity/server/config"
	"github.com/gear6io/parity/server/consistency"
	"github.com/gear6io/parity/server/export"
	"github.com/gear6io/parity/server/metadata/registry"
	"github.com/gear6io/parity/server/objectstore"
	"github.com/gear6io/parity/server/pipeline"
	"github.com/gear6io/parity/server/store"
	"github.com/rs/zerolog"
)

// runtime holds the opened components of one command invocation
type runtime struct {
	cfg      *config.Config
	logger   zerolog.Logger
	tables   *store.Manager
	objects  objectstore.Store
	exporter *export.Exporter
	checker  *consistency.Checker
	ledger   *registry.Store
	pipeline *pipeline.Pipeline
}

// openRuntime connects to the relational store, the object store and the
// run ledger. Close releases whatever was opened, also on partial failure.
func openRuntime(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (rt *runtime, err error) {
	rt = &runtime{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			rt.Close()
			rt = nil
		}
	}()

	if rt.tables, err = store.Open(ctx, &cfg.Database, logger); err != nil {
		return rt, err
	}

	if rt.objects, err = objectstore.New(&cfg.ObjectStore, logger); err != nil {
		return rt, err
	}
	if err = rt.objects.EnsureBucket(ctx); err != nil {
		return rt, err
	}

	if rt.exporter, err = export.NewExporter(rt.tables, rt.objects, cfg.Export, logger); err != nil {
		return rt, err
	}
	if rt.checker, err = consistency.NewChecker(rt.tables, rt.exporter, cfg.Consistency, logger); err != nil {
		return rt, err
	}

	var ledger pipeline.Ledger
	if cfg.Registry.Path != "" {
		if rt.ledger, err = registry.Open(ctx, cfg.Registry.Path, logger); err != nil {
			return rt, err
		}
		ledger = rt.ledger
	}

	rt.pipeline = pipeline.New(rt.tables, rt.exporter, rt.checker, ledger, cfg.Pipeline, logger)
	return rt, nil
}

// openLedger opens only the run ledger
func openLedger(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*registry.Store, error) {
	return registry.Open(ctx, cfg.Registry.Path, logger)
}

// Close releases every opened component
func (rt *runtime) Close() {
	if rt.ledger != nil {
		if err := rt.ledger.Close(); err != nil {
			rt.logger.Warn().Err(err).Msg("Failed to close run ledger")
		}
	}
	if rt.tables != nil {
		if err := rt.tables.Close(); err != nil {
			rt.logger.Warn().Err(err).Msg("Failed to close relational store")
		}
	}
}
