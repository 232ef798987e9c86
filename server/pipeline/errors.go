package pipeline

import "github.com/gear6io/parity/pkg/errors"

var (
	PipelineNoSources       = errors.MustNewCode("pipeline.no_sources")
	PipelineListFailed      = errors.MustNewCode("pipeline.list_failed")
	PipelineNoRowsLoaded    = errors.MustNewCode("pipeline.no_rows_loaded")
	PipelineArtifactMissing = errors.MustNewCode("pipeline.artifact_missing")
	PipelineMissingKey      = errors.MustNewCode("pipeline.missing_key_column")
)
