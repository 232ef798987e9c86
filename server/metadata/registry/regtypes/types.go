package regtypes

import (
	"time"

	"github.com/uptrace/bun"
)

// Run statuses
const (
	RunStatusRunning    = "running"
	RunStatusSucceeded  = "succeeded"
	RunStatusFailed     = "failed"
	RunStatusRolledBack = "rolled_back"
)

// RunRecord is one pipeline unit: a source file taken through load, export
// and validation
type RunRecord struct {
	bun.BaseModel `bun:"table:runs"`

	ID          string    `bun:"id,pk,type:text" json:"id"`
	Table       string    `bun:"table_name,notnull" json:"table"`
	Source      string    `bun:"source,notnull" json:"source"`
	ArtifactKey string    `bun:"artifact_key" json:"artifact_key,omitempty"`
	RowsLoaded  int64     `bun:"rows_loaded,notnull,default:0" json:"rows_loaded"`
	Status      string    `bun:"status,notnull" json:"status"`
	Error       string    `bun:"error" json:"error,omitempty"`
	StartedAt   time.Time `bun:"started_at,notnull" json:"started_at"`
	FinishedAt  time.Time `bun:"finished_at,nullzero" json:"finished_at,omitempty"`
}

// Succeeded reports whether the unit completed every step
func (r *RunRecord) Succeeded() bool {
	return r.Status == RunStatusSucceeded
}

// Duration is zero while the unit is running
func (r *RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
