package run

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists runs.
type Repository interface {
	Save(ctx context.Context, r *Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*Run, error)
	// ListRecent returns at most limit runs, newest first.
	ListRecent(ctx context.Context, limit int) ([]*Run, error)
}

// EventPublisher announces finished runs to downstream consumers.
type EventPublisher interface {
	PublishRunCompleted(ctx context.Context, evt *CompletedEvent) error
}

// ReportArchive stores run reports and returns the object key.
type ReportArchive interface {
	StoreReport(ctx context.Context, report *Report) (string, error)
}

// GraphExporter writes a region-graph snapshot to an external graph store.
type GraphExporter interface {
	ExportGraph(ctx context.Context, snapshot *GraphSnapshot) error
}

// EstimateCache memoizes per-region valid fractions for a scenario
// fingerprint.  GetOrCompute returns the cached entry with hit == true, or
// runs compute, stores its result and returns it with hit == false.
// Concurrent misses for one fingerprint may share a single compute call.
type EstimateCache interface {
	GetOrCompute(ctx context.Context, fingerprint string, compute func() ([]float64, error)) (fractions []float64, hit bool, err error)
	Invalidate(ctx context.Context, fingerprint string) error
}

// DefaultListLimit and MaxListLimit bound ListRecent.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// NormalizeLimit clamps limit into [1, MaxListLimit], using DefaultListLimit
// for non-positive values.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
