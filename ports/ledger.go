package ports

import (
	"context"

	"evtlab/domain/core"
	"evtlab/domain/run"
)

// RunLedgerWriter provides append-only write access to analysis runs.
type RunLedgerWriter interface {
	StoreRun(ctx context.Context, analysisRun *run.AnalysisRun) error
}

// RunLedgerReader provides read-only access to stored runs. Use this for
// queries, replay, and UI/API access.
type RunLedgerReader interface {
	GetRun(ctx context.Context, id core.RunID) (*run.AnalysisRun, error)
	ListRuns(ctx context.Context, limit int) ([]run.AnalysisRun, error)
}

// RunLedger combines both sides for adapters that implement the full store.
type RunLedger interface {
	RunLedgerWriter
	RunLedgerReader
}
