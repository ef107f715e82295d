package testkit

import (
	"context"
	"sort"
	"sync"

	"evtlab/domain/core"
	"evtlab/domain/run"
)

// InMemoryRunLedger is a map-backed ports.RunLedger for tests and demos.
type InMemoryRunLedger struct {
	mu   sync.RWMutex
	runs map[core.RunID]run.AnalysisRun
}

// NewInMemoryRunLedger creates an empty ledger.
func NewInMemoryRunLedger() *InMemoryRunLedger {
	return &InMemoryRunLedger{runs: make(map[core.RunID]run.AnalysisRun)}
}

// StoreRun records a run, copying the value so later caller mutation does
// not leak into the store.
func (l *InMemoryRunLedger) StoreRun(ctx context.Context, analysisRun *run.AnalysisRun) error {
	if analysisRun == nil || analysisRun.ID.String() == "" {
		return core.InvalidParameter("analysis run must have an ID")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs[analysisRun.ID] = *analysisRun
	return nil
}

// GetRun retrieves a run by ID.
func (l *InMemoryRunLedger) GetRun(ctx context.Context, id core.RunID) (*run.AnalysisRun, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stored, ok := l.runs[id]
	if !ok {
		return nil, core.NotFound("analysis run")
	}
	return &stored, nil
}

// ListRuns returns up to limit runs, newest first.
func (l *InMemoryRunLedger) ListRuns(ctx context.Context, limit int) ([]run.AnalysisRun, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	all := make([]run.AnalysisRun, 0, len(l.runs))
	for _, r := range l.runs {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}
